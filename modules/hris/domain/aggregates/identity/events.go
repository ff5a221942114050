package identity

// CreatedEvent is published after a new identity has been persisted.
type CreatedEvent struct {
	Result Identity
}

// UpdatedEvent is published after an existing identity has been persisted.
type UpdatedEvent struct {
	Result Identity
}

// TransferredEvent is published when an identity's village assignment
// changed during an update.
type TransferredEvent struct {
	Result Identity
}

func NewCreatedEvent(result *Identity) *CreatedEvent {
	return &CreatedEvent{Result: *result}
}

func NewUpdatedEvent(result *Identity) *UpdatedEvent {
	return &UpdatedEvent{Result: *result}
}

func NewTransferredEvent(result *Identity) *TransferredEvent {
	return &TransferredEvent{Result: *result}
}
