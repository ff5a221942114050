package village

type CreatedEvent struct {
	Result Village
}

type UpdatedEvent struct {
	Result Village
}

func NewCreatedEvent(result *Village) *CreatedEvent {
	return &CreatedEvent{Result: *result}
}

func NewUpdatedEvent(result *Village) *UpdatedEvent {
	return &UpdatedEvent{Result: *result}
}
