package conflict

// DetectedEvent is published when a pending conflict has been persisted.
type DetectedEvent struct {
	Result Conflict
}

// ResolvedEvent is published after a resolution (manual or automatic) has
// been committed.
type ResolvedEvent struct {
	Result Conflict
}

func NewDetectedEvent(result *Conflict) *DetectedEvent {
	return &DetectedEvent{Result: *result}
}

func NewResolvedEvent(result *Conflict) *ResolvedEvent {
	return &ResolvedEvent{Result: *result}
}
