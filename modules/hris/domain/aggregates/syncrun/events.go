package syncrun

// StartedEvent is published once a run has claimed the in_progress slot.
type StartedEvent struct {
	Result SyncRun
}

// FinishedEvent is published after a run has been finalized, whether it
// completed or failed.
type FinishedEvent struct {
	Result SyncRun
}

func NewStartedEvent(result *SyncRun) *StartedEvent {
	return &StartedEvent{Result: *result}
}

func NewFinishedEvent(result *SyncRun) *FinishedEvent {
	return &FinishedEvent{Result: *result}
}
