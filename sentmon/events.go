package sentmon

// eventType describes an event type.
type eventType = string

const (
	eventWarning          eventType = "warning"
	eventAcquired         eventType = "acquired lock"
	eventWorkerSpawned    eventType = "worker spawned"
	eventWorkerSpawnError eventType = "worker spawn error"
	eventWorkerStopping   eventType = "worker stopping"
	eventWorkerExited     eventType = "worker exited"
	eventStopRequested    eventType = "stop requested"
	eventRestartRequested eventType = "restart requested"
	eventInterruptAck     eventType = "interrupt acknowledged"
	eventSupervisorExit   eventType = "supervisor exit"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	event()
}

// NewEvent creates a new event from the given event type. It is used
// primarily for decoding events from its type. Nil is returned if the
// event type is unknown.
func NewEvent(eventType string) Event {
	switch eventType {
	case eventWarning:
		return &EventWarning{}
	case eventAcquired:
		return &EventAcquired{}
	case eventWorkerSpawned:
		return &EventWorkerSpawned{}
	case eventWorkerSpawnError:
		return &EventWorkerSpawnError{}
	case eventWorkerStopping:
		return &EventWorkerStopping{}
	case eventWorkerExited:
		return &EventWorkerExited{}
	case eventStopRequested:
		return &EventStopRequested{}
	case eventRestartRequested:
		return &EventRestartRequested{}
	case eventInterruptAck:
		return &EventInterruptAck{}
	case eventSupervisorExit:
		return &EventSupervisorExit{}
	default:
		return nil
	}
}

// EventWarning is emitted when a non-fatal error occurs, such as a
// sentinel file that could not be deleted.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev *EventWarning) Type() string { return eventWarning }
func (ev *EventWarning) event()       {}

// EventAcquired is emitted when the flock (i.e. write lock on the
// journal) is acquired, which is on startup.
type EventAcquired struct{}

func (ev *EventAcquired) Type() string { return eventAcquired }
func (ev *EventAcquired) event()       {}

// EventWorkerSpawned is emitted when the worker process has been
// started, at startup or after a restart request.
type EventWorkerSpawned struct {
	PID int `json:"pid"`
}

func (ev *EventWorkerSpawned) Type() string { return eventWorkerSpawned }
func (ev *EventWorkerSpawned) event()       {}

// EventWorkerSpawnError is emitted when the worker fails to start. A
// spawn error is fatal to the supervisor.
type EventWorkerSpawnError struct {
	Reason string `json:"reason"`
}

func (ev *EventWorkerSpawnError) Type() string { return eventWorkerSpawnError }
func (ev *EventWorkerSpawnError) event()       {}

// EventWorkerStopping is emitted right before the worker is signaled to
// terminate.
type EventWorkerStopping struct {
	PID int `json:"pid"`
}

func (ev *EventWorkerStopping) Type() string { return eventWorkerStopping }
func (ev *EventWorkerStopping) event()       {}

// EventWorkerExited is emitted when the worker process has been reaped
// for any reason.
type EventWorkerExited struct {
	PID      int    `json:"pid"`
	Error    string `json:"error,omitempty"`
	ExitCode int    `json:"exit_code"` // -1 if interrupted or terminated
}

func (ev *EventWorkerExited) Type() string { return eventWorkerExited }
func (ev *EventWorkerExited) event()       {}

// EventStopRequested is emitted when a stop file has been observed and
// deleted. Code is the exit code the supervisor will exit with.
type EventStopRequested struct {
	Code int `json:"code"`
}

func (ev *EventStopRequested) Type() string { return eventStopRequested }
func (ev *EventStopRequested) event()       {}

// EventRestartRequested is emitted when a restart file has been
// observed and deleted.
type EventRestartRequested struct{}

func (ev *EventRestartRequested) Type() string { return eventRestartRequested }
func (ev *EventRestartRequested) event()       {}

// EventInterruptAck is emitted on the first terminal interrupt. The
// worker shares the interrupt and is expected to shut itself down.
type EventInterruptAck struct{}

func (ev *EventInterruptAck) Type() string { return eventInterruptAck }
func (ev *EventInterruptAck) event()       {}

// EventSupervisorExit is the final event of a run, carrying the status
// code the supervisor exits with.
type EventSupervisorExit struct {
	Code int `json:"code"`
}

func (ev *EventSupervisorExit) Type() string { return eventSupervisorExit }
func (ev *EventSupervisorExit) event()       {}
