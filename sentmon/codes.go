package sentmon

// Well-known names inside the configuration directory.
const (
	FileStop    = "stop"
	FileRestart = "restart"
)

// Environment variables exported to the worker so it can request its
// own restart or stop, and detect that it is supervised.
const (
	EnvStopFile      = "SENTMON_STOPFILE"
	EnvRestartFile   = "SENTMON_RESTARTFILE"
	EnvSupervised    = "SENTMON_SUPERVISED"
	EnvSupervisorPID = "SENTMON_SUPERVISOR_PID"
)

// Exit codes. Signal-driven exits follow the Unix 128+signal
// convention.
const (
	// ExitNormal is a clean shutdown, and the fallback when a stop file
	// carries no parsable code.
	ExitNormal = 0

	// ExitPreflight is returned when the worker executable cannot be
	// resolved before supervision starts.
	ExitPreflight = 2

	// ExitInterrupt is the forced exit after a repeated interrupt with
	// a dead worker: 128 + SIGINT.
	ExitInterrupt = 130
)
