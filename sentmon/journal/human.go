package journal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sentmon/sentmon/sentmon"
)

// HumanWriter is a journaler that renders each event as a one-line
// status message, the way the supervisor talks to a terminal.
type HumanWriter struct {
	mutex sync.Mutex
	w     io.Writer
}

var _ sentmon.Journaler = (*HumanWriter)(nil)

// NewHumanWriter creates a journaler that writes human-readable status
// lines into the writer, usually stderr.
func NewHumanWriter(w io.Writer) *HumanWriter {
	return &HumanWriter{w: w}
}

// Write renders and writes the event as one line.
func (h *HumanWriter) Write(ev sentmon.Event) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	_, err := fmt.Fprintln(h.w, Format(time.Now(), ev))
	return err
}

// Format renders a single event the way HumanWriter prints it. The log
// subcommand uses it to replay a journal file.
func Format(t time.Time, ev sentmon.Event) string {
	return t.Format("2006-01-02 15:04:05") + " " + message(ev)
}

func message(ev sentmon.Event) string {
	switch ev := ev.(type) {
	case *sentmon.EventAcquired:
		return "acquired supervision lock"
	case *sentmon.EventWorkerSpawned:
		return fmt.Sprintf("starting worker with PID %d...", ev.PID)
	case *sentmon.EventWorkerSpawnError:
		return "failed to start worker: " + ev.Reason
	case *sentmon.EventWorkerStopping:
		return fmt.Sprintf("terminating worker with PID %d", ev.PID)
	case *sentmon.EventWorkerExited:
		if ev.Error != "" {
			return fmt.Sprintf("worker with PID %d exited with code %d: %s", ev.PID, ev.ExitCode, ev.Error)
		}
		return fmt.Sprintf("worker with PID %d exited with code %d", ev.PID, ev.ExitCode)
	case *sentmon.EventStopRequested:
		return fmt.Sprintf("stop file received, exiting with status code %d...", ev.Code)
	case *sentmon.EventRestartRequested:
		return "restart file received, restarting worker..."
	case *sentmon.EventInterruptAck:
		return "handling keyboard interrupt, waiting for the worker to shut down..."
	case *sentmon.EventSupervisorExit:
		return fmt.Sprintf("sentmon exited with status code %d.", ev.Code)
	case *sentmon.EventWarning:
		return fmt.Sprintf("warning from %s: %s", ev.Component, ev.Error)
	default:
		return ev.Type()
	}
}
