package sentmon

import (
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sentmon/sentmon/sentmon/exec"
)

// Worker wraps one spawned worker process. The supervisor loop owns the
// current Worker exclusively; the only concurrent access is the
// read-only Alive probe from the interrupt bridge.
type Worker struct {
	j    Journaler
	proc exec.Process

	exited   atomic.Bool
	waitCh   chan exec.ExitStatus
	termOnce sync.Once
	status   exec.ExitStatus
}

// NewWorker wraps an already-started process and begins reaping it in
// the background. The spawn is journaled immediately.
func NewWorker(p exec.Process, j Journaler) *Worker {
	w := &Worker{
		j:      j,
		proc:   p,
		waitCh: make(chan exec.ExitStatus, 1),
	}

	w.j.Write(&EventWorkerSpawned{PID: p.PID()})

	go w.reap()

	return w
}

func (w *Worker) reap() {
	status := w.proc.Wait()

	ev := EventWorkerExited{
		PID:      status.PID,
		ExitCode: status.Code,
	}
	if status.Error != nil {
		ev.Error = status.Error.Error()
	}

	// Journal before flipping the flag so the exit event is ordered
	// ahead of anything that reacts to the death.
	w.j.Write(&ev)

	w.exited.Store(true)
	w.waitCh <- status
}

// PID returns the worker's process ID.
func (w *Worker) PID() int { return w.proc.PID() }

// Alive reports whether the worker process is still running. It is
// non-blocking and side-effect-free.
func (w *Worker) Alive() bool {
	if w.exited.Load() {
		return false
	}
	return w.proc.Alive()
}

// Terminate signals the worker to exit if it is still running, then
// blocks until the process has been reaped. It is idempotent: repeated
// calls return the same exit status without signaling again.
func (w *Worker) Terminate() exec.ExitStatus {
	w.termOnce.Do(func() {
		w.j.Write(&EventWorkerStopping{PID: w.PID()})

		if w.Alive() {
			if err := w.proc.Signal(syscall.SIGTERM); err != nil {
				// Fall back to SIGKILL if the graceful signal cannot
				// be delivered.
				w.proc.Kill()
			}
		}

		w.status = <-w.waitCh
	})

	return w.status
}
