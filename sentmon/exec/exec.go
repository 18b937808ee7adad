// Package exec provides an abstraction around package os' Process
// implementation for easier testing.
package exec

import (
	"os"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Process describes a worker process.
type Process interface {
	PID() int
	Signal(os.Signal) error
	Kill() error
	Alive() bool
	Wait() ExitStatus
}

// ExitStatus is a process' exit status.
type ExitStatus struct {
	PID   int
	Code  int // -1 for interrupt
	Error error
}

type process struct {
	*os.Process
}

var _ Process = process{}

// StartProcess creates a new worker process on the system. The process
// reads stdin from the null device and inherits the supervisor's stdout
// and stderr, so its output stays visible.
func StartProcess(argv, env []string) (Process, error) {
	// Pin the spawn to one OS thread for Pdeathsig: the signal fires
	// when the spawning thread dies, and an unlocked thread stays in
	// the scheduler pool for the life of the process.
	// See https://github.com/golang/go/issues/27505.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Linux-only: set the current PID as the subreaper to prevent the
	// worker from disowning itself, which would break liveness checks.
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return nil, errors.Wrap(err, "failed to set subreaper")
	}

	devnull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open null device")
	}
	defer devnull.Close()

	p, err := os.StartProcess(argv[0], argv, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{devnull, os.Stdout, os.Stderr},
		// Linux-only: the worker must die when we do. The worker stays
		// in our process group on purpose, so a terminal interrupt
		// reaches it directly.
		Sys: &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM},
	})
	if err != nil {
		return nil, err
	}

	return process{p}, nil
}

func (proc process) PID() int {
	return proc.Pid
}

// Alive reports whether the process is still running, probed natively
// with the null signal.
func (proc process) Alive() bool {
	return proc.Process.Signal(syscall.Signal(0)) == nil
}

// Wait waits for the process to exit and reaps it. It may be called
// from any goroutine, but only once.
func (proc process) Wait() ExitStatus {
	s, err := proc.Process.Wait()

	status := ExitStatus{PID: proc.Pid, Code: -1, Error: err}
	if s != nil {
		status.Code = s.ExitCode()
	}
	return status
}
