package sentmon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"

	"github.com/sentmon/sentmon/sentmon/exec"
)

// PollInterval is the default delay between sentinel polls.
var PollInterval = 5 * time.Second

// Supervisor is the top-level control loop. It owns the current worker,
// polls the sentinel files on a fixed interval, applies restart and
// stop transitions, and only returns with a final exit code.
type Supervisor struct {
	// Interval is the sentinel poll interval.
	Interval time.Duration

	j         Journaler
	dir       string
	sentinels *Sentinels

	startProc func() (exec.Process, error)
	notify    func(state string)

	cur atomic.Pointer[Worker]
}

// New creates a supervisor for the given configuration directory. The
// worker is spawned from argv with the supervisor's environment plus
// the sentinel paths, so the worker can request its own restart or
// stop.
func New(configDir string, argv []string, j Journaler) *Supervisor {
	if abs, err := filepath.Abs(configDir); err == nil {
		configDir = abs
	}

	stopPath := filepath.Join(configDir, FileStop)
	restartPath := filepath.Join(configDir, FileRestart)

	env := workerEnv(os.Environ(), stopPath, restartPath)

	return &Supervisor{
		Interval:  PollInterval,
		j:         j,
		dir:       configDir,
		sentinels: NewSentinels(stopPath, restartPath, j),
		startProc: func() (exec.Process, error) {
			return exec.StartProcess(argv, env)
		},
		notify: func(state string) {
			// Best effort; a no-op outside systemd units.
			daemon.SdNotify(false, state)
		},
	}
}

// workerEnv extends the base environment with the sentinel paths and
// supervision markers the worker is entitled to.
func workerEnv(base []string, stopPath, restartPath string) []string {
	return append(base,
		EnvStopFile+"="+stopPath,
		EnvRestartFile+"="+restartPath,
		EnvSupervised+"=1",
		EnvSupervisorPID+"="+strconv.Itoa(os.Getpid()),
	)
}

// WorkerAlive reports whether the current worker is still running. It
// is safe to call from the interrupt path while the loop replaces the
// worker.
func (s *Supervisor) WorkerAlive() bool {
	w := s.cur.Load()
	return w != nil && w.Alive()
}

// Run drives the supervision loop until a stop request or context
// cancellation, returning the final exit code. A worker spawn failure
// is fatal and returned as an error.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	s.sentinels.CleanStale()

	if err := s.spawn(); err != nil {
		return 1, err
	}
	s.notify(daemon.SdNotifyReady)

	bridge := NewBridge(s.WorkerAlive, s.j)
	bridge.Listen(ctx)

	watcher := TryWatch(ctx, s.dir, s.j)

	for {
		switch req := s.sentinels.Poll().(type) {
		case StopRequest:
			s.shutdown(req.Code)
			return req.Code, nil

		case RestartRequest:
			s.cur.Load().Terminate()
			if err := s.spawn(); err != nil {
				return 1, err
			}

		case nil:
			select {
			case <-ctx.Done():
				s.shutdown(ExitNormal)
				return ExitNormal, nil
			case <-watcher.Nudges:
			case <-time.After(s.Interval):
			}
		}
	}
}

func (s *Supervisor) spawn() error {
	p, err := s.startProc()
	if err != nil {
		s.j.Write(&EventWorkerSpawnError{Reason: err.Error()})
		return errors.Wrap(err, "failed to spawn worker")
	}

	s.cur.Store(NewWorker(p, s.j))
	return nil
}

func (s *Supervisor) shutdown(code int) {
	s.notify(daemon.SdNotifyStopping)
	s.cur.Load().Terminate()
	s.j.Write(&EventSupervisorExit{Code: code})
}
