package sentmon

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Request is a typed sentinel request produced by one poll.
type Request interface {
	request()
}

// StopRequest asks the supervisor to terminate the worker and exit with
// Code.
type StopRequest struct {
	Code int
}

// RestartRequest asks the supervisor to terminate the worker and spawn
// a new one in its place.
type RestartRequest struct{}

func (StopRequest) request()    {}
func (RestartRequest) request() {}

// Sentinels polls the two sentinel files of a configuration directory
// and turns them into typed requests, so the rest of the loop never
// re-parses raw filesystem state.
type Sentinels struct {
	StopPath    string
	RestartPath string

	j Journaler
}

// NewSentinels creates a Sentinels over the two given paths.
func NewSentinels(stopPath, restartPath string, j Journaler) *Sentinels {
	return &Sentinels{
		StopPath:    stopPath,
		RestartPath: restartPath,
		j:           j,
	}
}

// Poll checks both sentinel paths once and consumes at most one
// request. A stop file wins over a restart file, since stopping
// supersedes restarting. The observed file is deleted before the
// request is returned, so the action it triggers always happens after
// the file is gone. Nil is returned when neither file exists.
func (s *Sentinels) Poll() Request {
	if _, err := os.Stat(s.StopPath); err == nil {
		code := readStopCode(s.StopPath)
		s.remove(s.StopPath, "stop")
		s.j.Write(&EventStopRequested{Code: code})
		return StopRequest{Code: code}
	}

	if _, err := os.Stat(s.RestartPath); err == nil {
		s.remove(s.RestartPath, "restart")
		s.j.Write(&EventRestartRequested{})
		return RestartRequest{}
	}

	return nil
}

// CleanStale removes sentinel files left over from a previous run.
// Missing files are fine; anything else is journaled and ignored.
func (s *Sentinels) CleanStale() {
	for _, path := range []string{s.StopPath, s.RestartPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.j.Write(&EventWarning{
				Component: "sentinel",
				Error:     fmt.Sprintf("unable to delete stale %q: %v", path, err),
			})
		}
	}
}

// remove deletes the sentinel file best-effort. A deletion failure must
// never block the action the file requested.
func (s *Sentinels) remove(path, kind string) {
	if err := os.Remove(path); err != nil {
		s.j.Write(&EventWarning{
			Component: "sentinel",
			Error:     fmt.Sprintf("unable to delete %s file: %v", kind, err),
		})
	}
}

// readStopCode parses the first line of the stop file as a decimal exit
// code, falling back to ExitNormal on any read or parse error.
func readStopCode(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return ExitNormal
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return ExitNormal
	}

	code, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return ExitNormal
	}

	return code
}
