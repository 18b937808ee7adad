package sentmon

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestSentinels(t *testing.T) (*Sentinels, *mockJournal) {
	t.Helper()

	dir := t.TempDir()
	j := mockJournal{}

	s := NewSentinels(
		filepath.Join(dir, FileStop),
		filepath.Join(dir, FileRestart),
		&j,
	)
	return s, &j
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal("failed to write sentinel file:", err)
	}
}

func TestSentinelsPoll(t *testing.T) {
	t.Run("no request", func(t *testing.T) {
		s, j := newTestSentinels(t)

		if req := s.Poll(); req != nil {
			t.Fatalf("unexpected request %#v", req)
		}

		j.Verify(t, true, nil)
	})

	t.Run("stop with code", func(t *testing.T) {
		s, j := newTestSentinels(t)
		writeFile(t, s.StopPath, "7\n")

		req, ok := s.Poll().(StopRequest)
		if !ok || req.Code != 7 {
			t.Fatalf("expected StopRequest{7}, got %#v", req)
		}

		if _, err := os.Stat(s.StopPath); !os.IsNotExist(err) {
			t.Error("stop file was not deleted")
		}

		j.Verify(t, true, []Event{
			&EventStopRequested{Code: 7},
		})
	})

	t.Run("stop code surrounded by noise", func(t *testing.T) {
		s, _ := newTestSentinels(t)
		writeFile(t, s.StopPath, "  42  \nsecond line ignored\n")

		req, ok := s.Poll().(StopRequest)
		if !ok || req.Code != 42 {
			t.Fatalf("expected StopRequest{42}, got %#v", req)
		}
	})

	t.Run("malformed stop code falls back to normal", func(t *testing.T) {
		for _, content := range []string{"", "\n", "notanumber\n", "1.5\n"} {
			s, _ := newTestSentinels(t)
			writeFile(t, s.StopPath, content)

			req, ok := s.Poll().(StopRequest)
			if !ok || req.Code != ExitNormal {
				t.Fatalf("content %q: expected StopRequest{%d}, got %#v", content, ExitNormal, req)
			}
		}
	})

	t.Run("restart", func(t *testing.T) {
		s, j := newTestSentinels(t)
		writeFile(t, s.RestartPath, "")

		if _, ok := s.Poll().(RestartRequest); !ok {
			t.Fatal("expected RestartRequest")
		}

		if _, err := os.Stat(s.RestartPath); !os.IsNotExist(err) {
			t.Error("restart file was not deleted")
		}

		j.Verify(t, true, []Event{
			&EventRestartRequested{},
		})
	})

	t.Run("stop deletion failure does not prevent the stop", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("directory permissions do not bind root")
		}

		s, j := newTestSentinels(t)
		writeFile(t, s.StopPath, "7\n")

		// A read-only directory still lets the code be read, but the
		// remove fails.
		dir := filepath.Dir(s.StopPath)
		if err := os.Chmod(dir, 0500); err != nil {
			t.Fatal("failed to chmod dir:", err)
		}
		t.Cleanup(func() { os.Chmod(dir, 0700) })

		req, ok := s.Poll().(StopRequest)
		if !ok || req.Code != 7 {
			t.Fatalf("expected StopRequest{7}, got %#v", req)
		}

		events := j.Journals()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %#v", events)
		}
		warn, ok := events[0].(*EventWarning)
		if !ok || warn.Component != "sentinel" {
			t.Errorf("expected a sentinel warning first, got %#v", events[0])
		}
		if ev, ok := events[1].(*EventStopRequested); !ok || ev.Code != 7 {
			t.Errorf("expected EventStopRequested{7}, got %#v", events[1])
		}
	})

	t.Run("restart deletion failure does not prevent the restart", func(t *testing.T) {
		s, j := newTestSentinels(t)

		// A non-empty directory at the restart path exists like any
		// sentinel but cannot be removed, regardless of permissions.
		if err := os.MkdirAll(filepath.Join(s.RestartPath, "x"), 0700); err != nil {
			t.Fatal("failed to create restart dir:", err)
		}

		if _, ok := s.Poll().(RestartRequest); !ok {
			t.Fatal("expected RestartRequest despite the failed delete")
		}

		events := j.Journals()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %#v", events)
		}
		warn, ok := events[0].(*EventWarning)
		if !ok || warn.Component != "sentinel" {
			t.Errorf("expected a sentinel warning first, got %#v", events[0])
		}
		if _, ok := events[1].(*EventRestartRequested); !ok {
			t.Errorf("expected EventRestartRequested, got %#v", events[1])
		}
	})

	t.Run("stop wins over restart", func(t *testing.T) {
		s, _ := newTestSentinels(t)
		writeFile(t, s.StopPath, "3\n")
		writeFile(t, s.RestartPath, "")

		req, ok := s.Poll().(StopRequest)
		if !ok || req.Code != 3 {
			t.Fatalf("expected StopRequest{3}, got %#v", req)
		}

		// Only one sentinel is acted on per tick; the restart file is
		// left untouched.
		if _, err := os.Stat(s.RestartPath); err != nil {
			t.Error("restart file should still exist:", err)
		}
	})
}

func TestSentinelsCleanStale(t *testing.T) {
	s, j := newTestSentinels(t)
	writeFile(t, s.StopPath, "1\n")
	writeFile(t, s.RestartPath, "")

	s.CleanStale()

	for _, path := range []string{s.StopPath, s.RestartPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("stale file %q was not deleted", path)
		}
	}

	// Missing files are not worth a warning.
	s.CleanStale()
	j.Verify(t, true, nil)
}
