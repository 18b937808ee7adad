package journal

import (
	"bytes"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/sentmon/sentmon/sentmon"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	written := []sentmon.Event{
		&sentmon.EventAcquired{},
		&sentmon.EventWorkerSpawned{PID: 4556},
		&sentmon.EventStopRequested{Code: 7},
		&sentmon.EventWorkerStopping{PID: 4556},
		&sentmon.EventWorkerExited{PID: 4556, ExitCode: 0},
		&sentmon.EventWarning{Component: "sentinel", Error: "unable to delete stop file"},
		&sentmon.EventSupervisorExit{Code: 7},
	}

	buf := bytes.Buffer{}
	w := NewWriter(&buf)

	for _, ev := range written {
		if err := w.Write(ev); err != nil {
			t.Fatal("failed to write event:", err)
		}
	}

	r := NewReader(&buf)

	for i, expect := range written {
		ev, ts, err := r.Read()
		if err != nil {
			t.Fatalf("failed to read event %d: %v", i, err)
		}
		if ts.IsZero() {
			t.Errorf("event %d has a zero timestamp", i)
		}
		if !reflect.DeepEqual(ev, expect) {
			t.Errorf("event %d mismatch, got %#v, expected %#v", i, ev, expect)
		}
	}

	if _, _, err := r.Read(); !errors.Is(err, io.EOF) {
		t.Error("expected EOF at the end of the journal, got", err)
	}
}

func TestReaderUnknownEvent(t *testing.T) {
	r := NewReader(bytes.NewBufferString(
		`{"time":"2026-01-02T15:04:05Z","type":"no such event","data":{}}` + "\n",
	))

	if _, _, err := r.Read(); err == nil {
		t.Error("expected an error for an unknown event type")
	}
}

func TestFileLockJournaler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")

	j, err := NewFileLockJournaler(path)
	if err != nil {
		t.Fatal("failed to create journaler:", err)
	}
	defer j.Close()

	if err := j.Write(&sentmon.EventAcquired{}); err != nil {
		t.Fatal("failed to write event:", err)
	}

	// A second journaler on the same path must be refused; this is the
	// one-supervisor-per-directory guarantee.
	if _, err := NewFileLockJournaler(path); !errors.Is(err, ErrLockedElsewhere) {
		t.Fatal("expected ErrLockedElsewhere, got", err)
	}

	// The journal stays readable without the lock.
	r, err := OpenReader(path)
	if err != nil {
		t.Fatal("failed to open reader:", err)
	}
	defer r.Close()

	ev, _, err := r.Read()
	if err != nil {
		t.Fatal("failed to read event:", err)
	}
	if _, ok := ev.(*sentmon.EventAcquired); !ok {
		t.Errorf("unexpected event %#v", ev)
	}
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := MultiWriter(NewWriter(&a), NewWriter(&b))

	if err := w.Write(&sentmon.EventWorkerSpawned{PID: 1}); err != nil {
		t.Fatal("failed to write event:", err)
	}

	if a.Len() == 0 || b.Len() == 0 {
		t.Error("event was not written to every journaler")
	}
	if a.String() != b.String() {
		t.Error("journalers received different payloads")
	}
}

func TestHumanWriter(t *testing.T) {
	buf := bytes.Buffer{}
	h := NewHumanWriter(&buf)

	if err := h.Write(&sentmon.EventSupervisorExit{Code: 7}); err != nil {
		t.Fatal("failed to write event:", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("sentmon exited with status code 7.")) {
		t.Errorf("unexpected status line %q", buf.String())
	}
}
