package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sentmon/sentmon/sentmon"
)

// Reader parses journals written by Writer from top to bottom.
type Reader struct {
	s *bufio.Scanner
	c io.Closer
}

// NewReader creates a new journal reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{s: bufio.NewScanner(r)}
}

// OpenReader opens the journal file at path for reading. No lock is
// needed; see FileLockJournaler.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}

	return &Reader{s: bufio.NewScanner(f), c: f}, nil
}

// Read reads a single entry. An io.EOF error is returned once the
// journal has been fully consumed.
func (r *Reader) Read() (sentmon.Event, time.Time, error) {
	for r.s.Scan() {
		line := bytes.TrimSpace(r.s.Bytes())
		if len(line) == 0 {
			continue
		}

		var rawEvent struct {
			Time time.Time       `json:"time"`
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}

		if err := json.Unmarshal(line, &rawEvent); err != nil {
			return nil, time.Time{}, errors.Wrap(err, "failed to decode JSON")
		}

		event := sentmon.NewEvent(rawEvent.Type)
		if event == nil {
			return nil, time.Time{}, fmt.Errorf("unknown event %q", rawEvent.Type)
		}

		if err := json.Unmarshal(rawEvent.Data, event); err != nil {
			return nil, time.Time{}, errors.Wrap(err, "failed to decode event data")
		}

		return event, rawEvent.Time, nil
	}

	if err := r.s.Err(); err != nil {
		return nil, time.Time{}, err
	}

	return nil, time.Time{}, io.EOF
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
