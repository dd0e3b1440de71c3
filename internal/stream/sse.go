package stream

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// sseFrame is one server-sent event as framed on the wire.
type sseFrame struct {
	ID    string
	Event string
	Data  []byte
}

// sseReader incrementally parses text/event-stream frames. Field handling
// follows the WHATWG framing rules the platform relies on: "data:" lines
// accumulate, a blank line dispatches, ":" lines are heartbeats.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &sseReader{scanner: scanner}
}

// Next blocks until a complete frame arrives or the stream ends. It returns
// io.EOF when the transport closes cleanly.
func (r *sseReader) Next() (sseFrame, error) {
	frame := sseFrame{}
	var data [][]byte
	sawField := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if !sawField {
				continue
			}
			frame.Data = bytes.Join(data, []byte("\n"))
			return frame, nil
		}
		if strings.HasPrefix(line, ":") {
			// Comment / keep-alive.
			continue
		}

		field, value := line, ""
		if idx := strings.Index(line, ":"); idx >= 0 {
			field = line[:idx]
			value = strings.TrimPrefix(line[idx+1:], " ")
		}

		switch field {
		case "id":
			frame.ID = value
			sawField = true
		case "event":
			frame.Event = value
			sawField = true
		case "data":
			data = append(data, []byte(value))
			sawField = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return frame, err
	}
	if sawField {
		// Dispatch a final frame that was not terminated by a blank line.
		frame.Data = bytes.Join(data, []byte("\n"))
		return frame, nil
	}
	return frame, io.EOF
}
