package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxSSELineSize is the maximum size of a single SSE line (1 MB).
const maxSSELineSize = 1 * 1024 * 1024

// SSEEvent is one dispatched server-sent event. Event is empty for streams
// that only send data lines.
type SSEEvent struct {
	Event string
	Data  string
}

// SSEScanner reads server-sent events from an io.Reader. Comment lines are
// skipped and consecutive data lines are joined with newlines.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner creates an SSEScanner over reader. Lines longer than 1 MB make
// Next return an error wrapping bufio.ErrTooLong.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: scanner}
}

// Next returns the next event. It returns io.EOF once the stream is exhausted.
func (sseScanner *SSEScanner) Next() (SSEEvent, error) {
	var current SSEEvent
	var dataLines []string

	for sseScanner.scanner.Scan() {
		line := sseScanner.scanner.Text()

		if line == "" {
			if len(dataLines) > 0 || current.Event != "" {
				current.Data = strings.Join(dataLines, "\n")
				return current, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			current.Event = value
		case "data":
			dataLines = append(dataLines, value)
		}
	}

	if err := sseScanner.scanner.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("SSE scanner error: %w", err)
	}

	if len(dataLines) > 0 || current.Event != "" {
		current.Data = strings.Join(dataLines, "\n")
		return current, nil
	}

	return SSEEvent{}, io.EOF
}
