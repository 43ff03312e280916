package stream

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/Rrens/admission-chat/internal/domain"
)

// sseDecoder turns each "data:" line into one frame, in line order. An "event:"
// line retypes the data lines after it until the next blank line.
//
// Backends that write "data: <chunk>\n\n" without escaping put the text after a
// newline in the chunk on a bare line. Inside an open content event such a line is
// read as a continuation and yields "\n" plus the line, and an empty data line
// yields "\n".
type sseDecoder struct {
	lines *lineReader
	event string
	open  bool
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{lines: newLineReader(r)}
}

func (d *sseDecoder) Next() (Frame, error) {
	for {
		line, err := d.lines.next()
		if err != nil {
			return Frame{}, err
		}

		if line == "" {
			d.event = ""
			d.open = false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // comment / keepalive
		}

		field, value := splitField(line)
		switch field {
		case "data":
			return d.frame(line, value)
		case "event":
			d.event = value
		case "id", "retry":
		default:
			if d.open {
				return Frame{Type: FrameContent, Content: "\n" + line}, nil
			}
			return Frame{}, &MalformedFrameError{Raw: line, Reason: "not an event stream field"}
		}
	}
}

func (d *sseDecoder) frame(line, value string) (Frame, error) {
	switch d.event {
	case "", "message", string(FrameContent):
		d.open = true
		if value == "" {
			value = "\n"
		}
		return Frame{Type: FrameContent, Content: value}, nil

	case string(FrameSources):
		var sources []domain.Source
		if err := json.Unmarshal([]byte(value), &sources); err != nil {
			return Frame{}, &MalformedFrameError{Raw: line, Reason: "sources data is not a list"}
		}
		return Frame{Type: FrameSources, Sources: sources}, nil

	case string(FrameError):
		return Frame{Type: FrameError, Error: value}, nil

	default:
		return Frame{}, &MalformedFrameError{Raw: line, Reason: "unknown event " + d.event}
	}
}

// splitField parses "name: value", dropping the single optional space after the colon
func splitField(line string) (string, string) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return name, strings.TrimPrefix(value, " ")
}
