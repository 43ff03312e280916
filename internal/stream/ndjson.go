package stream

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/Rrens/admission-chat/internal/domain"
)

type ndjsonFrame struct {
	Type FrameType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ndjsonDecoder struct {
	lines *lineReader
}

func newNDJSONDecoder(r io.Reader) *ndjsonDecoder {
	return &ndjsonDecoder{lines: newLineReader(r)}
}

func (d *ndjsonDecoder) Next() (Frame, error) {
	for {
		line, err := d.lines.next()
		if err != nil {
			return Frame{}, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return decodeNDJSONLine(line)
	}
}

func decodeNDJSONLine(line string) (Frame, error) {
	var raw ndjsonFrame
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Frame{}, &MalformedFrameError{Raw: line, Reason: "invalid json"}
	}

	switch raw.Type {
	case FrameContent:
		var text string
		if err := json.Unmarshal(raw.Data, &text); err != nil {
			return Frame{}, &MalformedFrameError{Raw: line, Reason: "content data is not a string"}
		}
		return Frame{Type: FrameContent, Content: text}, nil

	case FrameSources:
		var sources []domain.Source
		if err := json.Unmarshal(raw.Data, &sources); err != nil {
			return Frame{}, &MalformedFrameError{Raw: line, Reason: "sources data is not a list"}
		}
		return Frame{Type: FrameSources, Sources: sources}, nil

	case FrameError:
		return Frame{Type: FrameError, Error: errorText(raw.Data)}, nil

	default:
		return Frame{}, &MalformedFrameError{Raw: line, Reason: "unknown frame type"}
	}
}

// errorText accepts either a JSON string or any other JSON value as the error payload
func errorText(data json.RawMessage) string {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text
	}
	return string(data)
}
