package stream

import (
	"fmt"
	"io"

	"github.com/Rrens/admission-chat/internal/domain"
)

// Framing names the wire format the answer service streams in.
// The two formats are not interchangeable; a deployment picks one.
type Framing string

const (
	// FramingNDJSON is one JSON object {"type": ..., "data": ...} per line
	FramingNDJSON Framing = "ndjson"
	// FramingSSE is Server-Sent-Event lines, "data: <fragment>"
	FramingSSE Framing = "sse"
)

// ParseFraming validates a configured framing name
func ParseFraming(s string) (Framing, error) {
	switch Framing(s) {
	case FramingNDJSON, FramingSSE:
		return Framing(s), nil
	default:
		return "", fmt.Errorf("unknown stream framing %q (want %q or %q)", s, FramingNDJSON, FramingSSE)
	}
}

// ContentType is the media type the answer service uses for this framing
func (f Framing) ContentType() string {
	if f == FramingSSE {
		return "text/event-stream"
	}
	return "application/x-ndjson"
}

// FrameType is the kind of a decoded frame
type FrameType string

const (
	FrameContent FrameType = "content"
	FrameSources FrameType = "sources"
	FrameError   FrameType = "error"
)

// Frame is one unit of a streamed answer
type Frame struct {
	Type    FrameType
	Content string
	Sources []domain.Source
	Error   string
}

// MalformedFrameError reports a frame that could not be decoded. The stream
// itself is still usable and the next call to Next continues after it.
type MalformedFrameError struct {
	Raw    string
	Reason string
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame (%s): %q", e.Reason, e.Raw)
}

// Decoder reads frames from a response body. Next returns io.EOF after the last frame.
type Decoder interface {
	Next() (Frame, error)
}

// NewDecoder returns the decoder for a framing
func NewDecoder(f Framing, r io.Reader) Decoder {
	if f == FramingSSE {
		return newSSEDecoder(r)
	}
	return newNDJSONDecoder(r)
}
