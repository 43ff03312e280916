package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/domain"
)

// ErrUnavailable means the stream could not be opened: the request failed or the
// service answered with a non-2xx status before any of the body was read.
// Callers fall back to a non-streaming request on this error.
var ErrUnavailable = errors.New("answer stream unavailable")

// Request is the body posted to the stream endpoint
type Request struct {
	Question string `json:"question"`
}

// Handler receives decoded frames in arrival order. Nil callbacks are skipped.
type Handler struct {
	OnContent func(text string)
	OnSources func(sources []domain.Source)
	OnError   func(message string)
}

// Consumer opens streaming requests against the answer service
type Consumer struct {
	client  *http.Client
	url     string
	framing Framing
}

// NewConsumer creates a consumer for url. The client should not set a Timeout,
// which would cut long answers off; cancellation comes from the context instead.
func NewConsumer(client *http.Client, url string, framing Framing) *Consumer {
	if client == nil {
		client = &http.Client{}
	}
	return &Consumer{client: client, url: url, framing: framing}
}

// Framing returns the wire format this consumer decodes
func (c *Consumer) Framing() Framing {
	return c.framing
}

// Consume posts req and feeds every frame of the reply to h until the body ends.
// It returns nil when the connection closes normally and ctx.Err() when cancelled.
// Malformed frames and server error frames are logged and do not stop the stream.
func (c *Consumer) Consume(ctx context.Context, req Request, h Handler) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", c.framing.ContentType())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: answer service returned status %d", ErrUnavailable, resp.StatusCode)
	}

	dec := NewDecoder(c.framing, resp.Body)
	frames := 0
	for {
		frame, err := dec.Next()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			var malformed *MalformedFrameError
			if errors.As(err, &malformed) {
				log.Warn().Str("framing", string(c.framing)).Str("reason", malformed.Reason).
					Str("raw", malformed.Raw).Msg("Failed to parse chunk")
				continue
			}
			if errors.Is(err, io.EOF) {
				log.Debug().Int("frames", frames).Msg("Answer stream closed")
				return nil
			}
			return fmt.Errorf("failed to read answer stream: %w", err)
		}

		frames++
		dispatch(frame, h)
	}
}

func dispatch(f Frame, h Handler) {
	switch f.Type {
	case FrameContent:
		if f.Content != "" && h.OnContent != nil {
			h.OnContent(f.Content)
		}
	case FrameSources:
		if h.OnSources != nil {
			h.OnSources(f.Sources)
		}
	case FrameError:
		log.Error().Str("error", f.Error).Msg("Stream error")
		if h.OnError != nil {
			h.OnError(f.Error)
		}
	}
}
