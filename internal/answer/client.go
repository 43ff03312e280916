package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/config"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/stream"
)

// Answer is a complete reply from the answer service
type Answer struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

// Feedback is the rating payload the answer service records
type Feedback struct {
	MessageID    string              `json:"messageId"`
	FeedbackType domain.FeedbackType `json:"feedbackType"`
	Question     string              `json:"question"`
	Answer       string              `json:"answer"`
}

// Service is what the chat controller needs from the answer service
type Service interface {
	Ask(ctx context.Context, question string) (*Answer, error)
	Stream(ctx context.Context, question string, h stream.Handler) error
	SubmitFeedback(ctx context.Context, fb Feedback) error
}

// Client talks to the retrieval-augmented answer service over HTTP
type Client struct {
	baseURL      string
	chatPath     string
	feedbackPath string
	client       *http.Client
	consumer     *stream.Consumer
}

// NewClient creates a client from configuration
func NewClient(cfg config.AnswerConfig) (*Client, error) {
	framing, err := stream.ParseFraming(cfg.Framing)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:      baseURL,
		chatPath:     cfg.ChatPath,
		feedbackPath: cfg.FeedbackPath,
		client:       &http.Client{Timeout: timeout},
		// streams run as long as the answer takes; only the context ends them
		consumer: stream.NewConsumer(&http.Client{}, baseURL+cfg.StreamPath, framing),
	}, nil
}

// Framing returns the stream wire format in use
func (c *Client) Framing() stream.Framing {
	return c.consumer.Framing()
}

// Ask sends a question and waits for the full answer
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	resp, err := c.post(ctx, c.chatPath, stream.Request{Question: question})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("answer service returned status %d", resp.StatusCode)
	}

	if isNDJSON(resp.Header.Get("Content-Type")) {
		return foldNDJSON(resp.Body)
	}

	var ans Answer
	if err := json.NewDecoder(resp.Body).Decode(&ans); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ans, nil
}

// Stream sends a question to the streaming endpoint and delivers frames to h
func (c *Client) Stream(ctx context.Context, question string, h stream.Handler) error {
	return c.consumer.Consume(ctx, stream.Request{Question: question}, h)
}

// SubmitFeedback records a like or dislike with the answer service
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) error {
	resp, err := c.post(ctx, c.feedbackPath, fb)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("answer service returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func isNDJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/x-ndjson"
}

// foldNDJSON collects a streamed reply into one answer. The last sources frame wins.
func foldNDJSON(r io.Reader) (*Answer, error) {
	dec := stream.NewDecoder(stream.FramingNDJSON, r)
	ans := &Answer{}
	var text strings.Builder

	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var malformed *stream.MalformedFrameError
			if errors.As(err, &malformed) {
				log.Warn().Str("raw", malformed.Raw).Msg("Failed to parse chunk")
				continue
			}
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		switch frame.Type {
		case stream.FrameContent:
			text.WriteString(frame.Content)
		case stream.FrameSources:
			ans.Sources = frame.Sources
		case stream.FrameError:
			log.Error().Str("error", frame.Error).Msg("Stream error")
		}
	}

	ans.Answer = text.String()
	return ans, nil
}
