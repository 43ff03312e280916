package domain

import (
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// FeedbackType is a user's rating of an assistant message
type FeedbackType string

const (
	FeedbackLike    FeedbackType = "like"
	FeedbackDislike FeedbackType = "dislike"
)

// IsValid reports whether f is a known feedback value
func (f FeedbackType) IsValid() bool {
	switch f {
	case FeedbackLike, FeedbackDislike:
		return true
	default:
		return false
	}
}

// Source is a retrieved document excerpt attached to an answer
type Source struct {
	Category string `json:"category"`
	Filename string `json:"filename"`
	Snippet  string `json:"snippet"`
}

// Message represents a chat message in a session
type Message struct {
	ID        string        `json:"id"`
	Role      MessageRole   `json:"role"`
	Content   string        `json:"content"`
	Sources   []Source      `json:"sources,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Feedback  *FeedbackType `json:"feedback,omitempty"`
}

// Clone returns a deep copy of the message
func (m Message) Clone() Message {
	out := m
	if m.Sources != nil {
		out.Sources = append([]Source(nil), m.Sources...)
	}
	if m.Feedback != nil {
		f := *m.Feedback
		out.Feedback = &f
	}
	return out
}

// NewMessage is the caller-supplied part of a message; ID and CreatedAt are assigned on insert
type NewMessage struct {
	Role    MessageRole
	Content string
	Sources []Source
}

// MessagePatch lists the fields to overwrite on an existing message. Nil fields are left unchanged.
type MessagePatch struct {
	Content  *string
	Sources  []Source
	Feedback *FeedbackType
}

// Apply merges the patch into m
func (p MessagePatch) Apply(m *Message) {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Sources != nil {
		m.Sources = append([]Source(nil), p.Sources...)
	}
	if p.Feedback != nil {
		f := *p.Feedback
		m.Feedback = &f
	}
}

// UniqueSources drops sources whose filename was already seen, keeping first occurrences in order.
// Stored messages keep duplicates; this is applied when presenting them.
func UniqueSources(sources []Source) []Source {
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.Filename]; ok {
			continue
		}
		seen[s.Filename] = struct{}{}
		out = append(out, s)
	}
	return out
}
