package domain

import (
	"time"
)

// DefaultSessionTitle is the title of a session before its first user message
const DefaultSessionTitle = "New Chat"

// ChatSession represents one persisted conversation thread
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the session
func (s ChatSession) Clone() ChatSession {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}

// FindMessage returns the index of the message with the given ID, or -1
func (s ChatSession) FindMessage(id string) int {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// SessionState is the durable record holding every session and the active one.
// ActiveSessionID is a weak reference: it may name a session that no longer exists.
type SessionState struct {
	Sessions        []ChatSession `json:"sessions"`
	ActiveSessionID *string       `json:"activeSessionId"`
}

// EmptySessionState returns the state used when nothing has been stored yet
func EmptySessionState() SessionState {
	return SessionState{Sessions: []ChatSession{}}
}

// Clone returns a deep copy of the state
func (st SessionState) Clone() SessionState {
	out := SessionState{Sessions: make([]ChatSession, len(st.Sessions))}
	for i, s := range st.Sessions {
		out.Sessions[i] = s.Clone()
	}
	if st.ActiveSessionID != nil {
		id := *st.ActiveSessionID
		out.ActiveSessionID = &id
	}
	return out
}

// Find returns the index of the session with the given ID, or -1
func (st SessionState) Find(id string) int {
	for i := range st.Sessions {
		if st.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// ActiveIndex resolves the active session reference, returning -1 when it is unset or dangling
func (st SessionState) ActiveIndex() int {
	if st.ActiveSessionID == nil {
		return -1
	}
	return st.Find(*st.ActiveSessionID)
}
