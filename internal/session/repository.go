package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/store"
)

// ErrSessionNotFound is returned by callers that need an error for a missing session
var ErrSessionNotFound = errors.New("session not found")

const (
	titleWords    = 5
	titleMaxRunes = 50
)

// Repository owns the list of chat sessions and the active session reference.
// Every mutation is written through to the store before the call returns.
type Repository struct {
	mu    sync.Mutex
	store *store.Adapter[domain.SessionState]
	state domain.SessionState

	now   func() time.Time
	newID func() string
}

// NewRepository loads the persisted state, falling back to an empty one
func NewRepository(ctx context.Context, s *store.Adapter[domain.SessionState]) *Repository {
	r := &Repository{
		store: s,
		now:   time.Now,
		newID: newID,
	}
	r.state = normalize(s.Load(ctx))
	return r
}

// newID returns a time-ordered identifier with a random tail
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func normalize(st domain.SessionState) domain.SessionState {
	if st.Sessions == nil {
		st.Sessions = []domain.ChatSession{}
	}
	return st
}

// persist must be called with mu held
func (r *Repository) persist(ctx context.Context) {
	r.store.Save(ctx, r.state)
}

// CreateSession inserts an empty session at the head of the list and activates it
func (r *Repository) CreateSession(ctx context.Context) domain.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	s := domain.ChatSession{
		ID:        r.newID(),
		Title:     domain.DefaultSessionTitle,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.state.Sessions = append([]domain.ChatSession{s}, r.state.Sessions...)
	id := s.ID
	r.state.ActiveSessionID = &id
	r.persist(ctx)

	return s.Clone()
}

// EnsureSession returns the active session, creating one when there is none
func (r *Repository) EnsureSession(ctx context.Context) domain.ChatSession {
	if s, ok := r.ActiveSession(); ok {
		return s
	}
	return r.CreateSession(ctx)
}

// SwitchSession activates id if it exists; otherwise nothing changes
func (r *Repository) SwitchSession(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Find(id) < 0 {
		return false
	}
	r.state.ActiveSessionID = &id
	r.persist(ctx)
	return true
}

// AddMessage appends a message to the active session, assigning its ID and timestamp.
// The first user message of a session that still has the default title names the session.
func (r *Repository) AddMessage(ctx context.Context, m domain.NewMessage) (domain.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.ActiveIndex()
	if idx < 0 {
		return domain.Message{}, false
	}
	s := &r.state.Sessions[idx]

	now := r.now()
	msg := domain.Message{
		ID:        r.newID(),
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: now,
	}
	if m.Sources != nil {
		msg.Sources = append([]domain.Source(nil), m.Sources...)
	}

	if m.Role == domain.RoleUser && !hasUserMessage(*s) && s.Title == domain.DefaultSessionTitle {
		s.Title = GenerateTitle(m.Content)
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = now
	r.persist(ctx)

	return msg.Clone(), true
}

func hasUserMessage(s domain.ChatSession) bool {
	for _, m := range s.Messages {
		if m.Role == domain.RoleUser {
			return true
		}
	}
	return false
}

// UpdateMessage merges patch into message id of the active session
func (r *Repository) UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.ActiveIndex()
	if idx < 0 {
		return domain.Message{}, false
	}
	s := &r.state.Sessions[idx]

	mi := s.FindMessage(id)
	if mi < 0 {
		return domain.Message{}, false
	}

	patch.Apply(&s.Messages[mi])
	s.UpdatedAt = r.now()
	r.persist(ctx)

	return s.Messages[mi].Clone(), true
}

// DeleteSession removes a session. Deleting the active session activates the
// first remaining one, or leaves no session active when the list is empty.
func (r *Repository) DeleteSession(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.Find(id)
	if idx < 0 {
		return false
	}

	wasActive := r.state.ActiveSessionID != nil && *r.state.ActiveSessionID == id
	r.state.Sessions = append(r.state.Sessions[:idx:idx], r.state.Sessions[idx+1:]...)

	if wasActive {
		if len(r.state.Sessions) > 0 {
			next := r.state.Sessions[0].ID
			r.state.ActiveSessionID = &next
		} else {
			r.state.ActiveSessionID = nil
		}
	}
	r.persist(ctx)
	return true
}

// RenameSession sets the title of any session, active or not
func (r *Repository) RenameSession(ctx context.Context, id, title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.Find(id)
	if idx < 0 {
		return false
	}
	r.state.Sessions[idx].Title = title
	r.state.Sessions[idx].UpdatedAt = r.now()
	r.persist(ctx)
	return true
}

// Sessions returns every session, newest first
func (r *Repository) Sessions() []domain.ChatSession {
	return r.State().Sessions
}

// State returns a copy of the whole persisted record
func (r *Repository) State() domain.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Session looks up a session by ID
func (r *Repository) Session(id string) (domain.ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.Find(id)
	if idx < 0 {
		return domain.ChatSession{}, false
	}
	return r.state.Sessions[idx].Clone(), true
}

// ActiveSession returns the active session, if the reference resolves
func (r *Repository) ActiveSession() (domain.ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.ActiveIndex()
	if idx < 0 {
		return domain.ChatSession{}, false
	}
	return r.state.Sessions[idx].Clone(), true
}

// ActiveSessionID returns the active session ID when it names an existing session
func (r *Repository) ActiveSessionID() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.state.ActiveIndex()
	if idx < 0 {
		return "", false
	}
	return r.state.Sessions[idx].ID, true
}

// Reload replaces the in-memory state with what is currently stored
func (r *Repository) Reload(ctx context.Context) {
	st := normalize(r.store.Load(ctx))

	r.mu.Lock()
	r.state = st
	r.mu.Unlock()
}

// Watch keeps the repository in step with writes made by other processes until ctx is done
func (r *Repository) Watch(ctx context.Context) error {
	return r.store.Watch(ctx, func(st domain.SessionState) {
		r.mu.Lock()
		r.state = normalize(st)
		r.mu.Unlock()
	})
}

// GenerateTitle builds a session title from the first words of a message,
// truncated with "..." when it runs past the length cap.
func GenerateTitle(firstMessage string) string {
	words := strings.Split(firstMessage, " ")
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	title := strings.Join(words, " ")

	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return title
}
