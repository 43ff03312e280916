package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Rrens/admission-chat/internal/api/response"
	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/session"
)

// SessionHandler serves the chat history. Mutations that retarget the active
// session go through the controller so an in-flight answer is cancelled first.
type SessionHandler struct {
	sessions   *session.Repository
	controller *chat.Controller
}

func NewSessionHandler(sessions *session.Repository, controller *chat.Controller) *SessionHandler {
	return &SessionHandler{sessions: sessions, controller: controller}
}

type sessionList struct {
	Sessions        []domain.ChatSession `json:"sessions"`
	ActiveSessionID *string              `json:"activeSessionId"`
}

type renameRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// List returns every session, newest first, with the active session ID
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.State()

	out := sessionList{Sessions: make([]domain.ChatSession, 0, len(st.Sessions))}
	for _, s := range st.Sessions {
		out.Sessions = append(out.Sessions, present(s))
	}
	if idx := st.ActiveIndex(); idx >= 0 {
		id := st.Sessions[idx].ID
		out.ActiveSessionID = &id
	}

	response.OK(w, out)
}

// Create starts a new empty session and makes it active
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.controller.CreateSession(r.Context())
	response.Created(w, present(s))
}

// Get returns one session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Session(chi.URLParam(r, "sessionID"))
	if !ok {
		response.NotFound(w, session.ErrSessionNotFound.Error())
		return
	}
	response.OK(w, present(s))
}

// Rename sets a session title
func (h *SessionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		response.BadRequest(w, map[string]string{"Title": "field is required"})
		return
	}

	id := chi.URLParam(r, "sessionID")
	if !h.sessions.RenameSession(r.Context(), id, title) {
		response.NotFound(w, session.ErrSessionNotFound.Error())
		return
	}

	s, _ := h.sessions.Session(id)
	response.OK(w, present(s))
}

// Delete removes a session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.controller.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")) {
		response.NotFound(w, session.ErrSessionNotFound.Error())
		return
	}
	response.NoContent(w)
}

// Activate makes a session the active one
func (h *SessionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.controller.SwitchSession(r.Context(), id) {
		response.NotFound(w, session.ErrSessionNotFound.Error())
		return
	}

	s, _ := h.sessions.Session(id)
	response.OK(w, present(s))
}

// present drops repeated source filenames from every message
func present(s domain.ChatSession) domain.ChatSession {
	for i := range s.Messages {
		if len(s.Messages[i].Sources) > 0 {
			s.Messages[i].Sources = domain.UniqueSources(s.Messages[i].Sources)
		}
	}
	return s
}
