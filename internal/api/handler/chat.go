package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/api/response"
	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/domain"
)

// ChatHandler handles questions and feedback
type ChatHandler struct {
	controller *chat.Controller
}

// NewChatHandler creates a new chat handler
func NewChatHandler(controller *chat.Controller) *ChatHandler {
	return &ChatHandler{controller: controller}
}

type sendRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

type feedbackRequest struct {
	FeedbackType domain.FeedbackType `json:"feedbackType" validate:"required,oneof=like dislike"`
}

// Send asks a question in the active session. With Accept: text/event-stream the
// reply is re-streamed as server-sent events while it arrives.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decode(w, r, &req) {
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.sendStream(w, r, req.Question)
		return
	}

	result, err := h.controller.Send(r.Context(), req.Question, chat.Observer{})
	if err != nil {
		writeSendError(w, err)
		return
	}
	result.Reply.Sources = domain.UniqueSources(result.Reply.Sources)
	response.OK(w, result)
}

func writeSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyQuestion):
		response.BadRequest(w, err.Error())
	case errors.Is(err, chat.ErrCancelled):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}

func (h *ChatHandler) sendStream(w http.ResponseWriter, r *http.Request, question string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		flusher.Flush()
	}

	result, err := h.controller.Send(r.Context(), question, chat.Observer{
		OnState:   func(s chat.State) { send("state", map[string]chat.State{"state": s}) },
		OnDelta:   func(text string) { send("delta", map[string]string{"text": text}) },
		OnSources: func(sources []domain.Source) { send("sources", sources) },
		OnMessage: func(m domain.Message) { send("message", m) },
	})
	if err != nil {
		send("error", map[string]string{"error": err.Error()})
		return
	}

	result.Reply.Sources = domain.UniqueSources(result.Reply.Sources)
	send("done", result)
}

// State reports the phase of the in-flight request
func (h *ChatHandler) State(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]chat.State{"state": h.controller.State()})
}

// Feedback rates an assistant message
func (h *ChatHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.controller.Feedback(r.Context(), chi.URLParam(r, "messageID"), req.FeedbackType)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMessageNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, chat.ErrInvalidFeedback):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.OK(w, msg)
}
