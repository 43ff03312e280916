package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/answer"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/stream"
)

// FailureMessage is appended as the assistant reply when neither the stream nor
// the fallback request produced an answer
const FailureMessage = "Sorry, I couldn't reach the admission assistant right now. Please try again in a moment."

const feedbackTimeout = 10 * time.Second

var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrCancelled       = errors.New("chat request was cancelled")
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidFeedback = errors.New("feedback must be like or dislike")
)

// State is the phase of the pending request
type State string

const (
	StateIdle      State = "idle"
	StateSending   State = "sending"
	StateStreaming State = "streaming"
	StateSettled   State = "settled"
	StateFailed    State = "failed"
)

// Sessions is the part of the session repository the controller drives
type Sessions interface {
	EnsureSession(ctx context.Context) domain.ChatSession
	CreateSession(ctx context.Context) domain.ChatSession
	SwitchSession(ctx context.Context, id string) bool
	DeleteSession(ctx context.Context, id string) bool
	AddMessage(ctx context.Context, m domain.NewMessage) (domain.Message, bool)
	UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, bool)
	ActiveSession() (domain.ChatSession, bool)
	ActiveSessionID() (string, bool)
}

// Observer follows the progress of one Send. Callbacks run synchronously while
// the controller holds its lock, so they must not call back into the Controller.
type Observer struct {
	OnState   func(State)
	OnDelta   func(text string)
	OnSources func(sources []domain.Source)
	// OnMessage receives every version of a message as it is appended or patched
	OnMessage func(domain.Message)
}

// Result is the outcome of a settled or failed request
type Result struct {
	SessionID string         `json:"sessionId"`
	Question  domain.Message `json:"question"`
	Reply     domain.Message `json:"reply"`
	State     State          `json:"state"`
	Fallback  bool           `json:"fallback"`
}

// request is one Send; its fields are guarded by Controller.mu
type request struct {
	ctx       context.Context
	cancel    context.CancelFunc
	sessionID string
	obs       Observer

	replyID string
	content strings.Builder
	sources []domain.Source
}

// Controller turns a question into a user message plus an assistant reply in the active session
type Controller struct {
	mu       sync.Mutex
	sessions Sessions
	answers  answer.Service
	current  *request
	state    State

	feedback sync.WaitGroup
}

// NewController creates a chat controller
func NewController(sessions Sessions, answers answer.Service) *Controller {
	return &Controller{
		sessions: sessions,
		answers:  answers,
		state:    StateIdle,
	}
}

// State returns the phase of the in-flight request, or Idle
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send asks question in the active session, creating a session when there is none.
// A request already in flight is cancelled first. The reply is streamed; when the
// stream yields no content a single non-streaming request is made instead.
func (c *Controller) Send(ctx context.Context, question string, obs Observer) (*Result, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	c.mu.Lock()
	c.cancelLocked()
	sess := c.sessions.EnsureSession(ctx)
	reqCtx, cancel := context.WithCancel(ctx)
	req := &request{ctx: reqCtx, cancel: cancel, sessionID: sess.ID, obs: obs}
	c.current = req

	userMsg, ok := c.sessions.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: question})
	if !ok {
		c.retireLocked(req)
		c.mu.Unlock()
		return nil, ErrCancelled
	}
	c.setStateLocked(req, StateSending)
	c.emitMessage(req, userMsg)
	c.mu.Unlock()

	defer c.finish(req)

	streamErr := c.answers.Stream(reqCtx, q, stream.Handler{
		OnContent: func(text string) { c.appendContent(req, text) },
		OnSources: func(sources []domain.Source) { c.attachSources(req, sources) },
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.liveLocked(req) {
		return nil, ErrCancelled
	}

	result := &Result{SessionID: req.sessionID, Question: userMsg}

	if req.replyID != "" {
		if streamErr != nil {
			log.Warn().Err(streamErr).Str("session_id", req.sessionID).Msg("Answer stream ended early, keeping partial reply")
		}
		reply, _ := c.activeMessage(req.replyID)
		result.Reply = reply
		result.State = StateSettled
		c.setStateLocked(req, StateSettled)
		return result, nil
	}

	if streamErr != nil {
		log.Warn().Err(streamErr).Str("session_id", req.sessionID).Msg("Answer stream failed, falling back")
	} else {
		log.Warn().Str("session_id", req.sessionID).Msg("Answer stream closed without content, falling back")
	}
	result.Fallback = true

	// the network call must not hold the lock
	c.mu.Unlock()
	ans, askErr := c.answers.Ask(reqCtx, q)
	c.mu.Lock()

	if !c.liveLocked(req) {
		return nil, ErrCancelled
	}

	reply := domain.NewMessage{Role: domain.RoleAssistant}
	state := StateSettled
	if askErr != nil {
		log.Error().Err(askErr).Str("session_id", req.sessionID).Msg("Fallback request failed")
		reply.Content = FailureMessage
		state = StateFailed
	} else {
		reply.Content = ans.Answer
		reply.Sources = ans.Sources
	}

	msg, ok := c.sessions.AddMessage(reqCtx, reply)
	if !ok {
		return nil, ErrCancelled
	}
	c.emitMessage(req, msg)
	if len(msg.Sources) > 0 && req.obs.OnSources != nil {
		req.obs.OnSources(domain.UniqueSources(msg.Sources))
	}

	result.Reply = msg
	result.State = state
	c.setStateLocked(req, state)
	return result, nil
}

func (c *Controller) appendContent(req *request, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.liveLocked(req) {
		return
	}
	if c.state != StateStreaming {
		c.setStateLocked(req, StateStreaming)
	}
	req.content.WriteString(text)

	var msg domain.Message
	var ok bool
	if req.replyID == "" {
		msg, ok = c.sessions.AddMessage(req.ctx, domain.NewMessage{
			Role:    domain.RoleAssistant,
			Content: req.content.String(),
			Sources: req.sources,
		})
		if ok {
			req.replyID = msg.ID
		}
	} else {
		content := req.content.String()
		msg, ok = c.sessions.UpdateMessage(req.ctx, req.replyID, domain.MessagePatch{Content: &content})
	}
	if !ok {
		return
	}

	if req.obs.OnDelta != nil {
		req.obs.OnDelta(text)
	}
	c.emitMessage(req, msg)
}

func (c *Controller) attachSources(req *request, sources []domain.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.liveLocked(req) {
		return
	}
	req.sources = append([]domain.Source(nil), sources...)

	if req.replyID != "" {
		msg, ok := c.sessions.UpdateMessage(req.ctx, req.replyID, domain.MessagePatch{Sources: req.sources})
		if ok {
			c.emitMessage(req, msg)
		}
	}
	if req.obs.OnSources != nil {
		req.obs.OnSources(domain.UniqueSources(sources))
	}
}

// liveLocked reports whether req may still mutate state: it is the current request,
// it has not been cancelled and its session is still the active one
func (c *Controller) liveLocked(req *request) bool {
	if c.current != req || req.ctx.Err() != nil {
		return false
	}
	active, ok := c.sessions.ActiveSessionID()
	return ok && active == req.sessionID
}

func (c *Controller) setStateLocked(req *request, s State) {
	c.state = s
	if req.obs.OnState != nil {
		req.obs.OnState(s)
	}
}

func (c *Controller) emitMessage(req *request, msg domain.Message) {
	if req.obs.OnMessage != nil {
		req.obs.OnMessage(msg)
	}
}

func (c *Controller) activeMessage(id string) (domain.Message, bool) {
	sess, ok := c.sessions.ActiveSession()
	if !ok {
		return domain.Message{}, false
	}
	idx := sess.FindMessage(id)
	if idx < 0 {
		return domain.Message{}, false
	}
	return sess.Messages[idx], true
}

// finish releases the request and returns the machine to Idle if nothing replaced it
func (c *Controller) finish(req *request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.cancel()
	if c.current == req {
		c.retireLocked(req)
		if req.obs.OnState != nil {
			req.obs.OnState(StateIdle)
		}
	}
}

func (c *Controller) retireLocked(req *request) {
	req.cancel()
	if c.current == req {
		c.current = nil
		c.state = StateIdle
	}
}

// cancelLocked retires whatever request is in flight
func (c *Controller) cancelLocked() {
	if c.current != nil {
		log.Debug().Str("session_id", c.current.sessionID).Msg("Cancelling in-flight chat request")
		c.retireLocked(c.current)
	}
}

// Cancel stops the in-flight request, if any
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// CreateSession cancels any in-flight request and starts a new active session
func (c *Controller) CreateSession(ctx context.Context) domain.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	return c.sessions.CreateSession(ctx)
}

// SwitchSession cancels any in-flight request and activates id
func (c *Controller) SwitchSession(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	return c.sessions.SwitchSession(ctx, id)
}

// DeleteSession cancels any in-flight request and removes id
func (c *Controller) DeleteSession(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	return c.sessions.DeleteSession(ctx, id)
}

// Feedback records a rating on a message of the active session and reports it to
// the answer service in the background. Submission failures are only logged.
func (c *Controller) Feedback(ctx context.Context, messageID string, ft domain.FeedbackType) (domain.Message, error) {
	if !ft.IsValid() {
		return domain.Message{}, ErrInvalidFeedback
	}

	c.mu.Lock()
	msg, ok := c.sessions.UpdateMessage(ctx, messageID, domain.MessagePatch{Feedback: &ft})
	var question string
	if ok {
		question = c.precedingQuestion(messageID)
	}
	c.mu.Unlock()

	if !ok {
		return domain.Message{}, ErrMessageNotFound
	}

	fb := answer.Feedback{
		MessageID:    msg.ID,
		FeedbackType: ft,
		Question:     question,
		Answer:       msg.Content,
	}

	c.feedback.Add(1)
	go func() {
		defer c.feedback.Done()

		submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), feedbackTimeout)
		defer cancel()

		if err := c.answers.SubmitFeedback(submitCtx, fb); err != nil {
			log.Error().Err(err).Str("message_id", fb.MessageID).Msg("Failed to submit feedback")
		}
	}()

	return msg, nil
}

// precedingQuestion finds the nearest user message before messageID
func (c *Controller) precedingQuestion(messageID string) string {
	sess, ok := c.sessions.ActiveSession()
	if !ok {
		return ""
	}
	for i := sess.FindMessage(messageID) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == domain.RoleUser {
			return sess.Messages[i].Content
		}
	}
	return ""
}

// Wait blocks until background feedback submissions have finished
func (c *Controller) Wait() {
	c.feedback.Wait()
}
