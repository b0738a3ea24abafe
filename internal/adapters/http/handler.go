package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/adapters/assistant"
	"github.com/PabloGalante/farmdash/internal/app/advisor"
	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
	"github.com/PabloGalante/farmdash/internal/observability"
)

const maxRequestBytes = 1 << 20

type Server struct {
	conv    *conversation.Service
	advisor *advisor.Service
	weather domain.WeatherSource
}

// NewServer wires the routes. Any dependency may be nil; its routes then
// answer 404.
func NewServer(conv *conversation.Service, adv *advisor.Service, weather domain.WeatherSource) http.Handler {
	s := &Server{conv: conv, advisor: adv, weather: weather}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	if adv != nil {
		// assistant backend consumed by the conversation gateway
		mux.HandleFunc("/api/chat", s.handleChat)
	}
	if weather != nil {
		mux.HandleFunc("/api/weather", s.handleWeather)
	}
	if conv != nil {
		// /sessions → create session (POST)
		mux.HandleFunc("/sessions", s.handleSessions)
		// /sessions/{id}            → GET state, DELETE end
		// /sessions/{id}/messages   → POST submit turn
		// /sessions/{id}/attachment → POST stage attachment
		mux.HandleFunc("/sessions/", s.handleSessionWithID)
	}

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	Locale string `json:"locale,omitempty"`
}

type attachmentDTO struct {
	Kind        string `json:"kind"`
	Reference   string `json:"reference"`
	DisplayName string `json:"display_name"`
}

type messageResponse struct {
	ID          string          `json:"id"`
	Sender      string          `json:"sender"`
	Content     string          `json:"content"`
	CreatedAt   time.Time       `json:"created_at"`
	Attachments []attachmentDTO `json:"attachments,omitempty"`
}

type sessionResponse struct {
	ID       string            `json:"id"`
	Locale   string            `json:"locale"`
	Pending  bool              `json:"pending"`
	Staged   *attachmentDTO    `json:"staged_attachment,omitempty"`
	Messages []messageResponse `json:"messages"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
	Session          sessionResponse `json:"session"`
}

// ─────────────────────────────────────────────
// Assistant backend and weather proxy
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req assistant.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = i18n.Negotiate(r.Header.Get("Accept-Language"))
	}

	in := advisor.AnswerInput{
		Message: req.Message,
		History: req.History,
		Locale:  locale,
	}
	if req.Attachment != nil {
		in.Attachment = &domain.Attachment{
			Kind:        domain.AttachmentKind(req.Attachment.Kind),
			DisplayName: req.Attachment.Name,
		}
	}

	out, err := s.advisor.Answer(r.Context(), in)
	if err != nil {
		if errors.Is(err, advisor.ErrEmptyMessage) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}

	text := out.Text
	writeJSON(w, http.StatusOK, assistant.ChatResponse{
		Response:  &text,
		Timestamp: assistant.NewTimestamp(out.Timestamp),
	})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	body, err := s.weather.FetchForecast(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("weather API proxy error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch weather data",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ─────────────────────────────────────────────
// Conversation relay
// ─────────────────────────────────────────────

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}, /sessions/{id}/messages, /sessions/{id}/attachment
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")
	id := domain.SessionID(parts[0])

	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, id)
		case http.MethodDelete:
			s.handleEndSession(w, r, id)
		default:
			methodNotAllowed(w)
		}
	case len(parts) == 2 && parts[1] == "messages":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSendMessage(w, r, id)
	case len(parts) == 2 && parts[1] == "attachment":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleStageAttachment(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// the body is optional
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON body")
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = i18n.Negotiate(r.Header.Get("Accept-Language"))
	}

	out, err := s.conv.StartSession(r.Context(), conversation.StartSessionInput{Locale: locale})
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(out.Session, out.Session.Store().State()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	session, st, err := s.conv.GetSessionTimeline(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session, st))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	if err := s.conv.EndSession(r.Context(), id); err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.conv.SendMessage(r.Context(), conversation.SendMessageInput{
		SessionID: id,
		Text:      req.Text,
	})
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}

	session, err := s.conv.GetSession(id)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}

	// a failed exchange is still a completed turn: 200 with the apology
	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
		Session:          toSessionResponse(session, out.State),
	})
}

func (s *Server) handleStageAttachment(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	var req attachmentDTO
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	a, err := conversation.DescribeFile(req.Reference)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.DisplayName != "" {
		a.DisplayName = req.DisplayName
	}

	st, err := s.conv.StageAttachment(r.Context(), id, a)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}

	session, err := s.conv.GetSession(id)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session, st))
}

func (s *Server) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrStoreClosed):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, domain.ErrEmptySubmission):
		badRequest(w, "text or attachment is required")
	case errors.Is(err, domain.ErrTurnPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a message is already being sent"})
	default:
		internalError(w, r, err)
	}
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toAttachmentDTO(a domain.Attachment) attachmentDTO {
	return attachmentDTO{
		Kind:        string(a.Kind),
		Reference:   a.Reference,
		DisplayName: a.DisplayName,
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	out := messageResponse{
		ID:        string(m.ID),
		Sender:    string(m.Sender),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	for _, a := range m.Attachments {
		out.Attachments = append(out.Attachments, toAttachmentDTO(a))
	}
	return out
}

func toSessionResponse(session *conversation.Session, st conversation.State) sessionResponse {
	history := st.History()
	out := sessionResponse{
		ID:       string(session.ID),
		Locale:   session.Locale,
		Pending:  st.Pending(),
		Messages: make([]messageResponse, 0, len(history)),
	}
	if a, ok := st.Staged(); ok {
		dto := toAttachmentDTO(a)
		out.Staged = &dto
	}
	for _, m := range history {
		out.Messages = append(out.Messages, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
