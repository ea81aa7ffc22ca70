package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopchat/shopchat/chat"
	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/session"
)

// Request limits enforced before the stream starts.
const (
	MaxMessageLength = 2000
	MaxSKUs          = 6
)

// ProductLookup resolves SKUs into product records, returning a
// lookup-failure marker per unknown SKU.
type ProductLookup func(skus []string) []core.Product

// ChatHandler serves the conversational endpoint. Validation failures
// return the JSON envelope; once validation passes the response switches to
// an SSE stream.
type ChatHandler struct {
	sessions *session.Store
	orch     *chat.Orchestrator
	lookup   ProductLookup
	logger   logging.Logger
}

func NewChatHandler(sessions *session.Store, orch *chat.Orchestrator, lookup ProductLookup, logger logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ChatHandler{sessions: sessions, orch: orch, lookup: lookup, logger: logger}
}

// Register mounts the chat route on e.
func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req struct {
		Message   any             `json:"message"`
		SessionID any             `json:"sessionId"`
		SKUs      json.RawMessage `json:"skus"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "message ve sessionId gerekli (string)", "MISSING_FIELDS")
	}

	message, msgOK := req.Message.(string)
	sessionID, sidOK := req.SessionID.(string)
	if !msgOK || message == "" || !sidOK || sessionID == "" {
		return respondError(c, http.StatusBadRequest, "message ve sessionId gerekli (string)", "MISSING_FIELDS")
	}

	if len(message) > MaxMessageLength {
		return respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Mesaj en fazla %d karakter olabilir", MaxMessageLength), "MESSAGE_TOO_LONG")
	}

	var skus []string
	if len(req.SKUs) > 0 && string(req.SKUs) != "null" {
		if err := json.Unmarshal(req.SKUs, &skus); err != nil || len(skus) > MaxSKUs {
			return respondError(c, http.StatusBadRequest,
				fmt.Sprintf("skus en fazla %d elemanlı string dizisi olmalı", MaxSKUs), "INVALID_SKUS")
		}
	}

	h.sessions.Ensure(sessionID)
	if len(skus) > 0 && h.lookup != nil {
		h.sessions.AddProducts(sessionID, h.lookup(skus))
	}

	writer, err := newSSEWriter(c.Response())
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Bir hata oluştu", "INTERNAL_ERROR")
	}

	sink := &sseSink{writer: writer, sessionID: sessionID, logger: h.logger}
	h.orch.RunTurnStreaming(c.Request().Context(), sessionID, message, sink)
	return nil
}

// sseSink bridges orchestrator events onto the SSE stream. Write failures
// mean the client went away; they are logged and otherwise ignored.
type sseSink struct {
	writer    *sseWriter
	sessionID string
	logger    logging.Logger
}

func (s *sseSink) send(event string, payload any) {
	if err := s.writer.WriteEvent(event, payload); err != nil {
		s.logger.Debug("chat.sse.write_failed", "event", event, "error", err)
	}
}

func (s *sseSink) Delta(text string) {
	s.send("delta", map[string]string{"text": text})
}

func (s *sseSink) ToolStart(tool string, round int) {
	s.send("tool_start", map[string]any{"tool": tool, "round": round})
}

func (s *sseSink) ToolEnd(tool string, round int) {
	s.send("tool_end", map[string]any{"tool": tool, "round": round})
}

func (s *sseSink) Done() {
	s.send("done", map[string]string{"sessionId": s.sessionID})
}

func (s *sseSink) Error(err error) {
	s.logger.Error("chat.stream.failed", "session_id", s.sessionID, "error", err)
	s.send("error", map[string]string{"message": "Bir hata oluştu", "code": "INTERNAL_ERROR"})
}
