package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// chatResponse is the TurnResult plus the fields the chat route has always
// returned: the reply under "message" and a timestamp.
type chatResponse struct {
	agent.TurnResult
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// sessionResponse groups the conversation summary under "context"
type sessionResponse struct {
	SessionID    string                    `json:"sessionId"`
	UserID       string                    `json:"userId,omitempty"`
	Capabilities []capabilities.Capability `json:"capabilities"`
	Context      sessionContext            `json:"context"`
	CreatedAt    time.Time                 `json:"created_at"`
	LastActivity time.Time                 `json:"last_activity"`
}

type sessionContext struct {
	ConversationLength int      `json:"conversation_length"`
	BusinessContext    string   `json:"business_context"`
	ExpertiseDomains   []string `json:"expertise_domains"`
}

// capabilitiesPatch is the PATCH capabilities body
type capabilitiesPatch struct {
	Capabilities []capabilities.Update `json:"capabilities"`
}

type capabilitiesPatchResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Message is required"})
	}

	var req agent.TurnRequest
	if violations, err := s.validator.Validate(body, &req); err != nil || len(violations) > 0 {
		msg := "Invalid request body"
		if err != nil || touches(violations, "message") {
			msg = "Message is required"
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Details: violations})
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Message is required"})
	}

	result := s.agent.Process(c.Request().Context(), req)
	return c.JSON(http.StatusOK, chatResponse{
		TurnResult: result,
		Message:    result.Response,
		Timestamp:  s.now().UTC(),
	})
}

func (s *Server) handleSession(c echo.Context) error {
	info, err := s.agent.GetSession(c.Param("sessionId"))
	if errors.Is(err, agent.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "Session not found"})
	}
	if err != nil {
		zap.S().Errorw("session_lookup_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to retrieve session"})
	}

	return c.JSON(http.StatusOK, sessionResponse{
		SessionID:    info.SessionID,
		UserID:       info.UserID,
		Capabilities: info.Capabilities,
		Context: sessionContext{
			ConversationLength: info.HistoryLength,
			BusinessContext:    info.BusinessContext,
			ExpertiseDomains:   info.ExpertiseDomains,
		},
		CreatedAt:    info.CreatedAt,
		LastActivity: info.LastActivity,
	})
}

func (s *Server) handleCapabilities(c echo.Context) error {
	sessionID := c.Param("sessionId")

	body, err := readBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Capabilities must be an array"})
	}

	var patch capabilitiesPatch
	violations, err := s.validator.Validate(body, &patch)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Capabilities must be an array"})
	}
	if len(violations) > 0 {
		msg := "Invalid capability update"
		for _, v := range violations {
			if v.Field == "capabilities" || v.Field == "(root)" {
				msg = "Capabilities must be an array"
				break
			}
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Details: violations})
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Capabilities must be an array"})
	}

	if !s.agent.UpdateCapabilities(sessionID, patch.Capabilities) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "Session not found"})
	}

	return c.JSON(http.StatusOK, capabilitiesPatchResponse{
		Success:   true,
		Message:   "Capabilities updated successfully",
		SessionID: sessionID,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.agent.Status())
}

func readBody(c echo.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
}
