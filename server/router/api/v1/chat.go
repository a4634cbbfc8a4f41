package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	aierrors "github.com/hrygo/orbita/internal/errors"
	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/manager"
	"github.com/hrygo/orbita/plugin/ai/session"
	"github.com/hrygo/orbita/server/middleware"
)

const (
	defaultThreadLimit = 20
	maxThreadLimit     = 100
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
}

// ChatResponse is the reply to one turn.
type ChatResponse struct {
	ThreadID  string `json:"thread_id"`
	Reply     string `json:"reply"`
	ReplyHTML string `json:"reply_html"`
	Route     string `json:"route"`
	Method    string `json:"method"`
}

// ThreadResponse is a stored transcript.
type ThreadResponse struct {
	ThreadID string       `json:"thread_id"`
	Messages []ai.Message `json:"messages"`
}

// ThreadListResponse lists a user's threads.
type ThreadListResponse struct {
	Threads []session.ThreadSummary `json:"threads"`
}

// Chat runs one turn.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, aierrors.InvalidArgument("malformed request body"))
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return writeError(c, aierrors.InvalidArgument("message is required"))
	}
	if req.ThreadID == "" {
		req.ThreadID = shortuuid.New()
	}
	// An authenticated identity always wins over the body.
	if userID := middleware.UserIDFromContext(c); userID != "" {
		req.UserID = userID
		if err := s.checkOwner(c, req.ThreadID, true); err != nil {
			return writeError(c, err)
		}
	}

	cfg := manager.SessionConfig{ThreadID: req.ThreadID, UserID: req.UserID}
	result, err := s.Conversation.Send(c.Request().Context(), cfg, req.Message)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, ChatResponse{
		ThreadID:  req.ThreadID,
		Reply:     result.Reply,
		ReplyHTML: s.renderMarkdown(result.Reply),
		Route:     string(result.Route),
		Method:    string(result.Method),
	})
}

// GetThread returns the transcript of a thread.
// GET /api/v1/threads/:id
func (s *APIV1Service) GetThread(c echo.Context) error {
	threadID := c.Param("id")
	if err := s.checkOwner(c, threadID, false); err != nil {
		return writeError(c, err)
	}
	messages, err := s.Conversation.History(c.Request().Context(), threadID)
	if err != nil {
		return writeError(c, err)
	}
	if messages == nil {
		return writeError(c, aierrors.NotFound("thread not found"))
	}
	return c.JSON(http.StatusOK, ThreadResponse{ThreadID: threadID, Messages: messages})
}

// checkOwner rejects access by an authenticated user to a thread saved under
// another user. Foreign threads are reported as not found. allowNew accepts
// threads that do not exist yet.
func (s *APIV1Service) checkOwner(c echo.Context, threadID string, allowNew bool) error {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		return nil
	}
	owner, err := s.Conversation.Owner(c.Request().Context(), threadID)
	if err != nil {
		return err
	}
	if owner == userID || (owner == "" && allowNew) {
		return nil
	}
	return aierrors.NotFound("thread not found")
}

// ListThreads lists the recent threads of a user.
// GET /api/v1/threads?user_id=...&limit=...
func (s *APIV1Service) ListThreads(c echo.Context) error {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		userID = c.QueryParam("user_id")
	}
	if userID == "" {
		return writeError(c, aierrors.InvalidArgument("user_id is required"))
	}

	limit := defaultThreadLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return writeError(c, aierrors.InvalidArgument("limit must be a positive integer"))
		}
		limit = min(n, maxThreadLimit)
	}

	threads, err := s.Conversation.Threads(c.Request().Context(), userID, limit)
	if err != nil {
		return writeError(c, err)
	}
	if threads == nil {
		threads = []session.ThreadSummary{}
	}
	return c.JSON(http.StatusOK, ThreadListResponse{Threads: threads})
}
