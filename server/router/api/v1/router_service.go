package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	routererrors "github.com/CoworkedShawn/openclaw-skills/internal/errors"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/timeout"
	ratelimit "github.com/CoworkedShawn/openclaw-skills/server/middleware"
)

const (
	defaultTopN = 5
	maxTopN     = 100
	// maxMessageLen bounds the accepted message size in bytes.
	maxMessageLen = 16 * 1024
)

// RouteRequest is the body of the route and analyze endpoints.
type RouteRequest struct {
	Message       string            `json:"message"`
	UserID        string            `json:"user_id,omitempty"`
	SessionID     string            `json:"session_id,omitempty"`
	RecentHistory []string          `json:"recent_history,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// callerContext builds the caller context, preferring the body user id over the header.
func (r *RouteRequest) callerContext(c echo.Context) router.CallerContext {
	userID := r.UserID
	if userID == "" {
		userID = c.Request().Header.Get(ratelimit.UserIDHeader)
	}
	return router.CallerContext{
		UserID:        userID,
		SessionID:     r.SessionID,
		RecentHistory: r.RecentHistory,
		Extra:         r.Extra,
	}
}

func bindRouteRequest(c echo.Context) (*RouteRequest, error) {
	req := &RouteRequest{}
	if err := c.Bind(req); err != nil {
		return nil, routererrors.InvalidArgument("malformed request body")
	}
	if len(req.Message) > maxMessageLen {
		return nil, routererrors.InvalidArgument("message too long")
	}
	return req, nil
}

// Route routes a message.
// POST /api/v1/route
func (s *APIV1Service) Route(c echo.Context) error {
	req, err := bindRouteRequest(c)
	if err != nil {
		return errorResponse(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.RouteTimeout)
	defer cancel()
	decision := s.Router.Route(ctx, req.Message, req.callerContext(c))
	return c.JSON(http.StatusOK, decision)
}

// Analyze scores a message without routing it.
// POST /api/v1/analyze
func (s *APIV1Service) Analyze(c echo.Context) error {
	req, err := bindRouteRequest(c)
	if err != nil {
		return errorResponse(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.RouteTimeout)
	defer cancel()
	result, err := s.Router.Analyze(ctx, req.Message, req.callerContext(c))
	if err != nil {
		slog.Warn("analyze failed", "error", err)
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetStats returns routing statistics.
// GET /api/v1/stats?top=N
func (s *APIV1Service) GetStats(c echo.Context) error {
	topN := defaultTopN
	if raw := c.QueryParam("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxTopN {
			slog.Warn("invalid top parameter in stats request", "top", raw)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid top parameter"})
		}
		topN = n
	}
	return c.JSON(http.StatusOK, s.Router.Stats(topN))
}

// ResetStats zeroes routing statistics.
// POST /api/v1/stats/reset
func (s *APIV1Service) ResetStats(c echo.Context) error {
	s.Router.ResetStats()
	return c.NoContent(http.StatusNoContent)
}

// GetSession returns a user's rolling context.
// GET /api/v1/sessions/:user
func (s *APIV1Service) GetSession(c echo.Context) error {
	userID := c.Param("user")
	sc, err := s.Router.Session(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	if sc == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, sc)
}

// DeleteSession forgets a user's rolling context.
// DELETE /api/v1/sessions/:user
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	if err := s.Router.ResetSession(c.Request().Context(), c.Param("user")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListIntents returns the active intent catalog.
// GET /api/v1/intents
func (s *APIV1Service) ListIntents(c echo.Context) error {
	if s.Catalog == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "catalog not available"})
	}
	return c.JSON(http.StatusOK, s.Catalog.ListIntents())
}

// ListMappings returns the active skill mapping table.
// GET /api/v1/mappings
func (s *APIV1Service) ListMappings(c echo.Context) error {
	if s.Catalog == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "catalog not available"})
	}
	return c.JSON(http.StatusOK, s.Catalog.ListMappings())
}

// errorResponse maps a router error code to an HTTP status.
func errorResponse(c echo.Context, err error) error {
	code := routererrors.GetCodeFromError(err, routererrors.ErrCodeInternal)
	status := http.StatusInternalServerError
	switch code {
	case routererrors.ErrCodeInvalidArgument, routererrors.ErrCodeInvalidConfig, routererrors.ErrCodeInvalidPattern:
		status = http.StatusBadRequest
	case routererrors.ErrCodeIntentNotFound:
		status = http.StatusNotFound
	case routererrors.ErrCodeSessionUnavailable:
		status = http.StatusServiceUnavailable
	case routererrors.ErrCodeContextCanceled:
		status = http.StatusRequestTimeout
	}
	return c.JSON(status, map[string]string{"error": err.Error(), "code": string(code)})
}
