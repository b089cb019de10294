package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/CoworkedShawn/openclaw-skills/internal/observability"
	"github.com/CoworkedShawn/openclaw-skills/internal/profile"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
	ratelimit "github.com/CoworkedShawn/openclaw-skills/server/middleware"
)

// RequestIDHeader carries the request id in and out of the HTTP front-end.
const RequestIDHeader = "X-Request-ID"

// CatalogReader exposes the active intent catalog and mapping table.
// *router.Service implements it.
type CatalogReader interface {
	ListIntents() map[string]router.IntentSpec
	ListMappings() map[string]router.SkillMapping
}

type APIV1Service struct {
	Profile *profile.Profile
	Router  router.RouterService
	// Catalog is optional; the intents and mappings endpoints return 404 without it.
	Catalog CatalogReader
	Logger  *slog.Logger

	limiter *ratelimit.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, routerService router.RouterService, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	service := &APIV1Service{
		Profile: profile,
		Router:  routerService,
		Logger:  logger,
		limiter: ratelimit.NewRateLimiter(profile.RateLimit, 0),
	}
	if reader, ok := routerService.(CatalogReader); ok {
		service.Catalog = reader
	}
	return service
}

// RegisterRoutes registers the routing API with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.Healthz)

	group := echoServer.Group("/api/v1")
	group.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	group.Use(s.requestContextMiddleware)
	group.Use(s.limiter.Middleware())

	group.POST("/route", s.Route)
	group.POST("/analyze", s.Analyze)
	group.GET("/stats", s.GetStats)
	group.POST("/stats/reset", s.ResetStats)
	group.GET("/sessions/:user", s.GetSession)
	group.DELETE("/sessions/:user", s.DeleteSession)
	group.GET("/intents", s.ListIntents)
	group.GET("/mappings", s.ListMappings)
}

// NewEchoServer builds an Echo instance with the routing API registered.
func (s *APIV1Service) NewEchoServer() *echo.Echo {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.RegisterRoutes(echoServer)
	return echoServer
}

// requestContextMiddleware attaches a request-scoped logger to the request context
// so the router reuses the HTTP request id in its own logs and decision metadata.
func (s *APIV1Service) requestContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		userID := req.Header.Get(ratelimit.UserIDHeader)

		var rc *observability.RequestContext
		if id := req.Header.Get(RequestIDHeader); id != "" {
			rc = observability.NewRequestContextWithID(s.Logger, id, userID)
		} else {
			rc = observability.NewRequestContext(s.Logger, userID)
		}
		c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))
		c.Response().Header().Set(RequestIDHeader, rc.RequestID)

		err := next(c)
		rc.Debug("http request",
			slog.String("method", req.Method),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().Status),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
		)
		return err
	}
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.Profile.Version})
}
