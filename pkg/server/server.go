// Package server exposes the triage service over HTTP. Handlers never
// surface provider failures: a valid triage request always gets an
// assessment, and only input validation produces a 4xx.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/zen-systems/triagegate/pkg/config"
	"github.com/zen-systems/triagegate/pkg/geo"
	"github.com/zen-systems/triagegate/pkg/provider"
	"github.com/zen-systems/triagegate/pkg/triage"
)

const serviceVersion = "2.0.0"

// Server wires the HTTP surface to the triage service and its
// enrichment collaborators.
type Server struct {
	echo    *echo.Echo
	svc     *triage.Service
	geo     *geo.Client
	cfg     *config.Config
	chain   []provider.Client
	log     zerolog.Logger
}

// New builds the server. geoClient may be nil; location enrichment is
// then skipped.
func New(svc *triage.Service, geoClient *geo.Client, chain []provider.Client, cfg *config.Config, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:  e,
		svc:   svc,
		geo:   geoClient,
		cfg:   cfg,
		chain: chain,
		log:   log,
	}

	e.Use(RequestID())
	e.Use(RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(RateLimit(cfg.Server.RequestsPerSecond, cfg.Server.Burst))
	if cfg.Server.JWTSecret != "" {
		e.Use(JWTAuth(cfg.Server.JWTSecret, "/", "/api/health"))
	}

	e.GET("/", s.handleRoot)
	e.GET("/api/health", s.handleHealth)
	e.GET("/api/providers", s.handleProviders)
	e.POST("/api/triage", s.handleTriage)
	e.POST("/api/chat", s.handleChat)
	e.POST("/api/appearance", s.handleAppearance)

	return s
}

// Start serves until the listener fails or Shutdown runs.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "AI Fever Triage System API",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"health":     "/api/health",
			"providers":  "/api/providers",
			"triage":     "/api/triage (POST)",
			"chat":       "/api/chat (POST)",
			"appearance": "/api/appearance (POST)",
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	configured := map[string]bool{}
	for _, id := range provider.All() {
		configured[id.String()] = s.cfg.HasProvider(id)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":               "healthy",
		"service":              "AI Fever Triage System",
		"version":              serviceVersion,
		"default_provider":     s.cfg.DefaultProvider.String(),
		"providers_configured": configured,
	})
}

// handleProviders probes each configured provider with a trivial
// prompt, mirroring what operators use to verify keys after rotation.
func (s *Server) handleProviders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	results := map[string]any{}
	for _, client := range s.chain {
		text, err := client.Generate(ctx, provider.Request{
			System: "You are a test.",
			User:   "Say 'Hello from " + client.Name() + "'",
		})
		if err != nil {
			results[client.Name()] = map[string]any{
				"status": "error",
				"kind":   provider.KindOf(err).String(),
			}
			continue
		}
		if len(text) > 50 {
			text = text[:50]
		}
		results[client.Name()] = map[string]any{"status": "available", "response": text}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"current_provider": s.cfg.DefaultProvider.String(),
		"test_results":     results,
	})
}
