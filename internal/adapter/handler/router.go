package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/johnquangdev/qualcoder/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/qualcoder/pkg/config"
	"github.com/johnquangdev/qualcoder/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	analysisHandler *Analysis
	jwtManager      *jwt.Manager
}

// NewRouter creates a new router with all handlers. jwtManager may be nil
// to leave destructive routes unprotected in local development.
func NewRouter(cfg *config.Config, analysisHandler *Analysis, jwtManager *jwt.Manager) *Router {
	return &Router{
		cfg:             cfg,
		analysisHandler: analysisHandler,
		jwtManager:      jwtManager,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupAnalysisRoutes(v1)
}

// setupAnalysisRoutes configures transcript and run routes
func (rt *Router) setupAnalysisRoutes(g *echo.Group) {
	transcripts := g.Group("/transcripts")
	runs := g.Group("/runs")

	if rt.analysisHandler != nil {
		transcripts.POST("", rt.analysisHandler.SubmitTranscript)
		transcripts.GET("", rt.analysisHandler.ListTranscripts)
		transcripts.GET("/:id", rt.analysisHandler.GetTranscript)
		transcripts.GET("/:id/runs", rt.analysisHandler.ListRuns)
		transcripts.GET("/:id/reliability", rt.analysisHandler.GetReliabilitySummary)

		// Deleting source data is restricted when auth is configured.
		if rt.jwtManager != nil {
			transcripts.DELETE("/:id", rt.analysisHandler.DeleteTranscript,
				authmw.EchoAuth(rt.jwtManager), authmw.RequireRole("admin", "researcher"))
		} else {
			transcripts.DELETE("/:id", rt.analysisHandler.DeleteTranscript)
		}

		runs.GET("/:id", rt.analysisHandler.GetRun)
	} else {
		transcripts.POST("", rt.notImplemented)
		transcripts.GET("", rt.notImplemented)
		transcripts.GET("/:id", rt.notImplemented)
		transcripts.DELETE("/:id", rt.notImplemented)
		transcripts.GET("/:id/runs", rt.notImplemented)

		runs.GET("/:id", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "production"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
