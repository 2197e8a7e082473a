// Package web serves the JSON dashboard that controls the bot.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xtreemtech/twitter-engagement-bot/internal/bot"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

// Server is the dashboard HTTP server.
type Server struct {
	controller *bot.Controller
	hub        *Hub
	engine     *gin.Engine
	log        *logger.Logger
}

// NewServer wires the routes and connects the activity log to the websocket hub.
func NewServer(controller *bot.Controller, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		controller: controller,
		hub:        NewHub(log),
		engine:     gin.New(),
		log:        log.WithComponent("web"),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// Live log feed: every activity line goes out to connected dashboards.
	controller.ActivityLog().OnAppend(s.hub.Broadcast)

	s.routes()
	return s
}

// Handler exposes the router, used by tests and the main entry point.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Dashboard listening")
	return s.engine.Run(addr)
}

func (s *Server) routes() {
	// Health never touches external APIs.
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.POST("/start", s.handleStart)
		api.POST("/stop", s.handleStop)
		api.POST("/post", s.handlePost)
		api.POST("/engage", s.handleEngage)
		api.GET("/stats", s.handleStats)
		api.GET("/logs", s.handleLogs)
		api.POST("/upload-image", s.handleUploadImage)
		api.GET("/campaign-images", s.handleCampaignImages)
		api.GET("/history", s.handleHistory)
	}

	s.engine.GET("/ws/logs", s.handleLogFeed)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("Request handled")
	}
}
