package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xtreemtech/twitter-engagement-bot/internal/bot"
)

// envelope is the JSON response shape shared by all endpoints.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: "ok"})
}

func (s *Server) handleStart(c *gin.Context) {
	if err := s.controller.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, envelope{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Bot started successfully"})
}

func (s *Server) handleStop(c *gin.Context) {
	s.controller.Stop()
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Bot stopped successfully"})
}

type postRequest struct {
	UseImage *bool `json:"use_image"`
}

func (s *Server) handlePost(c *gin.Context) {
	var req postRequest
	_ = c.ShouldBindJSON(&req) // empty body means defaults

	useImage := true
	if req.UseImage != nil {
		useImage = *req.UseImage
	}

	// A started action runs to completion even if the dashboard client
	// disconnects mid-flight.
	result := s.controller.Post(context.WithoutCancel(c.Request.Context()), useImage)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (s *Server) handleEngage(c *gin.Context) {
	result := s.controller.Engage(context.WithoutCancel(c.Request.Context()))
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// statsResponse keeps the envelope's success flag alongside the counters.
type statsResponse struct {
	Success bool `json:"success"`
	bot.Snapshot
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{Success: true, Snapshot: s.controller.Stats()})
}

func (s *Server) handleLogs(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: s.controller.Activity()})
}

type uploadImageRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) handleUploadImage(c *gin.Context) {
	var req uploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Error: "url is required"})
		return
	}

	if !s.controller.Images().Add(req.URL) {
		c.JSON(http.StatusBadRequest, envelope{Error: "invalid or duplicate image URL"})
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Message: "Image added to campaign pool"})
}

func (s *Server) handleCampaignImages(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: s.controller.Images().All()})
}

func (s *Server) handleHistory(c *gin.Context) {
	repo := s.controller.History()
	if repo == nil {
		c.JSON(http.StatusOK, envelope{Success: true, Data: gin.H{"posts": []any{}, "engagements": []any{}}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	posts, err := repo.ListPostRecords(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, envelope{Error: err.Error()})
		return
	}

	engagements, err := repo.ListEngagementRecords(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, envelope{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Data: gin.H{
		"posts":       posts,
		"engagements": engagements,
	}})
}

func (s *Server) handleLogFeed(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request, s.controller.Activity())
}
