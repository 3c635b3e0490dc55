package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	connected := s.client.IsConnected()

	status := "healthy"
	code := http.StatusOK
	if !connected {
		status = "disconnected"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"connected": connected,
		"message":   "MyJDProxy is running",
	})
}

func (s *Server) handleConnect(c *gin.Context) {
	if s.client.IsConnected() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Already connected to MyJDownloader",
		})
		return
	}

	if err := s.client.Connect(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully connected to MyJDownloader",
	})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	s.client.Disconnect(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Disconnected from MyJDownloader",
	})
}

// handleConfigInfo echoes the non-sensitive part of the configuration.
func (s *Server) handleConfigInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"base_path":          s.cfg.Downloads.BasePath,
			"allowed_categories": s.cfg.Downloads.AllowedCategories,
			"device_id":          s.cfg.MyJD.DeviceID,
			"username":           s.cfg.MyJD.Username,
		},
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	submissions, err := s.repo.ListSubmissions()
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(submissions),
		"submissions": submissions,
	})
}
