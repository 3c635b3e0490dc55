package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Timmy93/MyJDProxy/internal/models"
)

type addDownloadRequest struct {
	Name      string   `json:"name"`
	Links     []string `json:"links"`
	Category  string   `json:"category"`
	AutoStart *bool    `json:"auto_start"`
}

func (s *Server) handleAddDownload(c *gin.Context) {
	var req addDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation_error",
			"message": "No JSON data provided",
		})
		return
	}

	name := req.Name
	if name == "" {
		name = "Unnamed Package"
	}
	name = cleanName(name)

	category := req.Category
	if category == "" {
		category = "other"
	}
	category = s.cfg.Downloads.ResolveCategory(category)

	autoStart := true
	if req.AutoStart != nil {
		autoStart = *req.AutoStart
	}

	result, err := s.client.AddDownloadPackage(c.Request.Context(), models.DownloadRequest{
		Name:      name,
		Links:     req.Links,
		Category:  category,
		AutoStart: autoStart,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation_error",
			"message": result.Message,
		})
		return
	}

	if s.repo != nil {
		dest := s.cfg.Downloads.BasePath + "/" + category
		if _, err := s.repo.RecordSubmission(name, category, dest, len(req.Links), autoStart); err != nil {
			s.log.Warn().Err(err).Msg("failed to record submission")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("Successfully added download package: %s", name),
		"package_name": name,
		"links_count":  len(req.Links),
		"category":     category,
	})
}

func (s *Server) handleListDownloads(c *gin.Context) {
	packages, err := s.client.GetDownloadPackages(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	views := make([]models.DownloadPackageView, 0, len(packages))
	for _, pkg := range packages {
		views = append(views, pkg.View())
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(views),
		"packages": views,
	})
}

type controlRequest struct {
	PackageIDs []string `json:"package_ids"`
}

func (s *Server) handleStartDownloads(c *gin.Context) {
	var req controlRequest
	// An empty body means "start everything".
	_ = c.ShouldBindJSON(&req)

	if err := s.client.StartDownloads(c.Request.Context(), req.PackageIDs); err != nil {
		s.respondError(c, err)
		return
	}

	message := "Started all downloads"
	if len(req.PackageIDs) > 0 {
		message = fmt.Sprintf("Started %d packages", len(req.PackageIDs))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (s *Server) handlePauseDownloads(c *gin.Context) {
	var req controlRequest
	_ = c.ShouldBindJSON(&req)

	if err := s.client.PauseDownloads(c.Request.Context(), req.PackageIDs); err != nil {
		s.respondError(c, err)
		return
	}

	message := "Paused all downloads"
	if len(req.PackageIDs) > 0 {
		message = fmt.Sprintf("Paused %d packages", len(req.PackageIDs))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (s *Server) handleLinkgrabber(c *gin.Context) {
	packages, err := s.client.GetLinkgrabberPackages(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(packages),
		"packages": packages,
	})
}

func (s *Server) handleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	updates := s.manager.Subscribe()
	defer s.manager.Unsubscribe(updates)

	// Send the current state right away so clients don't wait a full poll
	// interval for the first snapshot.
	if s.client.IsConnected() {
		if packages, err := s.client.GetDownloadPackages(c.Request.Context()); err == nil {
			sendSnapshotEvent(c, packages)
		}
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case packages := <-updates:
			sendSnapshotEvent(c, packages)
		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

func sendSnapshotEvent(c *gin.Context, packages []models.DownloadPackage) {
	views := make([]models.DownloadPackageView, 0, len(packages))
	for _, pkg := range packages {
		views = append(views, pkg.View())
	}
	data, _ := json.Marshal(views)
	fmt.Fprintf(c.Writer, "event: downloads\n")
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

var seasonRe = regexp.MustCompile(`(?i)\bstagione[\s\-_:]*([0-9]+)\b`)

// cleanName normalizes Italian season markers: "Stagione 3" becomes "S03".
func cleanName(name string) string {
	return seasonRe.ReplaceAllStringFunc(name, func(match string) string {
		num := seasonRe.FindStringSubmatch(match)[1]
		if len(num) < 2 {
			num = "0" + num
		}
		return "S" + num
	})
}
