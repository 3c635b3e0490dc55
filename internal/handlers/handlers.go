package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Timmy93/MyJDProxy/internal/config"
	"github.com/Timmy93/MyJDProxy/internal/jd"
	"github.com/Timmy93/MyJDProxy/internal/storage"
	"github.com/Timmy93/MyJDProxy/internal/worker"
)

type Server struct {
	cfg     *config.Config
	client  *jd.Client
	repo    *storage.Repository
	manager *worker.Manager
	router  *gin.Engine
	log     zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	client *jd.Client,
	repo *storage.Repository,
	manager *worker.Manager,
	log zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		client:  client,
		repo:    repo,
		manager: manager,
		router:  gin.New(),
		log:     log,
	}
	s.router.Use(gin.Recovery())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/connect", s.handleConnect)
		api.POST("/disconnect", s.handleDisconnect)
		api.GET("/config", s.handleConfigInfo)
		api.GET("/history", s.handleHistory)

		api.POST("/downloads", s.handleAddDownload)
		api.GET("/downloads", s.handleListDownloads)
		api.POST("/downloads/start", s.handleStartDownloads)
		api.POST("/downloads/pause", s.handlePauseDownloads)
		api.GET("/downloads/stream", s.handleSSE)

		api.GET("/linkgrabber", s.handleLinkgrabber)
	}
}

func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%d", s.cfg.Server.Port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// respondError maps the client error kinds onto the API's status codes:
// connection problems are 503, failed operations and bad requests are 400,
// anything unrecognized is 500.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		valErr  *jd.ValidationError
		connErr *jd.ConnectionError
		opErr   *jd.OperationError
	)
	switch {
	case errors.As(err, &valErr):
		s.log.Warn().Err(err).Msg("validation error")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation_error",
			"message": valErr.Message,
		})
	case errors.As(err, &connErr):
		s.log.Error().Err(err).Msg("connection error")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "connection_error",
			"message": err.Error(),
		})
	case errors.As(err, &opErr):
		s.log.Error().Err(err).Msg("operation error")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "operation_error",
			"message": err.Error(),
		})
	default:
		s.log.Error().Err(err).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal_error",
			"message": "Internal server error",
		})
	}
}
