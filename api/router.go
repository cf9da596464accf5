package api

import (
	"bate-papo/errors"
	"bate-papo/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// UserHeader identifies the participant on behalf of whom a request is made.
const UserHeader = "user"

type Server struct {
	log                *slog.Logger
	participantService services.IParticipantService
	messageService     services.IMessageService
}

func NewServer(
	log *slog.Logger,
	participantService services.IParticipantService,
	messageService services.IMessageService,
) *Server {
	return &Server{log: log, participantService: participantService, messageService: messageService}
}

// Router mounts every endpoint on a fresh gin engine.
func (s *Server) Router(allowedOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), cors(allowedOrigin))

	r.POST("/participants", s.RegisterParticipant)
	r.GET("/participants", s.ListParticipants)
	r.POST("/messages", s.SendMessage)
	r.GET("/messages", s.ListMessages)
	r.POST("/status", s.Heartbeat)
	r.GET("/health", s.Health)
	return r
}

// fail writes the error response. Store failures are logged and hidden
// behind an opaque message.
func (s *Server) fail(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func cors(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", allowedOrigin)
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type, "+UserHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
