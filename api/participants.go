package api

import (
	"bate-papo/errors"
	"bate-papo/observability"
	"bate-papo/validation"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterParticipant handles POST /participants and answers with the join event.
func (s *Server) RegisterParticipant(c *gin.Context) {
	var body validation.ParticipantRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errors.ErrInvalidParticipant, err))
		return
	}

	joined, err := s.participantService.Register(body.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, joined)
}

func (s *Server) ListParticipants(c *gin.Context) {
	participants, err := s.participantService.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// Heartbeat handles POST /status for the participant named in the user header.
func (s *Server) Heartbeat(c *gin.Context) {
	if _, err := s.participantService.Heartbeat(c.GetHeader(UserHeader)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) Health(c *gin.Context) {
	participants, err := s.participantService.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	stats, err := observability.SelfStats()
	if err != nil {
		s.log.Warn("Failed to collect self stats", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"pid":          stats.PID,
		"rssBytes":     stats.RSSBytes,
		"cpuPercent":   stats.CPUPercent,
		"participants": len(participants),
	})
}
