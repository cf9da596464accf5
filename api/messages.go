package api

import (
	"bate-papo/errors"
	"bate-papo/validation"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SendMessage handles POST /messages. The sender is the user header.
func (s *Server) SendMessage(c *gin.Context) {
	var body validation.MessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err))
		return
	}
	body.From = c.GetHeader(UserHeader)

	if err := s.messageService.Send(body); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ListMessages handles GET /messages?limit=n for the viewer in the user header.
func (s *Server) ListMessages(c *gin.Context) {
	messages, err := s.messageService.List(c.GetHeader(UserHeader), parseLimit(c.Query("limit")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// parseLimit returns 0, meaning no limit, for anything but a positive integer.
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
