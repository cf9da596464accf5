package validation

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ParticipantRequest struct {
	Name string `json:"name" validate:"required"`
}

// MessageRequest carries the body of a posted message; the sender comes
// from the "user" header and is validated separately.
type MessageRequest struct {
	From string             `json:"-" validate:"required"`
	To   string             `json:"to" validate:"required"`
	Text string             `json:"text" validate:"required"`
	Type domain.MessageType `json:"type" validate:"required,oneof=message private_message"`
}

func ValidateParticipant(req ParticipantRequest) (ParticipantRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("%w: %v", errors.ErrInvalidParticipant, err)
	}
	return req, nil
}

func ValidateMessage(req MessageRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	if !req.Type.IsUserSubmittable() {
		return fmt.Errorf("%w: type %q is reserved", errors.ErrInvalidMessage, req.Type)
	}
	return nil
}
