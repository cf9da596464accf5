//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"bate-papo/moderation"
	"bate-papo/repositories"
	"bate-papo/validation"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

type IMessageService interface {
	Send(req validation.MessageRequest) error
	List(viewer string, limit int) ([]domain.Message, error)
}

type MessageService struct {
	log                   *slog.Logger
	participantRepository repositories.IParticipantRepository
	messageRepository     repositories.IMessageRepository
	moderator             *moderation.Moderator
	now                   func() time.Time
}

// NewMessageService builds the message log service. moderator may be nil,
// in which case text is stored untouched.
func NewMessageService(
	log *slog.Logger,
	participantRepository repositories.IParticipantRepository,
	messageRepository repositories.IMessageRepository,
	moderator *moderation.Moderator,
	now func() time.Time,
) *MessageService {
	return &MessageService{
		log:                   log,
		participantRepository: participantRepository,
		messageRepository:     messageRepository,
		moderator:             moderator,
		now:                   now,
	}
}

// Send appends a chat message from a registered participant.
// The sender lookup and the insert are not atomic: a participant evicted in
// between can still get one last message through.
func (s *MessageService) Send(req validation.MessageRequest) error {
	if err := validation.ValidateMessage(req); err != nil {
		return err
	}

	if _, err := s.participantRepository.GetParticipant(req.From); err != nil {
		if errors.Is(err, errors.ErrParticipantNotFound) {
			return fmt.Errorf("%w: %s", errors.ErrUnknownSender, req.From)
		}
		return err
	}

	text := req.Text
	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}

	at := s.now()
	message := domain.NewMessage(req.From, req.To, text, req.Type, at)
	return s.messageRepository.StoreMessage(repositories.NewDiskMessage(message, at))
}

// List returns the messages visible to viewer, oldest first. A non-positive
// limit returns the whole visible log.
func (s *MessageService) List(viewer string, limit int) ([]domain.Message, error) {
	diskMessages, err := s.messageRepository.GetMessages(viewer, max(limit, 0))
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, func(dm repositories.DiskMessage, _ int) domain.Message {
		return dm.Message
	}), nil
}
