//go:generate go run go.uber.org/mock/mockgen -source=participant_service.go -destination=../mocks/mock_participant_service.go -package=mocks
package services

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"bate-papo/repositories"
	"bate-papo/validation"
	"fmt"
	"log/slog"
	"time"
)

type IParticipantService interface {
	Register(name string) (domain.Message, error)
	List() ([]domain.Participant, error)
	Heartbeat(name string) (domain.Participant, error)
}

type ParticipantService struct {
	log                   *slog.Logger
	participantRepository repositories.IParticipantRepository
	messageRepository     repositories.IMessageRepository
	now                   func() time.Time
}

func NewParticipantService(
	log *slog.Logger,
	participantRepository repositories.IParticipantRepository,
	messageRepository repositories.IMessageRepository,
	now func() time.Time,
) *ParticipantService {
	return &ParticipantService{
		log:                   log,
		participantRepository: participantRepository,
		messageRepository:     messageRepository,
		now:                   now,
	}
}

// Register adds a participant under a unique name and announces it to the
// room. The returned value is the join event that was appended to the log.
func (s *ParticipantService) Register(name string) (domain.Message, error) {
	req, err := validation.ValidateParticipant(validation.ParticipantRequest{Name: name})
	if err != nil {
		return domain.Message{}, err
	}

	at := s.now()
	if err = s.participantRepository.CreateParticipant(domain.NewParticipant(req.Name, at)); err != nil {
		return domain.Message{}, err
	}

	joined := domain.NewJoinedMessage(req.Name, at)
	if err = s.messageRepository.StoreMessage(repositories.NewDiskMessage(joined, at)); err != nil {
		return domain.Message{}, fmt.Errorf("storing join event: %w", err)
	}
	s.log.Info("Participant joined", "name", req.Name)
	return joined, nil
}

func (s *ParticipantService) List() ([]domain.Participant, error) {
	return s.participantRepository.ListParticipants()
}

// Heartbeat renews the participant's liveness timestamp.
func (s *ParticipantService) Heartbeat(name string) (domain.Participant, error) {
	if name == "" {
		return domain.Participant{}, fmt.Errorf("%w: no participant given", errors.ErrParticipantNotFound)
	}
	return s.participantRepository.TouchParticipant(name, s.now())
}
