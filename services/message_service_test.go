package services

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"bate-papo/mocks"
	"bate-papo/moderation"
	"bate-papo/repositories"
	"bate-papo/validation"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageService_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participantRepo := mocks.NewMockIParticipantRepository(ctrl)
	messageRepo := mocks.NewMockIMessageRepository(ctrl)
	svc := NewMessageService(slog.Default(), participantRepo, messageRepo, nil, clock)
	alice := domain.Participant{Name: "alice", LastStatus: fixedNow.UnixMilli()}

	t.Run("should append a message from a registered participant", func(t *testing.T) {
		req := require.New(t)

		participantRepo.EXPECT().GetParticipant("alice").Return(alice, nil).Times(1)
		messageRepo.EXPECT().
			StoreMessage(gomock.Any()).
			DoAndReturn(func(dm repositories.DiskMessage) error {
				req.Equal(domain.Message{From: "alice", To: "Todos", Text: "hi", Type: "message", Time: "14:30:15"}, dm.Message)
				return nil
			}).
			Times(1)

		err := svc.Send(validation.MessageRequest{From: "alice", To: "Todos", Text: "hi", Type: domain.PublicMessage})

		req.NoError(err)
	})

	t.Run("should refuse any type outside message and private_message", func(t *testing.T) {
		req := require.New(t)

		participantRepo.EXPECT().GetParticipant(gomock.Any()).Times(0)
		messageRepo.EXPECT().StoreMessage(gomock.Any()).Times(0)

		for _, messageType := range []domain.MessageType{domain.StatusMessage, "", "broadcast"} {
			err := svc.Send(validation.MessageRequest{From: "alice", To: "Todos", Text: "hi", Type: messageType})
			req.ErrorIs(err, errors.ErrInvalidMessage)
		}
	})

	t.Run("should refuse an unknown sender", func(t *testing.T) {
		req := require.New(t)

		participantRepo.EXPECT().
			GetParticipant("ghost").
			Return(domain.Participant{}, fmt.Errorf("%w: ghost", errors.ErrParticipantNotFound)).
			Times(1)
		messageRepo.EXPECT().StoreMessage(gomock.Any()).Times(0)

		err := svc.Send(validation.MessageRequest{From: "ghost", To: "Todos", Text: "boo", Type: domain.PublicMessage})

		req.ErrorIs(err, errors.ErrUnknownSender)
	})

	t.Run("should propagate store failures on the sender lookup", func(t *testing.T) {
		req := require.New(t)
		storeErr := fmt.Errorf("db closed")

		participantRepo.EXPECT().GetParticipant("alice").Return(domain.Participant{}, storeErr).Times(1)

		err := svc.Send(validation.MessageRequest{From: "alice", To: "Todos", Text: "hi", Type: domain.PublicMessage})

		req.ErrorIs(err, storeErr)
		req.False(errors.Is(err, errors.ErrUnknownSender))
	})
}

func TestMessageService_Send_Censored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', slog.Default())
	req.NoError(err)

	participantRepo := mocks.NewMockIParticipantRepository(ctrl)
	messageRepo := mocks.NewMockIMessageRepository(ctrl)
	svc := NewMessageService(slog.Default(), participantRepo, messageRepo, moderator, clock)

	participantRepo.EXPECT().GetParticipant("alice").Return(domain.Participant{Name: "alice"}, nil).Times(1)
	messageRepo.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(dm repositories.DiskMessage) error {
			req.Equal("the ****** again", dm.Message.Text)
			return nil
		}).
		Times(1)

	req.NoError(svc.Send(validation.MessageRequest{From: "alice", To: "bob", Text: "the badger again", Type: domain.PrivateMessage}))
}

func TestMessageService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messageRepo := mocks.NewMockIMessageRepository(ctrl)
	svc := NewMessageService(slog.Default(), mocks.NewMockIParticipantRepository(ctrl), messageRepo, nil, clock)
	stored := []repositories.DiskMessage{
		repositories.NewDiskMessage(domain.NewJoinedMessage("alice", fixedNow), fixedNow),
		repositories.NewDiskMessage(domain.NewMessage("alice", "Todos", "hi", domain.PublicMessage, fixedNow), fixedNow),
	}

	t.Run("should unwrap stored messages", func(t *testing.T) {
		req := require.New(t)

		messageRepo.EXPECT().GetMessages("bob", 2).Return(stored, nil).Times(1)

		messages, err := svc.List("bob", 2)

		req.NoError(err)
		req.Equal([]domain.Message{stored[0].Message, stored[1].Message}, messages)
	})

	t.Run("should treat a negative limit as no limit", func(t *testing.T) {
		req := require.New(t)

		messageRepo.EXPECT().GetMessages("bob", 0).Return(stored, nil).Times(1)

		messages, err := svc.List("bob", -3)

		req.NoError(err)
		req.Len(messages, 2)
	})
}
