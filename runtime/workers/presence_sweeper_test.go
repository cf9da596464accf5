package workers

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"bate-papo/mocks"
	"bate-papo/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPresenceSweeper_Evicts_Silent_Participants(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db := openTestDB(t)
	participants := repositories.NewParticipantRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	clock := &fakeClock{now: time.Now()}
	sweeper := NewPresenceSweeperWorker(log, participants, messages, time.Hour, 10*time.Second, clock.Now)

	// Given N participants registered at the same instant
	names := []string{"alice", "bob", "clara"}
	for _, name := range names {
		req.NoError(participants.CreateParticipant(domain.NewParticipant(name, clock.Now())))
	}

	// When nobody sends a heartbeat past the threshold
	clock.Advance(11 * time.Second)
	evicted, err := sweeper.Sweep()

	// Then exactly N participants are evicted
	req.NoError(err)
	req.ElementsMatch(names, lo.Map(evicted, func(p domain.Participant, _ int) string { return p.Name }))
	remaining, err := participants.ListParticipants()
	req.NoError(err)
	req.Empty(remaining)

	// And one correctly attributed departure event is appended per evicted participant
	logged, err := messages.GetMessages("dave", 0)
	req.NoError(err)
	req.Len(logged, len(names))
	for _, dm := range logged {
		req.Equal(domain.LeftText, dm.Message.Text)
		req.Equal(domain.StatusMessage, dm.Message.Type)
		req.Equal(domain.BroadcastRecipient, dm.Message.To)
		req.Equal(clock.Now().Format(domain.TimeLayout), dm.Message.Time)
	}
	req.ElementsMatch(names, lo.Map(logged, func(dm repositories.DiskMessage, _ int) string { return dm.Message.From }))

	// When sweeping again without new heartbeats, nothing else happens
	evicted, err = sweeper.Sweep()
	req.NoError(err)
	req.Empty(evicted)
	logged, err = messages.GetMessages("dave", 0)
	req.NoError(err)
	req.Len(logged, len(names))
}

func TestPresenceSweeper_Keeps_Participants_With_Heartbeat(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	db := openTestDB(t)
	participants := repositories.NewParticipantRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	clock := &fakeClock{now: time.Now()}
	sweeper := NewPresenceSweeperWorker(log, participants, messages, time.Hour, 10*time.Second, clock.Now)

	req.NoError(participants.CreateParticipant(domain.NewParticipant("alice", clock.Now())))
	req.NoError(participants.CreateParticipant(domain.NewParticipant("bob", clock.Now())))

	// Given alice keeps sending heartbeats while bob goes silent
	clock.Advance(8 * time.Second)
	_, err := participants.TouchParticipant("alice", clock.Now())
	req.NoError(err)
	clock.Advance(8 * time.Second)

	evicted, err := sweeper.Sweep()
	req.NoError(err)
	req.Equal([]domain.Participant{{Name: "bob", LastStatus: clock.Now().Add(-16 * time.Second).UnixMilli()}}, evicted)

	remaining, err := participants.ListParticipants()
	req.NoError(err)
	req.Len(remaining, 1)
	req.Equal("alice", remaining[0].Name)
}

func TestPresenceSweeper_Refuses_Overlapping_Sweeps(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participantRepo := mocks.NewMockIParticipantRepository(ctrl)
	messageRepo := mocks.NewMockIMessageRepository(ctrl)
	sweeper := NewPresenceSweeperWorker(slog.Default(), participantRepo, messageRepo, time.Hour, 10*time.Second, time.Now)

	started := make(chan struct{})
	release := make(chan struct{})
	participantRepo.EXPECT().
		DeleteInactive(gomock.Any()).
		DoAndReturn(func(time.Time) ([]domain.Participant, error) {
			close(started)
			<-release
			return nil, nil
		}).
		Times(1)

	done := make(chan error, 1)
	go func() {
		_, err := sweeper.Sweep()
		done <- err
	}()
	<-started

	// When a second sweep is triggered while the first is in flight
	_, err := sweeper.Sweep()

	// Then it is refused
	req.ErrorIs(err, errors.ErrSweepInProgress)

	close(release)
	req.NoError(<-done)
}

func TestPresenceSweeper_Reports_Departure_Store_Failures(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participantRepo := mocks.NewMockIParticipantRepository(ctrl)
	messageRepo := mocks.NewMockIMessageRepository(ctrl)
	sweeper := NewPresenceSweeperWorker(slog.Default(), participantRepo, messageRepo, time.Hour, 10*time.Second, time.Now)
	storeErr := fmt.Errorf("disk full")

	participantRepo.EXPECT().
		DeleteInactive(gomock.Any()).
		Return([]domain.Participant{{Name: "alice"}, {Name: "bob"}}, nil).
		Times(1)
	messageRepo.EXPECT().StoreMessage(gomock.Any()).Return(storeErr).Times(1)
	messageRepo.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)

	evicted, err := sweeper.Sweep()

	// Then the remaining departures are still appended and the failure is reported
	req.Len(evicted, 2)
	req.ErrorIs(err, storeErr)
}

func TestPresenceSweeper_Run_Survives_Store_Errors(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	participantRepo := mocks.NewMockIParticipantRepository(ctrl)
	messageRepo := mocks.NewMockIMessageRepository(ctrl)
	sweeper := NewPresenceSweeperWorker(slog.Default(), participantRepo, messageRepo, 10*time.Millisecond, 10*time.Second, time.Now)

	var calls atomic.Int32
	participantRepo.EXPECT().
		DeleteInactive(gomock.Any()).
		DoAndReturn(func(time.Time) ([]domain.Participant, error) {
			calls.Add(1)
			return nil, fmt.Errorf("store unavailable")
		}).
		MinTimes(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	req.Eventually(func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("Sweeper did not stop after cancellation")
	}
}
