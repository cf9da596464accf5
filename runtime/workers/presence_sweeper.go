package workers

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"bate-papo/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// PresenceSweeperWorker evicts participants whose last heartbeat is older
// than the inactivity threshold and announces each departure to the room.
type PresenceSweeperWorker struct {
	log                   *slog.Logger
	participantRepository repositories.IParticipantRepository
	messageRepository     repositories.IMessageRepository
	interval              time.Duration
	threshold             time.Duration
	now                   func() time.Time
	sweeping              atomic.Bool
}

func NewPresenceSweeperWorker(
	log *slog.Logger,
	participantRepository repositories.IParticipantRepository,
	messageRepository repositories.IMessageRepository,
	interval time.Duration,
	threshold time.Duration,
	now func() time.Time,
) *PresenceSweeperWorker {
	return &PresenceSweeperWorker{
		log:                   log,
		participantRepository: participantRepository,
		messageRepository:     messageRepository,
		interval:              interval,
		threshold:             threshold,
		now:                   now,
	}
}

// Run sweeps on every tick until the context is cancelled.
// A failed sweep is logged and the next tick tries again.
func (w *PresenceSweeperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting presence sweeper", "interval", w.interval, "threshold", w.threshold)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence sweeper")
			return nil
		case <-ticker.C:
			evicted, err := w.Sweep()
			if err != nil {
				w.log.Error("Presence sweep failed", "evicted", len(evicted), "error", err)
				continue
			}
			if len(evicted) > 0 {
				w.log.Info(fmt.Sprintf("%d participant(s) timed out", len(evicted)))
			}
		}
	}
}

// Sweep runs one eviction pass and returns the evicted participants.
// It refuses to start while another pass is still in flight.
func (w *PresenceSweeperWorker) Sweep() ([]domain.Participant, error) {
	if !w.sweeping.CompareAndSwap(false, true) {
		return nil, errors.ErrSweepInProgress
	}
	defer w.sweeping.Store(false)

	at := w.now()
	evicted, err := w.participantRepository.DeleteInactive(at.Add(-w.threshold))
	if err != nil {
		return nil, fmt.Errorf("deleting inactive participants: %w", err)
	}

	var errs []error
	for _, participant := range evicted {
		w.log.Debug("Participant left", "name", participant.Name, "lastSeen", participant.LastSeen())
		left := domain.NewLeftMessage(participant.Name, at)
		if err = w.messageRepository.StoreMessage(repositories.NewDiskMessage(left, at)); err != nil {
			errs = append(errs, fmt.Errorf("storing departure of %s: %w", participant.Name, err))
		}
	}
	return evicted, errors.Join(errs...)
}
