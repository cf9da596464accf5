//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"bate-papo/domain"
	"bate-papo/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const participantPrefix = "participant:"

type IParticipantRepository interface {
	CreateParticipant(participant domain.Participant) error
	GetParticipant(name string) (domain.Participant, error)
	ListParticipants() ([]domain.Participant, error)
	TouchParticipant(name string, at time.Time) (domain.Participant, error)
	DeleteInactive(cutoff time.Time) ([]domain.Participant, error)
}

type ParticipantRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger) ParticipantRepository {
	return ParticipantRepository{db: db, log: log}
}

type participantRecord struct {
	Name       string `cbor:"1,keyasint"`
	LastStatus int64  `cbor:"2,keyasint"`
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// CreateParticipant inserts a participant under "participant:{name}".
// The existence check and the write share one transaction: a concurrent
// registration of the same name makes the losing commit fail with
// badger.ErrConflict, which is reported as ErrParticipantAlreadyExists.
func (r ParticipantRepository) CreateParticipant(participant domain.Participant) error {
	data, err := marshal(participantRecord(participant))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := participantKey(participant.Name)
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return errors.ErrParticipantAlreadyExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, data)
	})

	switch {
	case errors.Is(err, errors.ErrParticipantAlreadyExists):
		return fmt.Errorf("%w: %s", errors.ErrParticipantAlreadyExists, participant.Name)
	case errors.Is(err, badger.ErrConflict):
		r.log.Debug("Concurrent registration lost the race", "name", participant.Name)
		return fmt.Errorf("%w: %s", errors.ErrParticipantAlreadyExists, participant.Name)
	}
	return err
}

func (r ParticipantRepository) GetParticipant(name string) (domain.Participant, error) {
	var participant domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		participant, err = getParticipant(txn, name)
		return err
	})
	return participant, err
}

// ListParticipants returns every participant in key order.
func (r ParticipantRepository) ListParticipants() ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		return iterateParticipants(txn, func(_ []byte, participant domain.Participant) error {
			participants = append(participants, participant)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// TouchParticipant renews the liveness timestamp of an existing participant.
// A conflicting concurrent heartbeat is retried once.
func (r ParticipantRepository) TouchParticipant(name string, at time.Time) (domain.Participant, error) {
	participant, err := r.touch(name, at)
	if errors.Is(err, badger.ErrConflict) {
		r.log.Debug("Heartbeat conflicted, retrying", "name", name)
		participant, err = r.touch(name, at)
	}
	return participant, err
}

func (r ParticipantRepository) touch(name string, at time.Time) (domain.Participant, error) {
	var participant domain.Participant
	err := r.db.Update(func(txn *badger.Txn) error {
		current, err := getParticipant(txn, name)
		if err != nil {
			return err
		}
		participant = current.Touch(at)
		data, err := marshal(participantRecord(participant))
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(participantKey(name), data)
	})
	return participant, err
}

// DeleteInactive removes every participant whose last heartbeat is older
// than cutoff and returns the evicted participants.
// Candidates are found in a read-only scan, then re-read and deleted in one
// transaction that only touches their keys: heartbeats from other participants
// never conflict with the sweep. A candidate that heartbeated in between is
// kept, and a conflicting pass is retried once.
func (r ParticipantRepository) DeleteInactive(cutoff time.Time) ([]domain.Participant, error) {
	var candidates []string
	err := r.db.View(func(txn *badger.Txn) error {
		return iterateParticipants(txn, func(_ []byte, participant domain.Participant) error {
			if participant.IsStale(cutoff) {
				candidates = append(candidates, participant.Name)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	evicted, err := r.deleteStale(candidates, cutoff)
	if errors.Is(err, badger.ErrConflict) {
		r.log.Debug("Sweep conflicted with a heartbeat, retrying", "candidates", len(candidates))
		evicted, err = r.deleteStale(candidates, cutoff)
	}
	if err != nil {
		return nil, err
	}
	return evicted, nil
}

func (r ParticipantRepository) deleteStale(names []string, cutoff time.Time) ([]domain.Participant, error) {
	var evicted []domain.Participant
	err := r.db.Update(func(txn *badger.Txn) error {
		evicted = nil
		for _, name := range names {
			participant, err := getParticipant(txn, name)
			if errors.Is(err, errors.ErrParticipantNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !participant.IsStale(cutoff) {
				continue
			}
			if err = txn.Delete(participantKey(name)); err != nil {
				return err
			}
			evicted = append(evicted, participant)
		}
		return nil
	})
	return evicted, err
}

func getParticipant(txn *badger.Txn, name string) (domain.Participant, error) {
	item, err := txn.Get(participantKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Participant{}, fmt.Errorf("%w: %s", errors.ErrParticipantNotFound, name)
	}
	if err != nil {
		return domain.Participant{}, err
	}
	var record participantRecord
	if err = item.Value(func(val []byte) error {
		return unmarshal(val, &record)
	}); err != nil {
		return domain.Participant{}, err
	}
	return domain.Participant(record), nil
}

// iterateParticipants calls fn with a copy of each key, safe to keep after
// the iterator moves on.
func iterateParticipants(txn *badger.Txn, fn func(key []byte, participant domain.Participant) error) error {
	prefix := []byte(participantPrefix)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var record participantRecord
		if err := item.Value(func(val []byte) error {
			return unmarshal(val, &record)
		}); err != nil {
			return err
		}
		if err := fn(item.KeyCopy(nil), domain.Participant(record)); err != nil {
			return err
		}
	}
	return nil
}
