//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bate-papo/domain"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const messagePrefix = "msg:"

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(viewer string, limit int) ([]DiskMessage, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type DiskMessage struct {
	ID      uuid.UUID
	Message domain.Message
	At      time.Time
}

func NewDiskMessage(message domain.Message, at time.Time) DiskMessage {
	return DiskMessage{ID: uuid.New(), Message: message, At: at}
}

type messageRecord struct {
	ID   string `cbor:"1,keyasint"`
	From string `cbor:"2,keyasint"`
	To   string `cbor:"3,keyasint"`
	Text string `cbor:"4,keyasint"`
	Type string `cbor:"5,keyasint"`
	Time string `cbor:"6,keyasint"`
	At   int64  `cbor:"7,keyasint"`
}

// StoreMessage appends a message to the log.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Keep the log in chronological order using 19-digit zero padding.
//  2. Never overwrite a message when two arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, message.At.UnixNano(), message.ID)
	bytes, err := marshal(fromDiskMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages returns the messages visible to viewer, oldest first.
// With a positive limit the log is scanned backwards and only the most
// recent matching messages are kept; otherwise every match is returned.
func (m MessageRepository) GetMessages(viewer string, limit int) ([]DiskMessage, error) {
	diskMessages := make([]DiskMessage, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = limit > 0
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if options.Reverse {
			// Past the newest key: msg:9999999999999999999
			seekKey = append([]byte(messagePrefix), []byte("9999999999999999999")...)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(diskMessages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			var record messageRecord
			err := it.Item().Value(func(value []byte) error {
				return unmarshal(value, &record)
			})
			if err != nil {
				return err
			}
			diskMessage, err := toDiskMessage(record)
			if err != nil {
				return err
			}
			if diskMessage.Message.VisibleTo(viewer) {
				diskMessages = append(diskMessages, diskMessage)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		return lo.Reverse(diskMessages), nil
	}
	return diskMessages, nil
}

func fromDiskMessage(message DiskMessage) messageRecord {
	return messageRecord{
		ID:   message.ID.String(),
		From: message.Message.From,
		To:   message.Message.To,
		Text: message.Message.Text,
		Type: string(message.Message.Type),
		Time: message.Message.Time,
		At:   message.At.UnixNano(),
	}
}

func toDiskMessage(record messageRecord) (DiskMessage, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID: parsedID,
		Message: domain.Message{
			From: record.From,
			To:   record.To,
			Text: record.Text,
			Type: domain.MessageType(record.Type),
			Time: record.Time,
		},
		At: time.Unix(0, record.At).UTC(),
	}, nil
}
