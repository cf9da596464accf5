package repositories

import (
	"bate-papo/domain"

	"github.com/dgraph-io/badger/v4"
)

// ScanParticipants walks the participant collection in key order without
// going through a repository, for offline tooling on a read-only store.
func ScanParticipants(db *badger.DB, fn func(participant domain.Participant) error) error {
	return db.View(func(txn *badger.Txn) error {
		return iterateParticipants(txn, func(_ []byte, participant domain.Participant) error {
			return fn(participant)
		})
	})
}

// ScanMessages walks the whole message log, oldest first, ignoring visibility.
func ScanMessages(db *badger.DB, fn func(key string, message DiskMessage) error) error {
	return db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var record messageRecord
			if err := item.Value(func(val []byte) error {
				return unmarshal(val, &record)
			}); err != nil {
				return err
			}
			diskMessage, err := toDiskMessage(record)
			if err != nil {
				return err
			}
			if err = fn(string(item.Key()), diskMessage); err != nil {
				return err
			}
		}
		return nil
	})
}
