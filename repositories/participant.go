package repositories

import (
	"batepapo/domain"
	"batepapo/errors"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const participantPrefix = "user:"

type IParticipantRepository interface {
	Join(name string, now time.Time) (domain.Participant, error)
	Heartbeat(name string, now time.Time) error
	Present(name string) (bool, error)
	List() ([]domain.Participant, error)
	Remove(name string) (bool, error)
	RemoveStale(name string, cutoff time.Time) (bool, error)
}

// ParticipantRepository keeps the presence registry in BadgerDB, one
// document per participant keyed by name.
type ParticipantRepository struct {
	db *badger.DB
}

func NewParticipantRepository(db *badger.DB) ParticipantRepository {
	return ParticipantRepository{db: db}
}

// participantRecord is the stored document. The lastStatus field name
// matches the original collection schema.
type participantRecord struct {
	Name          string `json:"name"`
	LastHeartbeat int64  `json:"lastStatus"` // unix milliseconds
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// Join inserts the participant if the name is free. The existence check
// and the insert run in one transaction, so two concurrent joins with
// the same name cannot both succeed.
func (r ParticipantRepository) Join(name string, now time.Time) (domain.Participant, error) {
	data, err := json.Marshal(participantRecord{Name: name, LastHeartbeat: now.UnixMilli()})
	if err != nil {
		return domain.Participant{}, mapStorage(err)
	}
	err = update(r.db, func(txn *badger.Txn) error {
		key := participantKey(name)
		_, err := txn.Get(key)
		if err == nil {
			return errors.ErrAlreadyPresent
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return domain.Participant{}, mapStorage(err)
	}
	return domain.Participant{Name: name, LastHeartbeat: now.UTC()}, nil
}

// Heartbeat advances LastHeartbeat to now. It never rewinds: a stale
// clock reading leaves the stored value untouched.
func (r ParticipantRepository) Heartbeat(name string, now time.Time) error {
	err := update(r.db, func(txn *badger.Txn) error {
		key := participantKey(name)
		record, err := readParticipant(txn, key)
		if err != nil {
			return err
		}
		if now.UnixMilli() <= record.LastHeartbeat {
			return nil
		}
		record.LastHeartbeat = now.UnixMilli()
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	return mapStorage(err)
}

func (r ParticipantRepository) Present(name string) (bool, error) {
	present := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(name))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		present = true
		return nil
	})
	return present, mapStorage(err)
}

// List snapshots all present participants. Storage order is the key
// order, not insertion order; callers must not rely on it.
func (r ParticipantRepository) List() ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(participantPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record participantRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			participants = append(participants, toParticipant(record))
		}
		return nil
	})
	if err != nil {
		return nil, mapStorage(err)
	}
	return participants, nil
}

// Remove deletes the participant unconditionally and reports whether a
// removal actually happened. Used for explicit departures.
func (r ParticipantRepository) Remove(name string) (bool, error) {
	removed := false
	err := update(r.db, func(txn *badger.Txn) error {
		removed = false
		key := participantKey(name)
		_, err := txn.Get(key)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, mapStorage(err)
	}
	return removed, nil
}

// RemoveStale deletes the participant only if its stored heartbeat is
// still at or before cutoff at removal time. A heartbeat racing the
// reaper either commits first and keeps the participant, or loses and
// the eviction stands; the transaction re-reads, so the decision is
// never based on a stale snapshot.
func (r ParticipantRepository) RemoveStale(name string, cutoff time.Time) (bool, error) {
	removed := false
	err := update(r.db, func(txn *badger.Txn) error {
		removed = false
		key := participantKey(name)
		record, err := readParticipant(txn, key)
		if stderrors.Is(err, errors.ErrNotFound) {
			// already gone, lost race with another pass
			return nil
		}
		if err != nil {
			return err
		}
		if record.LastHeartbeat > cutoff.UnixMilli() {
			// heartbeat won
			return nil
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, mapStorage(err)
	}
	return removed, nil
}

func readParticipant(txn *badger.Txn, key []byte) (participantRecord, error) {
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return participantRecord{}, errors.ErrNotFound
	}
	if err != nil {
		return participantRecord{}, err
	}
	var record participantRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	return record, err
}

func toParticipant(record participantRecord) domain.Participant {
	return domain.Participant{
		Name:          record.Name,
		LastHeartbeat: time.UnixMilli(record.LastHeartbeat).UTC(),
	}
}
