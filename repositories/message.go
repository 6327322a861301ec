package repositories

import (
	"batepapo/domain"
	"batepapo/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	messagePrefix   = "msg:"
	messageIDPrefix = "msgid:"
	messageSeqKey   = "seq:msg"
	seqBandwidth    = 64
)

type IMessageRepository interface {
	Append(draft domain.Draft, now time.Time) (domain.Message, error)
	Get(id uuid.UUID) (domain.Message, error)
	Edit(id uuid.UUID, actor string, patch domain.Patch) (domain.Message, error)
	Delete(id uuid.UUID, actor string) error
	List(filter domain.Filter) ([]domain.Message, error)
	Close() error
}

// MessageRepository persists the message log in BadgerDB.
//
// The primary key is "msg:{seq_padded}" so a prefix scan yields messages
// in creation order; seq comes from a badger Sequence and is strictly
// increasing even when two messages share the same wall-clock second.
// A secondary "msgid:{uuid}" entry points at the primary key for lookups
// by id. The primary key never changes, so edits keep their position.
type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewMessageRepository(db *badger.DB) (MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), seqBandwidth)
	if err != nil {
		return MessageRepository{}, mapStorage(err)
	}
	return MessageRepository{db: db, seq: seq}, nil
}

// Close releases the unused part of the sequence lease.
func (m MessageRepository) Close() error {
	return m.seq.Release()
}

// messageRecord is the stored document. Field names follow the original
// collection schema; type carries the wire kind value.
type messageRecord struct {
	ID   string `json:"id"`
	Seq  uint64 `json:"seq"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Kind string `json:"type"`
	At   int64  `json:"at"` // unix nanoseconds, immutable
}

func messageKey(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", messagePrefix, seq)
}

func messageIDKey(id uuid.UUID) []byte {
	return []byte(messageIDPrefix + id.String())
}

// Append assigns id and seq, stamps the creation time and stores the
// message. Both the document and its id index are written in one
// transaction.
func (m MessageRepository) Append(draft domain.Draft, now time.Time) (domain.Message, error) {
	seq, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, mapStorage(err)
	}
	msg := domain.Message{
		ID:        uuid.New(),
		Seq:       seq,
		From:      draft.From,
		To:        draft.To,
		Text:      draft.Text,
		Kind:      draft.Kind,
		CreatedAt: now.UTC(),
	}
	data, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, mapStorage(err)
	}
	err = update(m.db, func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(msg.Seq), data); err != nil {
			return err
		}
		return txn.Set(messageIDKey(msg.ID), messageKey(msg.Seq))
	})
	if err != nil {
		return domain.Message{}, mapStorage(err)
	}
	return msg, nil
}

func (m MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		record, err := readMessage(txn, id)
		if err != nil {
			return err
		}
		msg, err = toMessage(record)
		return err
	})
	if err != nil {
		return domain.Message{}, mapStorage(err)
	}
	return msg, nil
}

// Edit rewrites the author-editable fields. Load, ownership check,
// patch, revalidation and store happen in a single transaction, so a
// failed step leaves the message untouched.
func (m MessageRepository) Edit(id uuid.UUID, actor string, patch domain.Patch) (domain.Message, error) {
	var edited domain.Message
	err := update(m.db, func(txn *badger.Txn) error {
		record, err := readMessage(txn, id)
		if err != nil {
			return err
		}
		current, err := toMessage(record)
		if err != nil {
			return err
		}
		if !domain.CanMutate(current, actor) {
			return errors.ErrForbidden
		}
		edited = patch.Apply(current)
		if err := domain.ValidateEdited(edited); err != nil {
			return err
		}
		data, err := json.Marshal(fromMessage(edited))
		if err != nil {
			return err
		}
		return txn.Set(messageKey(edited.Seq), data)
	})
	if err != nil {
		return domain.Message{}, mapStorage(err)
	}
	return edited, nil
}

// Delete removes the message and its id index if actor is the author.
func (m MessageRepository) Delete(id uuid.UUID, actor string) error {
	err := update(m.db, func(txn *badger.Txn) error {
		record, err := readMessage(txn, id)
		if err != nil {
			return err
		}
		current, err := toMessage(record)
		if err != nil {
			return err
		}
		if !domain.CanMutate(current, actor) {
			return errors.ErrForbidden
		}
		if err := txn.Delete(messageKey(current.Seq)); err != nil {
			return err
		}
		return txn.Delete(messageIDKey(id))
	})
	return mapStorage(err)
}

// List walks the log newest-first, keeps only messages visible to the
// viewer and stops once the limit of visible messages is reached, so a
// private conversation never starves a public one out of a bounded
// page. Results come back oldest-first unless the filter says otherwise.
func (m MessageRepository) List(filter domain.Filter) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(messagePrefix)
		// Reverse iteration: seek past the last possible seq, then walk back.
		seekKey := append([]byte(messagePrefix), []byte("99999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if filter.Limit > 0 && len(messages) == filter.Limit {
				break
			}
			var record messageRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			msg, err := toMessage(record)
			if err != nil {
				return err
			}
			if !domain.IsVisible(msg, filter.Viewer) {
				continue
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, mapStorage(err)
	}

	if !filter.NewestFirst {
		messages = lo.Reverse(messages)
	}
	return messages, nil
}

// readMessage resolves the id index and loads the document.
func readMessage(txn *badger.Txn, id uuid.UUID) (messageRecord, error) {
	item, err := txn.Get(messageIDKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return messageRecord{}, errors.ErrNotFound
	}
	if err != nil {
		return messageRecord{}, err
	}
	var primaryKey []byte
	if err := item.Value(func(val []byte) error {
		primaryKey = append([]byte(nil), val...)
		return nil
	}); err != nil {
		return messageRecord{}, err
	}
	item, err = txn.Get(primaryKey)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return messageRecord{}, errors.ErrNotFound
	}
	if err != nil {
		return messageRecord{}, err
	}
	var record messageRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	return record, err
}

func fromMessage(msg domain.Message) messageRecord {
	return messageRecord{
		ID:   msg.ID.String(),
		Seq:  msg.Seq,
		From: msg.From,
		To:   msg.To,
		Text: msg.Text,
		Kind: string(msg.Kind),
		At:   msg.CreatedAt.UnixNano(),
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Seq:       record.Seq,
		From:      record.From,
		To:        record.To,
		Text:      record.Text,
		Kind:      domain.Kind(record.Kind),
		CreatedAt: time.Unix(0, record.At).UTC(),
	}, nil
}
