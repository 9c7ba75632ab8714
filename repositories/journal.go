package repositories

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	messagePrefix = "msg:"
	eventPrefix   = "evt:"
)

var _ contract.IJournal = JournalRepository{}

type JournalRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewJournalRepository(db *badger.DB, log *slog.Logger) JournalRepository {
	return JournalRepository{db: db, log: log}
}

// DiskMessage is the journal form of a message: unlike the wire form it keeps
// the sequence number and the full acceptance time.
type DiskMessage struct {
	Seq     uint64    `json:"seq"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// StoreMessage persists a message under "msg:{seq_padded}".
// The 19-digit zero padding keeps lexicographical order equal to arrival order.
func (j JournalRepository) StoreMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.Seq), bytes)
	})
}

// StoreEvent writes the latest state of an event under "evt:{id_padded}".
// An RSVP toggle overwrites the previous version.
func (j JournalRepository) StoreEvent(evt domain.Event) error {
	bytes, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(evt.ID), bytes)
	})
}

// Load replays the whole journal, oldest first.
func (j JournalRepository) Load() ([]domain.Message, []domain.Event, error) {
	messages := []domain.Message{}
	events := []domain.Event{}
	err := j.db.View(func(txn *badger.Txn) error {
		if err := scan(txn, messagePrefix, false, 0, func(value []byte) error {
			var dm DiskMessage
			if err := json.Unmarshal(value, &dm); err != nil {
				return err
			}
			messages = append(messages, toMessage(dm))
			return nil
		}); err != nil {
			return err
		}
		return scan(txn, eventPrefix, false, 0, func(value []byte) error {
			var evt domain.Event
			if err := json.Unmarshal(value, &evt); err != nil {
				return err
			}
			if evt.RSVPs == nil {
				evt.RSVPs = []string{}
			}
			events = append(events, evt)
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	j.log.Debug(fmt.Sprintf("Journal replayed: %d messages, %d events", len(messages), len(events)))
	return messages, events, nil
}

// Tail returns at most limit of the latest messages, newest first.
func (j JournalRepository) Tail(limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := j.db.View(func(txn *badger.Txn) error {
		return scan(txn, messagePrefix, true, limit, func(value []byte) error {
			var dm DiskMessage
			if err := json.Unmarshal(value, &dm); err != nil {
				return err
			}
			messages = append(messages, toMessage(dm))
			return nil
		})
	})
	return messages, err
}

// scan iterates over a key prefix. A zero limit means no limit.
func scan(txn *badger.Txn, prefix string, reverse bool, limit int, fn func(value []byte) error) error {
	options := badger.DefaultIteratorOptions
	options.Reverse = reverse
	it := txn.NewIterator(options)
	defer it.Close()

	p := []byte(prefix)
	seek := p
	if reverse {
		// Let's start after the highest possible key msg:9999999999999999999
		seek = append([]byte(prefix), []byte("9999999999999999999")...)
	}
	count := 0
	for it.Seek(seek); it.ValidForPrefix(p); it.Next() {
		if limit > 0 && count == limit {
			break
		}
		if err := it.Item().Value(fn); err != nil {
			return err
		}
		count++
	}
	return nil
}

func messageKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%019d", messagePrefix, seq))
}

func eventKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%019d", eventPrefix, id))
}

func fromMessage(m domain.Message) DiskMessage {
	return DiskMessage{Seq: m.Seq, Sender: m.Sender, Content: m.Content, At: m.At}
}

func toMessage(dm DiskMessage) domain.Message {
	return domain.NewMessage(dm.Seq, dm.Sender, dm.Content, dm.At)
}
