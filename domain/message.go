package domain

import "time"

// TimestampLayout is the wire format of Message.Timestamp.
const TimestampLayout = time.DateTime

// Message represents an immutable chat entry.
// Seq is the 1-based position in the history and never leaves the server.
type Message struct {
	Seq       uint64    `json:"-"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
	At        time.Time `json:"-"`
}

func NewMessage(seq uint64, sender, content string, at time.Time) Message {
	return Message{
		Seq:       seq,
		Sender:    sender,
		Content:   content,
		Timestamp: at.Format(TimestampLayout),
		At:        at,
	}
}
