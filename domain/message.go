// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates message categories. The string values are the
// original wire values and must not change.
type Kind string

const (
	KindPublic  Kind = "message"
	KindPrivate Kind = "private_message"
	KindStatus  Kind = "status"
)

// Room notice texts kept verbatim from the original service.
const (
	EnteredText = "entra na sala..."
	LeftText    = "sai da sala..."
)

// Message is a chat event. ID, Seq, From and CreatedAt are fixed at
// creation; To, Text and Kind may be rewritten by the author.
type Message struct {
	ID        uuid.UUID
	Seq       uint64 // authoritative ordering, strictly increasing across the log
	From      string
	To        string
	Text      string
	Kind      Kind
	CreatedAt time.Time
}

// DisplayTime renders the wall-clock form shown to users (HH:MM:SS).
// Display only: two messages may share it, Seq decides order.
func (m Message) DisplayTime() string {
	return m.CreatedAt.Format("15:04:05")
}

// Draft is a message before the log assigns identity and order.
type Draft struct {
	From string
	To   string
	Text string
	Kind Kind
}

// EnteredStatus is the synthetic notice appended when name joins the room.
func EnteredStatus(name string) Draft {
	return Draft{From: name, To: Everyone, Text: EnteredText, Kind: KindStatus}
}

// LeftStatus is the synthetic notice appended when name leaves or is evicted.
func LeftStatus(name string) Draft {
	return Draft{From: name, To: Everyone, Text: LeftText, Kind: KindStatus}
}

// Patch carries the author-editable fields of a message. Nil fields are
// left untouched.
type Patch struct {
	To   *string
	Text *string
	Kind *Kind
}

// Apply returns a copy of m with the patched fields rewritten.
func (p Patch) Apply(m Message) Message {
	if p.To != nil {
		m.To = *p.To
	}
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Kind != nil {
		m.Kind = *p.Kind
	}
	return m
}

// Filter selects messages for a viewer. A zero Limit means no bound;
// otherwise the most recent Limit visible messages are kept. Results are
// oldest-first unless NewestFirst is set.
type Filter struct {
	Viewer      string
	Limit       int
	NewestFirst bool
}
