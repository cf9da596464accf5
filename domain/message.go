// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once appended to the log.
package domain

import "time"

// BroadcastRecipient is the "to" value meaning visible to everyone in the room.
const BroadcastRecipient = "Todos"

// TimeLayout renders the human-readable time of day carried by every event.
const TimeLayout = "15:04:05"

const (
	JoinedText = "joined"
	LeftText   = "left"
)

type MessageType string

const (
	PublicMessage  MessageType = "message"
	PrivateMessage MessageType = "private_message"
	StatusMessage  MessageType = "status"
)

// IsUserSubmittable reports whether participants may post this type.
// Status events are reserved for the system.
func (t MessageType) IsUserSubmittable() bool {
	return t == PublicMessage || t == PrivateMessage
}

// Message represents an immutable chat event.
type Message struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Time string      `json:"time"`
}

func NewMessage(from, to, text string, messageType MessageType, at time.Time) Message {
	return Message{
		From: from,
		To:   to,
		Text: text,
		Type: messageType,
		Time: at.Format(TimeLayout),
	}
}

// NewJoinedMessage is the status event appended when a participant registers.
func NewJoinedMessage(name string, at time.Time) Message {
	return NewMessage(name, BroadcastRecipient, JoinedText, StatusMessage, at)
}

// NewLeftMessage is the status event appended when a participant is evicted.
func NewLeftMessage(name string, at time.Time) Message {
	return NewMessage(name, BroadcastRecipient, LeftText, StatusMessage, at)
}

// VisibleTo applies the room visibility rule: the viewer sees its own events,
// broadcasts, events addressed to it, and every typed chat message.
// Only status events addressed to somebody else stay hidden.
func (m Message) VisibleTo(viewer string) bool {
	switch {
	case m.From == viewer:
		return true
	case m.To == BroadcastRecipient, m.To == viewer:
		return true
	case m.Type == PublicMessage, m.Type == PrivateMessage:
		return true
	default:
		return false
	}
}
