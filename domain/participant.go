// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is a named chat session tracked by its last-seen instant.
// LastStatus is expressed in epoch milliseconds.
type Participant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

func NewParticipant(name string, at time.Time) Participant {
	return Participant{Name: name, LastStatus: at.UnixMilli()}
}

func (p Participant) LastSeen() time.Time {
	return time.UnixMilli(p.LastStatus)
}

// IsStale reports whether the participant has not been seen since cutoff.
func (p Participant) IsStale(cutoff time.Time) bool {
	return p.LastStatus < cutoff.UnixMilli()
}

// Touch renews the liveness timestamp. The timestamp never moves backwards,
// so a heartbeat racing with a clock adjustment keeps the latest value.
func (p Participant) Touch(at time.Time) Participant {
	p.LastStatus = max(p.LastStatus, at.UnixMilli())
	return p
}
