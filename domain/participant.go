// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Everyone is the reserved broadcast target for public and status messages.
const Everyone = "Todos"

// Participant is a registered, currently-present chat identity.
// Name is the primary key: no two present participants share one.
type Participant struct {
	Name          string
	LastHeartbeat time.Time
}

// Stale reports whether the participant missed the liveness window ending at now.
func (p Participant) Stale(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastHeartbeat) >= timeout
}
