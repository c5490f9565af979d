// Package domain contains core concepts of the relay.
// This file defines Identity and roster types.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"math/rand/v2"
)

// Identity is the opaque per-connection token. It is assigned by the
// registry at connect time, never chosen by the client, and dies with
// the connection.
type Identity string

// RosterEntry is one line of the online-users snapshot.
type RosterEntry struct {
	ID       Identity
	Username string
}

// DefaultUsername returns a random placeholder name for a connection
// that has not confirmed a display name yet.
func DefaultUsername() string {
	return fmt.Sprintf("User-%d", rand.IntN(1000))
}
