// Package session owns the signed-in / guest state of the client and the
// keys that persist it.
//
// The manager starts in ModeLoading and leaves it exactly once, when Load
// has read the store or a transition has decided the mode. Consumers that
// gate on identity must call WaitLoaded first.
//
// Storage failures never block a transition: they are logged and the
// in-memory state moves on, so a degraded store only costs persistence
// across restarts.
package session

import (
	"time"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
)

type Mode int

const (
	ModeLoading Mode = iota
	ModeAuthenticated
	ModeGuest
)

func (m Mode) String() string {
	switch m {
	case ModeAuthenticated:
		return "authenticated"
	case ModeGuest:
		return "guest"
	default:
		return "loading"
	}
}

// State is a point-in-time copy of the session.
type State struct {
	Mode  Mode
	Token string
	User  *models.User

	// TokenExpiresAt is read from the token's exp claim; zero if absent.
	TokenExpiresAt time.Time
}
