package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a request identifier.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether id is a UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const sessionPrefix = "ws_"

// SessionID names one websocket session in logs.
type SessionID string

// NewSession generates a session identifier, distinguishable from request ids.
func NewSession() SessionID {
	return SessionID(sessionPrefix + uuid.NewString())
}

// Valid reports whether id was produced by NewSession.
func (id SessionID) Valid() bool {
	rest, ok := strings.CutPrefix(string(id), sessionPrefix)
	return ok && IsValid(rest)
}

func (id SessionID) String() string {
	return string(id)
}
