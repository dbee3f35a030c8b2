// Package session carries the authenticated caller's identity explicitly.
// The core scheduling and booking operations take practitioner/patient ids as
// parameters; the session only answers "who is calling and in what role" and
// is never read from package-level state.
package session

import (
	"context"

	"github.com/google/uuid"
)

// Role is the portal role of the authenticated user.
type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
	RoleAdmin        Role = "admin"
)

// Valid reports whether the role is one of the known portal roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RolePractitioner, RoleAdmin:
		return true
	}
	return false
}

// Session identifies one authenticated request.
type Session struct {
	UserID uuid.UUID
	Role   Role
	Email  string
	Name   string
}

// ActsFor reports whether the session may act on behalf of the given user id:
// admins always, everyone else only for themselves.
func (s *Session) ActsFor(userID uuid.UUID) bool {
	if s == nil {
		return false
	}
	return s.Role == RoleAdmin || s.UserID == userID
}

type contextKey struct{}

// WithSession attaches the session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to the context, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
