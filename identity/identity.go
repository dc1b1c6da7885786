// Package identity derives the durable visitor token and the per-session
// token used to tag telemetry. Tokens are created lazily on first use and
// persisted in the caller-supplied storage scopes; if a scope is unusable the
// resolver returns an empty placeholder and telemetry degrades silently.
package identity

import (
	"log"

	"github.com/google/uuid"
)

const (
	// Storage keys, fixed so tokens survive client restarts.
	VisitorKey = "cathedral-visitor-id"
	SessionKey = "cathedral-session-id"
)

// Storage is the minimal contract for a token scope. Get returns ok=false
// when the key has no value; errors mean the scope itself is unusable.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Resolver resolves visitor and session tokens against two storage scopes:
// a durable one that outlives sessions and a session-scoped one that is
// cleared when the browsing context ends.
type Resolver struct {
	durable Storage
	session Storage
}

func NewResolver(durable, session Storage) *Resolver {
	return &Resolver{durable: durable, session: session}
}

// VisitorID returns the durable visitor token, generating and persisting one
// on first call. Repeated calls against the same scope return the same token.
func (r *Resolver) VisitorID() string {
	return resolve(r.durable, VisitorKey)
}

// SessionID returns the session token with the same lazy-create semantics as
// VisitorID, against the session-scoped storage.
func (r *Resolver) SessionID() string {
	return resolve(r.session, SessionKey)
}

func resolve(s Storage, key string) string {
	if s == nil {
		return ""
	}
	token, ok, err := s.Get(key)
	if err != nil {
		log.Printf("identity: reading %s failed: %v", key, err)
		return ""
	}
	if ok && token != "" {
		return token
	}
	token = uuid.New().String()
	if err := s.Set(key, token); err != nil {
		// An unpersisted token would mint a new "visitor" on every call, so
		// degrade to the empty placeholder instead.
		log.Printf("identity: persisting %s failed: %v", key, err)
		return ""
	}
	return token
}
