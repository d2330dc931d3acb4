package domain

import "strings"

// DefaultExternalIDPrefix is the shape marker the identity provider puts in
// front of every user id it issues.
const DefaultExternalIDPrefix = "user_"

// ExternalID is the stable identifier issued by the identity provider.
// Conversation and message participants are always keyed by it.
type ExternalID string

// UserID is the storage id of a user document.
type UserID string

func (id ExternalID) String() string { return string(id) }

func (id UserID) String() string { return string(id) }

// HasExternalShape reports whether candidate already looks like an external id.
func HasExternalShape(candidate, prefix string) bool {
	if prefix == "" {
		prefix = DefaultExternalIDPrefix
	}
	return len(candidate) > len(prefix) && strings.HasPrefix(candidate, prefix)
}

// Actor is the authenticated caller of an operation. It is passed explicitly
// into every service call instead of being read from ambient state.
type Actor struct {
	ExternalID ExternalID
	Email      string
	Name       string
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool { return a.ExternalID != "" }

// Require fails closed when no identity is present.
func (a Actor) Require() error {
	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}
