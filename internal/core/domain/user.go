package domain

import (
	"regexp"
	"strings"
	"time"
)

// User is the application's view of a person. It is created on the first
// authenticated request and mutated by onboarding and profile edits.
type User struct {
	ID          UserID     `json:"id"`
	ExternalID  ExternalID `json:"external_id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email,omitempty"`
	Username    string     `json:"username,omitempty"`
	Age         int        `json:"age,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	Interests   []string   `json:"interests,omitempty"`
	Links       []string   `json:"links,omitempty"`
	// ImageRefs are opaque storage references; resolve them through the
	// upload service before rendering.
	ImageRefs []string  `json:"image_refs,omitempty"`
	Onboarded bool      `json:"onboarded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch carries the optional fields of a profile edit. Nil means
// "leave unchanged".
type ProfilePatch struct {
	Username    *string
	DisplayName *string
	Age         *int
	Bio         *string
	Interests   []string
	Links       []string
	ImageRefs   []string
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// NormalizeUsername lowercases and trims a username candidate.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateUsername checks the already-normalized form.
func ValidateUsername(s string) error {
	if !usernamePattern.MatchString(s) {
		return Invalid("username", "must be 3-30 characters of a-z, 0-9, '_' or '.'")
	}
	return nil
}

// Validate checks the patch and normalizes the username in place.
func (p *ProfilePatch) Validate() error {
	if p.Username != nil {
		u := NormalizeUsername(*p.Username)
		if err := ValidateUsername(u); err != nil {
			return err
		}
		p.Username = &u
	}
	if p.DisplayName != nil && strings.TrimSpace(*p.DisplayName) == "" {
		return Invalid("display_name", "must not be blank")
	}
	if p.Age != nil && (*p.Age < 13 || *p.Age > 120) {
		return Invalid("age", "must be between 13 and 120")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Username == nil && p.DisplayName == nil && p.Age == nil && p.Bio == nil &&
		p.Interests == nil && p.Links == nil && p.ImageRefs == nil
}
