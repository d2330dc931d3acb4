package domain

import "time"

// Account is a credential record of the built-in identity provider. The
// application never reads it outside the accounts flow; everything else keys
// on ExternalID.
type Account struct {
	ID           string     `json:"id"`
	ExternalID   ExternalID `json:"external_id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
