package domain

import (
	"strings"
	"time"
)

// Organization owns a board of tasks. AdminID is the external id of the
// member allowed to manage it.
type Organization struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	LogoRef     string     `json:"logo_ref,omitempty"`
	AdminID     ExternalID `json:"admin_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsAdmin reports whether id manages the organization.
func (o *Organization) IsAdmin(id ExternalID) bool {
	return id != "" && o.AdminID == id
}

// OrganizationPatch holds optional organization fields.
type OrganizationPatch struct {
	Name        *string
	Description *string
	LogoRef     *string
}

func (p OrganizationPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Invalid("name", "must not be blank")
	}
	return nil
}

func (p OrganizationPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.LogoRef == nil
}

// Checklist is an ordered list of steps a task can reference.
type Checklist struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Items          []string  `json:"items"`
	CreatedAt      time.Time `json:"created_at"`
}
