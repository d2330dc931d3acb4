package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaskStatusPending is the status every task starts in. Status is otherwise
// an open string; nothing enforces transitions.
const TaskStatusPending = "pending"

// RewardKind discriminates the two shapes a reward can take.
type RewardKind string

const (
	// RewardPoints is a bare numeric point value.
	RewardPoints RewardKind = "points"
	// RewardAward is a structured monetary award.
	RewardAward RewardKind = "award"
)

// Award is the structured reward shape.
type Award struct {
	Type        string `json:"type"`
	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

// Reward is either a point value or an Award. The zero value is "no reward"
// and fails Validate. Consumers must switch on Kind.
type Reward struct {
	kind   RewardKind
	points float64
	award  Award
}

// PointsReward builds a bare-number reward.
func PointsReward(points float64) Reward {
	return Reward{kind: RewardPoints, points: points}
}

// AwardReward builds a structured reward.
func AwardReward(a Award) Reward {
	return Reward{kind: RewardAward, award: a}
}

func (r Reward) Kind() RewardKind { return r.kind }

func (r Reward) IsZero() bool { return r.kind == "" }

// Points returns the point value when the reward is a bare number.
func (r Reward) Points() (float64, bool) {
	return r.points, r.kind == RewardPoints
}

// Award returns the structured award when the reward is one.
func (r Reward) Award() (Award, bool) {
	return r.award, r.kind == RewardAward
}

func (r Reward) Validate() error {
	switch r.kind {
	case RewardPoints:
		if r.points < 0 {
			return Invalid("reward", "points must not be negative")
		}
		return nil
	case RewardAward:
		if strings.TrimSpace(r.award.Type) == "" {
			return Invalid("reward", "award type is required")
		}
		return nil
	default:
		return Invalid("reward", "is required")
	}
}

// Display renders the reward for humans.
func (r Reward) Display() string {
	switch r.kind {
	case RewardPoints:
		return formatNumber(r.points) + " points"
	case RewardAward:
		parts := []string{r.award.Type}
		if amount := strings.TrimSpace(r.award.Amount + " " + r.award.Currency); amount != "" {
			parts = append(parts, amount)
		}
		return strings.Join(parts, ": ")
	default:
		return ""
	}
}

// MarshalJSON keeps the stored shapes: a bare number or an object.
func (r Reward) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RewardPoints:
		return json.Marshal(r.points)
	case RewardAward:
		return json.Marshal(r.award)
	default:
		return []byte("null"), nil
	}
}

// awardJSON accepts both the flat shape and the legacy nested
// {"details": {"amount", "currency"}} shape.
type awardJSON struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Details     *struct {
		Amount   json.RawMessage `json:"amount"`
		Currency string          `json:"currency"`
	} `json:"details"`
}

func (r *Reward) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Reward{}
		return nil
	}

	if b[0] == '{' {
		var raw awardJSON
		if err := json.Unmarshal(b, &raw); err != nil {
			return Invalid("reward", "malformed award object")
		}
		a := Award{
			Type:        raw.Type,
			Amount:      rawAmount(raw.Amount),
			Currency:    raw.Currency,
			Description: raw.Description,
		}
		if raw.Details != nil {
			if a.Amount == "" {
				a.Amount = rawAmount(raw.Details.Amount)
			}
			if a.Currency == "" {
				a.Currency = raw.Details.Currency
			}
		}
		*r = AwardReward(a)
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return Invalid("reward", "must be a number or an award object")
	}
	*r = PointsReward(n)
	return nil
}

// rawAmount normalizes an amount given as a JSON string or number.
func rawAmount(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Task is a board item owned by an organization.
type Task struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Category       string     `json:"category"`
	Name           string     `json:"name"`
	Text           string     `json:"text"`
	ForRole        string     `json:"for_role,omitempty"`
	Reward         Reward     `json:"reward"`
	Description    string     `json:"description,omitempty"`
	Explanation    string     `json:"explanation,omitempty"`
	Status         string     `json:"status"`
	ChecklistID    string     `json:"checklist_id,omitempty"`
	AssigneeID     ExternalID `json:"assignee_id,omitempty"`
	CreatedBy      ExternalID `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskDetail is a task joined with its organization and optional checklist.
type TaskDetail struct {
	Task
	Company   *Organization `json:"company"`
	Checklist *Checklist    `json:"checklist,omitempty"`
}

// NewTask carries the fields a task is created from.
type NewTask struct {
	OrganizationID string
	Category       string
	Name           string
	Text           string
	ForRole        string
	Reward         Reward
	Description    string
	Explanation    string
	ChecklistID    string
}

func (n NewTask) Validate() error {
	if strings.TrimSpace(n.OrganizationID) == "" {
		return Invalid("organization_id", "is required")
	}
	if strings.TrimSpace(n.Category) == "" {
		return Invalid("category", "is required")
	}
	if strings.TrimSpace(n.Name) == "" {
		return Invalid("name", "is required")
	}
	if err := n.Reward.Validate(); err != nil {
		return fmt.Errorf("task: %w", err)
	}
	return nil
}
