// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses. Transitions for a single send attempt are monotonic:
// draft/scheduled -> sending -> sent|failed.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

type Campaign struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Subject      string     `db:"subject" json:"subject"`
	Content      string     `db:"content" json:"content"` // markdown
	CTAText      string     `db:"cta_text" json:"cta_text,omitempty"`
	CTAURL       string     `db:"cta_url" json:"cta_url,omitempty"`
	Status       string     `db:"status" json:"status"`
	TargetStatus []string   `db:"target_status" json:"target_status"`
	TargetTags   []string   `db:"target_tags" json:"target_tags"`
	SentCount    *int       `db:"sent_count" json:"sent_count,omitempty"`
	Error        string     `db:"error" json:"error,omitempty"`
	ScheduledAt  *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
