// internal/model/recipient.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Recipient statuses. A row starts as ready when the audience snapshot is
// saved, flips to sent on a successful dispatch, or to failed on a rejected
// one. Neither terminal state is ever reset by the pipeline.
const (
	RecipientReady  = "ready"
	RecipientSent   = "sent"
	RecipientFailed = "failed"
)

type Recipient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Email      string    `db:"email" json:"email"`
	Status     string    `db:"status" json:"status"`
	Error      string    `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
