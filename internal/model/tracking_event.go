// internal/model/tracking_event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEvent is an open or click recorded for a campaign email.
type TrackingEvent struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Email      string    `db:"email" json:"email"`
	Event      string    `db:"event" json:"event"` // open, click
	URL        string    `db:"url" json:"url,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
