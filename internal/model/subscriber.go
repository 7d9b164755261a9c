// internal/model/subscriber.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber statuses.
const (
	SubscriberPending      = "pending"
	SubscriberSubscribed   = "subscribed"
	SubscriberUnsubscribed = "unsubscribed"
)

type Subscriber struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Status    string     `db:"status" json:"status"`
	Tags      []string   `db:"tags" json:"tags"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
