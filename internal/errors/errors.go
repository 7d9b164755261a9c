// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMailerUnavailable means the email provider is not configured; checked
// before any state mutation.
var ErrMailerUnavailable = errors.New("email system unavailable")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// ErrAlreadySent rejects a send for a campaign already in status "sent".
type ErrAlreadySent struct {
	CampaignID uuid.UUID
}

func (e *ErrAlreadySent) Error() string {
	return fmt.Sprintf("campaign %s has already been sent", e.CampaignID)
}

// ErrAlreadySending rejects a send for a campaign already in status "sending".
type ErrAlreadySending struct {
	CampaignID uuid.UUID
}

func (e *ErrAlreadySending) Error() string {
	return fmt.Sprintf("campaign %s is already sending", e.CampaignID)
}

// ErrNoRecipients means audience resolution produced an empty set. An empty
// send is a terminal failure, not a no-op success.
type ErrNoRecipients struct {
	CampaignID uuid.UUID
}

func (e *ErrNoRecipients) Error() string {
	return fmt.Sprintf("campaign %s has no recipients", e.CampaignID)
}

// Helper constructors
func NewCampaignNotFound(id uuid.UUID) error { return &ErrCampaignNotFound{CampaignID: id} }
func NewAlreadySent(id uuid.UUID) error      { return &ErrAlreadySent{CampaignID: id} }
func NewAlreadySending(id uuid.UUID) error   { return &ErrAlreadySending{CampaignID: id} }
func NewNoRecipients(id uuid.UUID) error     { return &ErrNoRecipients{CampaignID: id} }

// IsNotFound reports whether err is a campaign-not-found error.
func IsNotFound(err error) bool {
	var e *ErrCampaignNotFound
	return errors.As(err, &e)
}

// IsPrecondition reports whether err is one of the send precondition
// failures (already sent/sending, no recipients). Used by the worker to
// decide against requeueing a job.
func IsPrecondition(err error) bool {
	var sent *ErrAlreadySent
	var sending *ErrAlreadySending
	var empty *ErrNoRecipients
	return errors.As(err, &sent) || errors.As(err, &sending) || errors.As(err, &empty)
}
