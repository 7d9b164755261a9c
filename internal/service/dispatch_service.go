// internal/service/dispatch_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/streetlayer/newsletter-service/internal/errors"
	"github.com/streetlayer/newsletter-service/internal/mailer"
	"github.com/streetlayer/newsletter-service/internal/model"
	"github.com/streetlayer/newsletter-service/internal/repository"
)

const (
	// DefaultBatchSize is how many addresses go into one batch before the
	// inter-batch delay kicks in.
	DefaultBatchSize = 50

	// maxErrorSamples caps how many per-recipient errors end up in the
	// persisted error summary.
	maxErrorSamples = 5
)

// AudienceResolver is what the dispatcher needs from the audience side.
type AudienceResolver interface {
	ResolveAudience(campaignID uuid.UUID) ([]string, error)
}

// Dispatcher executes one end-to-end send attempt for one campaign.
// Everything it touches is injected so tests can run with fakes and an
// instant clock.
type Dispatcher struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Audience     AudienceResolver
	Mailer       mailer.Mailer
	Renderer     *Renderer
	Throttle     *Throttle
	BatchSize    int
}

// SendResult is the aggregate outcome of one send attempt.
type SendResult struct {
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
	Total  int    `json:"total"`
	Status string `json:"status"`
}

type sendAttempt struct {
	email   string
	success bool
	err     string
}

// SendCampaign runs preconditions, resolves the audience, transitions the
// campaign to sending, dispatches sequentially in throttled batches, and
// persists the final aggregate status. Precondition failures leave the
// campaign untouched; an unexpected failure past the sending transition
// force-fails the campaign and is returned to the caller.
func (d *Dispatcher) SendCampaign(ctx context.Context, campaignID uuid.UUID) (*SendResult, error) {
	campaign, err := d.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	switch campaign.Status {
	case model.StatusSent:
		return nil, appErrors.NewAlreadySent(campaignID)
	case model.StatusSending:
		return nil, appErrors.NewAlreadySending(campaignID)
	}
	if d.Mailer == nil || !d.Mailer.Ready() {
		return nil, appErrors.ErrMailerUnavailable
	}

	emails, err := d.Audience.ResolveAudience(campaignID)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, appErrors.NewNoRecipients(campaignID)
	}

	// Mark the attempt before the first send so a crash mid-run leaves
	// visible evidence. There is no auto-resume; a stuck "sending" campaign
	// needs a manual status correction.
	if err := d.CampaignRepo.UpdateStatus(campaignID, model.StatusSending, repository.StatusFields{}); err != nil {
		return nil, err
	}

	result, err := d.run(ctx, campaign, emails)
	if err != nil {
		msg := err.Error()
		if uerr := d.CampaignRepo.UpdateStatus(campaignID, model.StatusFailed, repository.StatusFields{Error: &msg}); uerr != nil {
			log.Println("⚠️ failed to record campaign failure:", uerr)
		}
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) run(ctx context.Context, campaign *model.Campaign, emails []string) (result *SendResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send pipeline panic: %v", r)
		}
	}()

	shared, err := d.Renderer.Render(campaign)
	if err != nil {
		return nil, err
	}

	batchSize := d.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	attempts := make([]sendAttempt, 0, len(emails))
	for start := 0; start < len(emails); start += batchSize {
		if start > 0 {
			d.Throttle.AfterBatch()
		}
		end := start + batchSize
		if end > len(emails) {
			end = len(emails)
		}
		for _, email := range emails[start:end] {
			attempt := d.sendOne(ctx, campaign, shared, email)
			attempts = append(attempts, attempt)

			// Per-address status flip happens immediately, not batched, so a
			// crash after N sends leaves the first N correctly marked.
			if attempt.success {
				if merr := d.CampaignRepo.MarkRecipientSent(campaign.ID, email); merr != nil {
					log.Println("⚠️ failed to mark recipient sent:", email, merr)
				}
			} else {
				if merr := d.CampaignRepo.MarkRecipientFailed(campaign.ID, email, attempt.err); merr != nil {
					log.Println("⚠️ failed to mark recipient failed:", email, merr)
				}
			}
			d.Throttle.AfterSend()
		}
	}

	sent, failed := 0, 0
	samples := []string{}
	for _, a := range attempts {
		if a.success {
			sent++
			continue
		}
		failed++
		if len(samples) < maxErrorSamples {
			samples = append(samples, fmt.Sprintf("%s: %s", a.email, a.err))
		}
	}
	summary := strings.Join(samples, "; ")

	if failed == len(attempts) {
		if uerr := d.CampaignRepo.UpdateStatus(campaign.ID, model.StatusFailed, repository.StatusFields{Error: &summary}); uerr != nil {
			return nil, uerr
		}
		return &SendResult{Sent: 0, Failed: failed, Total: len(attempts), Status: model.StatusFailed}, nil
	}

	fields := repository.StatusFields{SentCount: &sent}
	if summary != "" {
		fields.Error = &summary
	}
	if uerr := d.CampaignRepo.UpdateStatus(campaign.ID, model.StatusSent, fields); uerr != nil {
		return nil, uerr
	}

	return &SendResult{Sent: sent, Failed: failed, Total: len(attempts), Status: model.StatusSent}, nil
}

// sendOne never lets a provider error or panic escape: one bad address
// must not abort the loop.
func (d *Dispatcher) sendOne(ctx context.Context, campaign *model.Campaign, shared, email string) (attempt sendAttempt) {
	attempt = sendAttempt{email: email}
	defer func() {
		if r := recover(); r != nil {
			attempt.success = false
			attempt.err = fmt.Sprintf("panic: %v", r)
		}
	}()

	msg := mailer.Message{
		To:      email,
		Subject: campaign.Subject,
		HTML:    d.Renderer.Personalize(shared, email),
		Tags:    []string{campaign.ID.String()},
	}
	if err := d.Mailer.Send(ctx, msg); err != nil {
		log.Println("⚠️ send failed for", email, ":", err)
		attempt.err = err.Error()
		return attempt
	}
	attempt.success = true
	return attempt
}
