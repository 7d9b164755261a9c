// internal/service/audience_service.go
package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/streetlayer/newsletter-service/internal/model"
	"github.com/streetlayer/newsletter-service/internal/repository"
)

type AudienceService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	SubscriberRepo repository.SubscriberRepositoryInterface
}

// TargetValidation is the advisory dry-run result for the operator UI.
// The three lists are pairwise disjoint and cover every normalized input
// address.
type TargetValidation struct {
	Allowed       []string `json:"allowed"`
	NotSubscribed []string `json:"not_subscribed"`
	Invalid       []string `json:"invalid"`
}

// ResolveAudience produces the final set of destination addresses for a
// send. A saved recipient snapshot wins outright; only when none exists
// does resolution fall back to the live subscriber list filtered by the
// campaign's target tags.
func (s *AudienceService) ResolveAudience(campaignID uuid.UUID) ([]string, error) {
	snapshot, err := s.CampaignRepo.ListReadyRecipients(campaignID)
	if err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		return dedupeNonEmpty(snapshot), nil
	}

	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	live, err := s.SubscriberRepo.ListEmails(nil, campaign.TargetTags)
	if err != nil {
		return nil, err
	}
	return dedupeNonEmpty(live), nil
}

// ValidateTarget classifies candidate addresses against the subscriber
// list. With no candidate list, allowed is simply the filter-derived
// subscribed universe.
func (s *AudienceService) ValidateTarget(emails, statuses, tags []string) (*TargetValidation, error) {
	result := &TargetValidation{
		Allowed:       []string{},
		NotSubscribed: []string{},
		Invalid:       []string{},
	}

	filterRequested := len(statuses) > 0 || len(tags) > 0

	if len(emails) == 0 {
		if len(statuses) > 0 && !containsString(statuses, model.SubscriberSubscribed) {
			return result, nil
		}
		universe, err := s.SubscriberRepo.ListEmails(nil, tags)
		if err != nil {
			return nil, err
		}
		result.Allowed = dedupeNonEmpty(universe)
		return result, nil
	}

	var universe map[string]bool
	if filterRequested {
		members, err := s.SubscriberRepo.ListEmails(statuses, tags)
		if err != nil {
			return nil, err
		}
		universe = make(map[string]bool, len(members))
		for _, email := range members {
			universe[email] = true
		}
	}

	valid := []string{}
	for _, email := range NormalizeEmails(emails) {
		if !IsValidEmail(email) {
			result.Invalid = append(result.Invalid, email)
			continue
		}
		valid = append(valid, email)
	}

	statusByEmail, err := s.SubscriberRepo.StatusByEmail(valid)
	if err != nil {
		return nil, err
	}

	for _, email := range valid {
		subscribed := statusByEmail[email] == model.SubscriberSubscribed
		inUniverse := !filterRequested || universe[email]
		if subscribed && inUniverse {
			result.Allowed = append(result.Allowed, email)
		} else {
			result.NotSubscribed = append(result.NotSubscribed, email)
		}
	}

	return result, nil
}

// SaveAudience materializes a recipient snapshot for the campaign,
// replacing any prior one. With an explicit email list the snapshot is the
// normalized valid subset; otherwise it is resolved live from the filters,
// which are also persisted on the campaign for later live resolution.
func (s *AudienceService) SaveAudience(campaignID uuid.UUID, emails, statuses, tags []string) (int, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return 0, err
	}

	var list []string
	if len(emails) > 0 {
		for _, email := range NormalizeEmails(emails) {
			if IsValidEmail(email) {
				list = append(list, email)
			}
		}
	} else {
		live, err := s.SubscriberRepo.ListEmails(statuses, tags)
		if err != nil {
			return 0, err
		}
		list = dedupeNonEmpty(live)
	}

	if len(statuses) > 0 || len(tags) > 0 {
		upd := repository.CampaignUpdate{}
		if len(statuses) > 0 {
			upd.TargetStatus = statuses
		}
		if len(tags) > 0 {
			upd.TargetTags = tags
		}
		if err := s.CampaignRepo.UpdateFields(campaignID, upd); err != nil {
			return 0, err
		}
	}

	return s.CampaignRepo.ReplaceRecipientSnapshot(campaignID, list)
}

// NormalizeEmails trims, lowercases and dedupes, preserving first-seen
// order.
func NormalizeEmails(emails []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

// IsValidEmail checks the minimal local@domain shape. This is weaker than
// RFC parsing on purpose; the provider has the final say.
func IsValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t") {
		return false
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}

func dedupeNonEmpty(emails []string) []string {
	return NormalizeEmails(emails)
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
