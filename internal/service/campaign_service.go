// internal/service/campaign_service.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streetlayer/newsletter-service/internal/model"
	"github.com/streetlayer/newsletter-service/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

type CreateCampaignInput struct {
	Name         string   `json:"name"`
	Subject      string   `json:"subject"`
	Content      string   `json:"content"`
	CTAText      string   `json:"cta_text"`
	CTAURL       string   `json:"cta_url"`
	TargetStatus []string `json:"target_status"`
	TargetTags   []string `json:"target_tags"`
	ScheduledAt  *string  `json:"scheduled_at"`
}

func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("campaign name is required")
	}

	c := &model.Campaign{
		Name:         in.Name,
		Subject:      in.Subject,
		Content:      in.Content,
		CTAText:      in.CTAText,
		CTAURL:       in.CTAURL,
		Status:       model.StatusDraft,
		TargetStatus: in.TargetStatus,
		TargetTags:   in.TargetTags,
	}

	if in.ScheduledAt != nil && *in.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduled_at: %w", err)
		}
		c.ScheduledAt = &t
		c.Status = model.StatusScheduled
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(id uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetRecipientStats(id)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// UpdateCampaign applies a partial update. Status, when present, must be a
// member of the closed enum; this is also the manual-recovery path for a
// campaign stuck in "sending" after a crash.
func (s *CampaignService) UpdateCampaign(id uuid.UUID, upd repository.CampaignUpdate) error {
	if upd.Status != nil {
		switch *upd.Status {
		case model.StatusDraft, model.StatusScheduled, model.StatusSending, model.StatusSent, model.StatusFailed:
		default:
			return fmt.Errorf("invalid status: %s", *upd.Status)
		}
	}
	return s.CampaignRepo.UpdateFields(id, upd)
}
