// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streetlayer/newsletter-service/internal/auth"
	appErrors "github.com/streetlayer/newsletter-service/internal/errors"
	"github.com/streetlayer/newsletter-service/internal/repository"
	"github.com/streetlayer/newsletter-service/internal/service"
)

// CampaignHandler holds the dependencies for campaign-related HTTP handlers
type CampaignHandler struct {
	Repo       repository.CampaignRepositoryInterface
	Service    *service.CampaignService
	Audience   *service.AudienceService
	Dispatcher *service.Dispatcher
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": msg})
}

func campaignID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	campaign, err := h.Service.CreateCampaign(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "campaign": campaign})
}

// ListCampaigns handles GET /campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := h.Service.ListCampaigns(page, pageSize, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"data":       campaigns,
		"pagination": pagination,
	})
}

// GetCampaign handles GET /campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "campaign": details})
}

// UpdateCampaign handles PATCH /campaigns/{id}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var body struct {
		Name         *string    `json:"name"`
		Subject      *string    `json:"subject"`
		Content      *string    `json:"content"`
		CTAText      *string    `json:"cta_text"`
		CTAURL       *string    `json:"cta_url"`
		Status       *string    `json:"status"`
		TargetStatus []string   `json:"target_status"`
		TargetTags   []string   `json:"target_tags"`
		ScheduledAt  *time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	upd := repository.CampaignUpdate{
		Name:         body.Name,
		Subject:      body.Subject,
		Content:      body.Content,
		CTAText:      body.CTAText,
		CTAURL:       body.CTAURL,
		Status:       body.Status,
		TargetStatus: body.TargetStatus,
		TargetTags:   body.TargetTags,
		ScheduledAt:  body.ScheduledAt,
	}

	if err := h.Service.UpdateCampaign(id, upd); err != nil {
		if appErrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// SaveAudience handles POST /campaigns/{id}/save-audience
func (h *CampaignHandler) SaveAudience(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var body struct {
		Emails []string `json:"emails"`
		Status []string `json:"status"`
		Tags   []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	saved, err := h.Audience.SaveAudience(id, body.Emails, body.Status, body.Tags)
	if err != nil {
		if appErrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "saved": saved})
}

// SendCampaign handles POST /campaigns/{id}/send
func (h *CampaignHandler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if operator := auth.Operator(r.Context()); operator != "" {
		log.Println("📨 Campaign", id, "send requested by", operator)
	}

	// A run goes to completion once started: a client disconnect mid-send
	// must not cancel the remaining deliveries.
	result, err := h.Dispatcher.SendCampaign(context.WithoutCancel(r.Context()), id)
	if err != nil {
		switch {
		case appErrors.IsNotFound(err):
			writeError(w, http.StatusNotFound, err.Error())
		case appErrors.IsPrecondition(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, appErrors.ErrMailerUnavailable):
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"sent":   result.Sent,
		"failed": result.Failed,
		"total":  result.Total,
		"status": result.Status,
	})
}

// ValidateTarget handles POST /campaigns/validate-target
func (h *CampaignHandler) ValidateTarget(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Emails []string `json:"emails"`
		Status []string `json:"status"`
		Tags   []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	result, err := h.Audience.ValidateTarget(body.Emails, body.Status, body.Tags)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "result": result})
}
