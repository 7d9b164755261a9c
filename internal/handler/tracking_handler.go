// internal/handler/tracking_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	appErrors "github.com/streetlayer/newsletter-service/internal/errors"
	"github.com/streetlayer/newsletter-service/internal/service"
)

// ListRecipients handles GET /campaigns/{id}/recipients
func (h *CampaignHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	recipients, err := h.Repo.ListRecipients(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "recipients": recipients})
}

// ListEvents handles GET /campaigns/{id}/events. An unprovisioned tracking
// table comes back as an empty list from the store.
func (h *CampaignHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	events, err := h.Repo.ListEvents(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "events": events})
}

// Preview handles POST /campaigns/{id}/preview: renders the full
// personalized HTML for one address without sending anything.
func (h *CampaignHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !service.IsValidEmail(body.Email) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	campaign, err := h.Repo.GetByID(id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	shared, err := h.Dispatcher.Renderer.Render(campaign)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"html": h.Dispatcher.Renderer.Personalize(shared, body.Email),
	})
}
