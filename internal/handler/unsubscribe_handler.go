// internal/handler/unsubscribe_handler.go
package handler

import (
	"log"
	"net/http"

	"github.com/streetlayer/newsletter-service/internal/model"
	"github.com/streetlayer/newsletter-service/internal/repository"
	"github.com/streetlayer/newsletter-service/internal/service"
)

// UnsubscribeHandler serves the public unsubscribe link embedded in every
// rendered email. No bearer auth; the HMAC token is the credential.
type UnsubscribeHandler struct {
	Subscribers repository.SubscriberRepositoryInterface
	Renderer    *service.Renderer
}

func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")

	if email == "" || token == "" || !h.Renderer.VerifyUnsubscribeToken(email, token) {
		http.Error(w, "invalid unsubscribe link", http.StatusBadRequest)
		return
	}

	if err := h.Subscribers.UpdateStatusByEmail(email, model.SubscriberUnsubscribed); err != nil {
		log.Println("⚠️ failed to unsubscribe", email, ":", err)
		http.Error(w, "something went wrong, try again later", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<html><body style="font-family:sans-serif;text-align:center;padding:60px;">
<h2>You're unsubscribed</h2><p>You won't receive the Streetlayer newsletter anymore.</p>
</body></html>`))
}
