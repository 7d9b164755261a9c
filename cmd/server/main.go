// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/streetlayer/newsletter-service/internal/auth"
	"github.com/streetlayer/newsletter-service/internal/config"
	"github.com/streetlayer/newsletter-service/internal/db"
	"github.com/streetlayer/newsletter-service/internal/handler"
	"github.com/streetlayer/newsletter-service/internal/mailer"
	"github.com/streetlayer/newsletter-service/internal/repository"
	"github.com/streetlayer/newsletter-service/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	subscriberRepo := &repository.SubscriberRepository{DB: conn}

	renderer := &service.Renderer{
		BaseURL:    cfg.BaseURL,
		SigningKey: cfg.SigningKey,
	}

	audienceService := &service.AudienceService{
		CampaignRepo:   campaignRepo,
		SubscriberRepo: subscriberRepo,
	}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
	}

	dispatcher := &service.Dispatcher{
		CampaignRepo: campaignRepo,
		Audience:     audienceService,
		Mailer:       mailer.NewResendClient(cfg.ResendAPIKey, cfg.MailFrom),
		Renderer:     renderer,
		Throttle:     service.NewThrottle(service.DefaultSendDelay, service.DefaultBatchDelay),
		BatchSize:    service.DefaultBatchSize,
	}

	campaignHandler := &handler.CampaignHandler{
		Repo:       campaignRepo,
		Service:    campaignService,
		Audience:   audienceService,
		Dispatcher: dispatcher,
	}

	unsubscribeHandler := &handler.UnsubscribeHandler{
		Subscribers: subscriberRepo,
		Renderer:    renderer,
	}

	authenticator := &auth.Authenticator{
		Tokens:      cfg.OperatorTokens,
		AdminEmails: cfg.AdminEmails,
		DevBypass:   cfg.DevAuthBypass,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	// Public: unsubscribe links from sent emails land here.
	r.Get("/unsubscribe", unsubscribeHandler.Unsubscribe)

	// Operator API
	r.Group(func(r chi.Router) {
		r.Use(authenticator.Middleware)

		r.Post("/campaigns", campaignHandler.CreateCampaign)
		r.Get("/campaigns", campaignHandler.ListCampaigns)
		r.Post("/campaigns/validate-target", campaignHandler.ValidateTarget)
		r.Get("/campaigns/{id}", campaignHandler.GetCampaign)
		r.Patch("/campaigns/{id}", campaignHandler.UpdateCampaign)
		r.Post("/campaigns/{id}/save-audience", campaignHandler.SaveAudience)
		r.Post("/campaigns/{id}/send", campaignHandler.SendCampaign)
		r.Post("/campaigns/{id}/preview", campaignHandler.Preview)
		r.Get("/campaigns/{id}/events", campaignHandler.ListEvents)
		r.Get("/campaigns/{id}/recipients", campaignHandler.ListRecipients)
	})

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
