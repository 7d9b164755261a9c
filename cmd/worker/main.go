// cmd/worker/main.go
//
// The worker acts on campaigns with status "scheduled": a poll loop finds
// the ones whose scheduled_at has arrived and publishes their ids to
// RabbitMQ; the consumer runs the same send pipeline the HTTP endpoint
// uses. Duplicate publishes are harmless because the send preconditions
// reject a campaign that is already sending or sent.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/streetlayer/newsletter-service/internal/config"
	"github.com/streetlayer/newsletter-service/internal/db"
	appErrors "github.com/streetlayer/newsletter-service/internal/errors"
	"github.com/streetlayer/newsletter-service/internal/mailer"
	"github.com/streetlayer/newsletter-service/internal/queue"
	"github.com/streetlayer/newsletter-service/internal/repository"
	"github.com/streetlayer/newsletter-service/internal/service"
)

const schedulerPollInterval = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	subscriberRepo := &repository.SubscriberRepository{DB: conn}

	dispatcher := &service.Dispatcher{
		CampaignRepo: campaignRepo,
		Audience: &service.AudienceService{
			CampaignRepo:   campaignRepo,
			SubscriberRepo: subscriberRepo,
		},
		Mailer: mailer.NewResendClient(cfg.ResendAPIKey, cfg.MailFrom),
		Renderer: &service.Renderer{
			BaseURL:    cfg.BaseURL,
			SigningKey: cfg.SigningKey,
		},
		Throttle:  service.NewThrottle(service.DefaultSendDelay, service.DefaultBatchDelay),
		BatchSize: service.DefaultBatchSize,
	}

	q, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ:", err)
	}
	defer q.Close()

	go runScheduler(campaignRepo, q)

	msgs, err := q.Consume()
	if err != nil {
		log.Fatal("failed to register consumer:", err)
	}

	log.Println("Worker running, waiting for messages...")

	for d := range msgs {
		var job queue.Job
		if err := json.Unmarshal(d.Body, &job); err != nil {
			log.Println("Invalid job:", err)
			d.Ack(false)
			continue
		}

		result, err := dispatcher.SendCampaign(context.Background(), job.CampaignID)
		if err != nil {
			if appErrors.IsNotFound(err) || appErrors.IsPrecondition(err) {
				// Nothing to retry: the campaign is gone, already handled,
				// or has no audience.
				log.Println("Skipping campaign", job.CampaignID, ":", err)
				d.Ack(false)
				continue
			}
			log.Println("Failed to send campaign", job.CampaignID, ":", err)
			if !d.Redelivered {
				d.Nack(false, true) // requeue once
				continue
			}
			d.Ack(false)
			continue
		}

		log.Printf("✅ Campaign %s dispatched: sent=%d failed=%d total=%d status=%s",
			job.CampaignID, result.Sent, result.Failed, result.Total, result.Status)
		d.Ack(false)
	}
}

func runScheduler(repo repository.CampaignRepositoryInterface, q *queue.Queue) {
	ticker := time.NewTicker(schedulerPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		ids, err := repo.ListDueScheduled(time.Now())
		if err != nil {
			log.Println("⚠️ scheduler query failed:", err)
			continue
		}
		for _, id := range ids {
			if err := q.PublishCampaign(id); err != nil {
				log.Println("⚠️ failed to enqueue campaign", id, ":", err)
				continue
			}
			log.Println("📩 Enqueued scheduled campaign", id)
		}
	}
}
