package queue

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// CampaignSendsQueue carries ids of scheduled campaigns that are due.
const CampaignSendsQueue = "campaign_sends"

// Job is one queued send request.
type Job struct {
	CampaignID uuid.UUID `json:"campaign_id"`
}

// Queue wraps the RabbitMQ channel used between the scheduler and the
// dispatching worker.
type Queue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	name string
}

func Dial(url string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		CampaignSendsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Queue{conn: conn, ch: ch, name: q.Name}, nil
}

func (q *Queue) PublishCampaign(id uuid.UUID) error {
	body, err := json.Marshal(Job{CampaignID: id})
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",     // exchange
		q.name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (q *Queue) Consume() (<-chan amqp.Delivery, error) {
	return q.ch.Consume(
		q.name,
		"",    // consumer tag
		false, // autoAck = false for reliability
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
}

func (q *Queue) Close() {
	q.ch.Close()
	q.conn.Close()
}
