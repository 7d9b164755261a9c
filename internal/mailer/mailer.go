// Package mailer wraps the transactional email provider behind a small
// interface so the dispatch loop can be tested against a fake.
package mailer

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Tags    []string // delivery metadata for provider dashboard correlation
}

type Mailer interface {
	// Ready reports whether the provider is configured. Checked before any
	// campaign mutation so an unconfigured system fails fast.
	Ready() bool
	Send(ctx context.Context, msg Message) error
}
