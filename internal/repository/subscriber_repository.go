package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// SubscriberRepositoryInterface exposes the read side of the subscriber
// list. The pipeline never creates or deletes subscribers; the only write
// it performs is honoring an unsubscribe link.
type SubscriberRepositoryInterface interface {
	ListEmails(statuses, tags []string) ([]string, error)
	StatusByEmail(emails []string) (map[string]string, error)
	UpdateStatusByEmail(email, status string) error
}

type SubscriberRepository struct {
	DB *sql.DB
}

// ListEmails returns lowercased subscriber addresses matching the given
// filters. An empty status list means status='subscribed'. Tags are
// conjunctive: the subscriber's tag set must contain every requested tag.
func (r *SubscriberRepository) ListEmails(statuses, tags []string) ([]string, error) {
	query := `SELECT lower(email) FROM subscribers WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if len(statuses) > 0 {
		query += fmt.Sprintf(" AND status = ANY($%d)", argPos)
		args = append(args, pq.Array(statuses))
		argPos++
	} else {
		query += " AND status = 'subscribed'"
	}
	if len(tags) > 0 {
		query += fmt.Sprintf(" AND tags @> $%d", argPos)
		args = append(args, pq.Array(tags))
		argPos++
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// StatusByEmail returns a lowercased email -> status map for the given
// addresses. Addresses without a subscriber row are simply absent.
func (r *SubscriberRepository) StatusByEmail(emails []string) (map[string]string, error) {
	statuses := map[string]string{}
	if len(emails) == 0 {
		return statuses, nil
	}

	rows, err := r.DB.Query(
		`SELECT lower(email), status FROM subscribers WHERE lower(email) = ANY($1)`,
		pq.Array(emails),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email, status string
		if err := rows.Scan(&email, &status); err != nil {
			return nil, err
		}
		statuses[email] = status
	}
	return statuses, rows.Err()
}

func (r *SubscriberRepository) UpdateStatusByEmail(email, status string) error {
	_, err := r.DB.Exec(
		`UPDATE subscribers SET status=$1, updated_at=NOW() WHERE lower(email)=lower($2)`,
		status, email,
	)
	return err
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
