package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/streetlayer/newsletter-service/internal/errors"
	"github.com/streetlayer/newsletter-service/internal/model"
)

// StatusFields carries the optional columns written together with a status
// transition. Nil fields are left untouched.
type StatusFields struct {
	SentCount *int
	Error     *string
}

// CampaignUpdate carries the optional columns of a PATCH. Nil fields are
// left untouched.
type CampaignUpdate struct {
	Name         *string
	Subject      *string
	Content      *string
	CTAText      *string
	CTAURL       *string
	Status       *string
	TargetStatus []string
	TargetTags   []string
	ScheduledAt  *time.Time
}

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id uuid.UUID) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(id uuid.UUID, status string, fields StatusFields) error
	UpdateFields(id uuid.UUID, upd CampaignUpdate) error

	// Recipient snapshot
	ReplaceRecipientSnapshot(id uuid.UUID, emails []string) (int, error)
	ListReadyRecipients(id uuid.UUID) ([]string, error)
	ListRecipients(id uuid.UUID) ([]*model.Recipient, error)
	MarkRecipientSent(id uuid.UUID, email string) error
	MarkRecipientFailed(id uuid.UUID, email, sendErr string) error
	GetRecipientStats(id uuid.UUID) (map[string]int, error)

	// Tracking and scheduling
	ListEvents(id uuid.UUID) ([]*model.TrackingEvent, error)
	ListDueScheduled(now time.Time) ([]uuid.UUID, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, subject, content, cta_text, cta_url, status,
        target_status, target_tags, sent_count, COALESCE(error, ''), scheduled_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(dest ...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	var sentCount sql.NullInt64
	err := row.Scan(
		&c.ID, &c.Name, &c.Subject, &c.Content, &c.CTAText, &c.CTAURL, &c.Status,
		pq.Array(&c.TargetStatus), pq.Array(&c.TargetTags),
		&sentCount, &c.Error, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sentCount.Valid {
		n := int(sentCount.Int64)
		c.SentCount = &n
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.TargetStatus == nil {
		c.TargetStatus = []string{}
	}
	if c.TargetTags == nil {
		c.TargetTags = []string{}
	}
	query := `
        INSERT INTO campaigns (name, subject, content, cta_text, cta_url, status, target_status, target_tags, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Subject, c.Content, c.CTAText, c.CTAURL, c.Status,
		pq.Array(c.TargetStatus), pq.Array(c.TargetTags), c.ScheduledAt, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(id uuid.UUID, status string, fields StatusFields) error {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW()`
	args := []interface{}{status}
	argPos := 2

	if fields.SentCount != nil {
		query += fmt.Sprintf(", sent_count=$%d", argPos)
		args = append(args, *fields.SentCount)
		argPos++
	}
	if fields.Error != nil {
		query += fmt.Sprintf(", error=$%d", argPos)
		args = append(args, *fields.Error)
		argPos++
	}

	query += fmt.Sprintf(" WHERE id=$%d", argPos)
	args = append(args, id)

	_, err := r.DB.Exec(query, args...)
	return err
}

func (r *CampaignRepository) UpdateFields(id uuid.UUID, upd CampaignUpdate) error {
	query := `UPDATE campaigns SET updated_at=NOW()`
	args := []interface{}{}
	argPos := 1

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s=$%d", column, argPos)
		args = append(args, value)
		argPos++
	}

	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Subject != nil {
		set("subject", *upd.Subject)
	}
	if upd.Content != nil {
		set("content", *upd.Content)
	}
	if upd.CTAText != nil {
		set("cta_text", *upd.CTAText)
	}
	if upd.CTAURL != nil {
		set("cta_url", *upd.CTAURL)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.TargetStatus != nil {
		set("target_status", pq.Array(upd.TargetStatus))
	}
	if upd.TargetTags != nil {
		set("target_tags", pq.Array(upd.TargetTags))
	}
	if upd.ScheduledAt != nil {
		set("scheduled_at", *upd.ScheduledAt)
	}

	query += fmt.Sprintf(" WHERE id=$%d", argPos)
	args = append(args, id)

	res, err := r.DB.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

// ====================== Recipient snapshot ======================

// ReplaceRecipientSnapshot deletes any prior snapshot for the campaign and
// inserts the given addresses with status ready. Addresses are expected
// lowercased and trimmed; ON CONFLICT keeps the call idempotent when the
// input still carries duplicates.
func (r *CampaignRepository) ReplaceRecipientSnapshot(id uuid.UUID, emails []string) (int, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM campaign_recipients WHERE campaign_id=$1`, id); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
        INSERT INTO campaign_recipients (campaign_id, email, status, created_at, updated_at)
        VALUES ($1, $2, 'ready', NOW(), NOW())
        ON CONFLICT (campaign_id, email) DO NOTHING
    `)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	saved := 0
	for _, email := range emails {
		res, err := stmt.Exec(id, email)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			saved += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

func (r *CampaignRepository) ListReadyRecipients(id uuid.UUID) ([]string, error) {
	rows, err := r.DB.Query(
		`SELECT email FROM campaign_recipients WHERE campaign_id=$1 AND status='ready' ORDER BY created_at`,
		id,
	)
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

func (r *CampaignRepository) ListRecipients(id uuid.UUID) ([]*model.Recipient, error) {
	rows, err := r.DB.Query(`
        SELECT id, campaign_id, email, status, COALESCE(error, ''), created_at, updated_at
        FROM campaign_recipients WHERE campaign_id=$1 ORDER BY created_at
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []*model.Recipient{}
	for rows.Next() {
		rec := &model.Recipient{}
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Email, &rec.Status, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *CampaignRepository) MarkRecipientSent(id uuid.UUID, email string) error {
	_, err := r.DB.Exec(
		`UPDATE campaign_recipients SET status='sent', updated_at=NOW() WHERE campaign_id=$1 AND email=$2 AND status='ready'`,
		id, email,
	)
	return err
}

func (r *CampaignRepository) MarkRecipientFailed(id uuid.UUID, email, sendErr string) error {
	_, err := r.DB.Exec(
		`UPDATE campaign_recipients SET status='failed', error=$3, updated_at=NOW() WHERE campaign_id=$1 AND email=$2 AND status='ready'`,
		id, email, sendErr,
	)
	return err
}

func (r *CampaignRepository) GetRecipientStats(id uuid.UUID) (map[string]int, error) {
	rows, err := r.DB.Query(
		`SELECT status, COUNT(*) FROM campaign_recipients WHERE campaign_id=$1 GROUP BY status`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0, "ready": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

// ====================== Tracking and scheduling ======================

// ListEvents returns open/click events for a campaign. A missing
// campaign_events table is treated as an empty list, not an error, so the
// API keeps working before the tracking migration has been applied.
func (r *CampaignRepository) ListEvents(id uuid.UUID) ([]*model.TrackingEvent, error) {
	rows, err := r.DB.Query(`
        SELECT id, campaign_id, email, event, url, created_at
        FROM campaign_events WHERE campaign_id=$1 ORDER BY created_at DESC
    `, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "42P01" { // undefined_table
			return []*model.TrackingEvent{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	events := []*model.TrackingEvent{}
	for rows.Next() {
		ev := &model.TrackingEvent{}
		if err := rows.Scan(&ev.ID, &ev.CampaignID, &ev.Email, &ev.Event, &ev.URL, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *CampaignRepository) ListDueScheduled(now time.Time) ([]uuid.UUID, error) {
	rows, err := r.DB.Query(
		`SELECT id FROM campaigns WHERE status='scheduled' AND scheduled_at IS NOT NULL AND scheduled_at <= $1`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
