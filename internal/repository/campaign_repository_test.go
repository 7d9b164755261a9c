package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/streetlayer/newsletter-service/internal/errors"
)

func setupTestDB(t *testing.T) (*CampaignRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &CampaignRepository{DB: db}, mock, func() { db.Close() }
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id=").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(id)
	assert.True(t, appErrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_StatusOnly(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`)).
		WithArgs("sending", id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(id, "sending", StatusFields{})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_WithOptionalFields(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	sent := 8
	errMsg := "user3@x.com: mailbox full"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaigns SET status=$1, updated_at=NOW(), sent_count=$2, error=$3 WHERE id=$4`)).
		WithArgs("sent", sent, errMsg, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(id, "sent", StatusFields{SentCount: &sent, Error: &errMsg})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields_BuildsOnlyGivenColumns(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	name := "Renamed"
	status := "draft"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaigns SET updated_at=NOW(), name=$1, status=$2 WHERE id=$3`)).
		WithArgs(name, status, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFields(id, CampaignUpdate{Name: &name, Status: &status})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRecipientSnapshot_DeleteThenInsert(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM campaign_recipients WHERE campaign_id=$1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	prep := mock.ExpectPrepare("INSERT INTO campaign_recipients")
	prep.ExpectExec().WithArgs(id, "a@x.com").WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(id, "b@y.com").WillReturnResult(sqlmock.NewResult(2, 1))
	// Duplicate hits ON CONFLICT DO NOTHING and affects zero rows.
	prep.ExpectExec().WithArgs(id, "a@x.com").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	saved, err := repo.ReplaceRecipientSnapshot(id, []string{"a@x.com", "b@y.com", "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRecipientSent_OnlyFlipsReadyRows(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaign_recipients SET status='sent', updated_at=NOW() WHERE campaign_id=$1 AND email=$2 AND status='ready'`)).
		WithArgs(id, "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkRecipientSent(id, "a@x.com")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvents_MissingTableIsEmptyList(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM campaign_events").
		WithArgs(id).
		WillReturnError(&pq.Error{Code: "42P01"})

	events, err := repo.ListEvents(id)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvents_OtherErrorsPropagate(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM campaign_events").
		WithArgs(id).
		WillReturnError(&pq.Error{Code: "42501"}) // insufficient_privilege

	_, err := repo.ListEvents(id)
	assert.Error(t, err)
}

func TestListDueScheduled(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	due := uuid.New()
	mock.ExpectQuery("SELECT id FROM campaigns WHERE status='scheduled'").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(due))

	ids, err := repo.ListDueScheduled(now)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{due}, ids)
}
