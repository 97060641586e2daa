package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func leadRows(mock pgxmock.PgxPoolIface, leads ...model.Lead) *pgxmock.Rows {
	rows := mock.NewRows([]string{
		"id", "lead_name", "linkedin_url", "product_desc", "cta", "snapshot_id", "status",
		"generated_email_greeting", "generated_email_hook", "generated_email_body", "error_message",
		"created_at", "updated_at",
	})
	for _, l := range leads {
		rows.AddRow(
			l.ID, l.LeadName, l.LinkedInURL, l.ProductDesc, l.CTA, l.SnapshotID, string(l.Status),
			l.GeneratedEmailGreeting, l.GeneratedEmailHook, l.GeneratedEmailBody, l.ErrorMessage,
			l.CreatedAt, l.UpdatedAt,
		)
	}
	return rows
}

func TestPostgresStore_CreateLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), "Jane Doe", "https://linkedin.com/in/janedoe", "training", "book a call",
			"snap-1", "not_started", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	lead, err := s.CreateLead(context.Background(), model.Lead{
		LeadName:    "Jane Doe",
		LinkedInURL: "https://linkedin.com/in/janedoe",
		ProductDesc: "training",
		CTA:         "book a call",
		SnapshotID:  "snap-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, model.LeadStatusNotStarted, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id = \$1`).
		WithArgs("lead-1").
		WillReturnRows(leadRows(mock, model.Lead{
			ID: "lead-1", LeadName: "Jane Doe", SnapshotID: "snap-1",
			Status: model.LeadStatusNotStarted, CreatedAt: now, UpdatedAt: now,
		}))

	lead, err := s.GetLead(context.Background(), "lead-1")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "Jane Doe", lead.LeadName)
	assert.Equal(t, model.LeadStatusNotStarted, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	lead, err := s.GetLead(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, lead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListClaimable(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	cutoff := now.Add(-2 * time.Minute)

	mock.ExpectQuery(`SELECT .+ FROM leads\s+WHERE status = \$1 AND updated_at <= \$2`).
		WithArgs("not_started", cutoff, 5).
		WillReturnRows(leadRows(mock,
			model.Lead{ID: "lead-1", Status: model.LeadStatusNotStarted, CreatedAt: now, UpdatedAt: now},
			model.Lead{ID: "lead-2", Status: model.LeadStatusNotStarted, CreatedAt: now, UpdatedAt: now},
		))

	leads, err := s.ListClaimable(context.Background(), cutoff, 5)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead-1", leads[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ClaimLead_Wins(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)UPDATE leads SET status = 'in_progress'.+WHERE id = \$2 AND status = 'not_started'`).
		WithArgs(pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	claimed, err := s.ClaimLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ClaimLead_AlreadyClaimed(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Zero rows affected means another invocation won the claim.
	mock.ExpectExec(`UPDATE leads SET status = 'in_progress'`).
		WithArgs(pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	claimed, err := s.ClaimLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status = 'done'`).
		WithArgs("Hello Jane Doe", "Quick question", "Hi Jane,", pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteLead(context.Background(), "lead-1", "Hello Jane Doe", "Quick question", "Hi Jane,")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status = 'done'`).
		WithArgs("g", "h", "b", pgxmock.AnyArg(), "nonexistent").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteLead(context.Background(), "nonexistent", "g", "h", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkLeadError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status = 'error'`).
		WithArgs("profile not found", pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.MarkLeadError(context.Background(), "lead-1", "profile not found")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status = 'not_started'`).
		WithArgs(pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.ResetLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_WithStatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE true AND status = \$1`).
		WithArgs("done", 100).
		WillReturnRows(leadRows(mock, model.Lead{
			ID: "lead-1", Status: model.LeadStatusDone, CreatedAt: now, UpdatedAt: now,
		}))

	leads, err := s.ListLeads(context.Background(), LeadFilter{Status: model.LeadStatusDone})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, model.LeadStatusDone, leads[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
