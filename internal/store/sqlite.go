package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// single-binary option for local development and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                       TEXT PRIMARY KEY,
	lead_name                TEXT NOT NULL DEFAULT '',
	linkedin_url             TEXT NOT NULL DEFAULT '',
	product_desc             TEXT NOT NULL DEFAULT '',
	cta                      TEXT NOT NULL DEFAULT '',
	snapshot_id              TEXT NOT NULL DEFAULT '',
	status                   TEXT NOT NULL DEFAULT 'not_started',
	generated_email_greeting TEXT NOT NULL DEFAULT '',
	generated_email_hook     TEXT NOT NULL DEFAULT '',
	generated_email_body     TEXT NOT NULL DEFAULT '',
	error_message            TEXT NOT NULL DEFAULT '',
	created_at               DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_status_updated ON leads(status, updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	lead.ID = uuid.New().String()
	lead.Status = model.LeadStatusNotStarted
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, lead_name, linkedin_url, product_desc, cta, snapshot_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.LeadName, lead.LinkedInURL, lead.ProductDesc, lead.CTA, lead.SnapshotID,
		string(lead.Status), lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}
	return &lead, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLeadSQL(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, scanErr := scanLeadSQL(rows)
		if scanErr != nil {
			return nil, eris.Wrap(scanErr, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) ListClaimable(ctx context.Context, cutoff time.Time, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE status = ? AND updated_at <= ?
		 ORDER BY updated_at ASC LIMIT ?`,
		string(model.LeadStatusNotStarted), cutoff.UTC(), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list claimable leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, scanErr := scanLeadSQL(rows)
		if scanErr != nil {
			return nil, eris.Wrap(scanErr, "sqlite: scan claimable lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list claimable iterate")
}

func (s *SQLiteStore) ClaimLead(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = 'in_progress', updated_at = ?
		 WHERE id = ? AND status = 'not_started'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: claim lead %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: claim rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) CompleteLead(ctx context.Context, id, greeting, hook, body string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = 'done', generated_email_greeting = ?,
		 generated_email_hook = ?, generated_email_body = ?, error_message = '', updated_at = ?
		 WHERE id = ?`,
		greeting, hook, body, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete lead %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) MarkLeadError(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = 'error', error_message = ?,
		 generated_email_greeting = '', generated_email_hook = '', generated_email_body = '', updated_at = ?
		 WHERE id = ?`,
		message, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark lead error %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ResetLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = 'not_started', error_message = '',
		 generated_email_greeting = '', generated_email_hook = '', generated_email_body = '', updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reset lead %s", id)
	}
	return checkRowsAffected(res, id)
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

// scanLeadSQL reads one lead row in leadColumns order via database/sql.
func scanLeadSQL(row interface{ Scan(...any) error }) (*model.Lead, error) {
	var l model.Lead
	var status string
	if err := row.Scan(
		&l.ID, &l.LeadName, &l.LinkedInURL, &l.ProductDesc, &l.CTA, &l.SnapshotID, &status,
		&l.GeneratedEmailGreeting, &l.GeneratedEmailHook, &l.GeneratedEmailBody, &l.ErrorMessage,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Status = model.LeadStatus(status)
	return &l, nil
}
