package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store, extracted so
// tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const leadColumns = `id, lead_name, linkedin_url, product_desc, cta, snapshot_id, status,
	generated_email_greeting, generated_email_hook, generated_email_body, error_message,
	created_at, updated_at`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot claim/complete path.
var preparedStatements = map[string]string{
	"claim_lead": `UPDATE leads SET status = 'in_progress', updated_at = $1
		WHERE id = $2 AND status = 'not_started'`,
	"complete_lead": `UPDATE leads SET status = 'done', generated_email_greeting = $1,
		generated_email_hook = $2, generated_email_body = $3, error_message = '', updated_at = $4
		WHERE id = $5`,
	"mark_lead_error": `UPDATE leads SET status = 'error', error_message = $1,
		generated_email_greeting = '', generated_email_hook = '', generated_email_body = '', updated_at = $2
		WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                       TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_status_updated ON leads(status, updated_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	lead.ID = uuid.New().String()
	lead.Status = model.LeadStatusNotStarted
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, lead_name, linkedin_url, product_desc, cta, snapshot_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		lead.ID, lead.LeadName, lead.LinkedInURL, lead.ProductDesc, lead.CTA, lead.SnapshotID,
		string(lead.Status), lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}
	return &lead, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			return nil, eris.Wrap(scanErr, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) ListClaimable(ctx context.Context, cutoff time.Time, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE status = $1 AND updated_at <= $2
		 ORDER BY updated_at ASC LIMIT $3`,
		string(model.LeadStatusNotStarted), cutoff.UTC(), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list claimable leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			return nil, eris.Wrap(scanErr, "postgres: scan claimable lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list claimable iterate")
}

// ClaimLead is a compare-and-set: the WHERE clause on status guarantees
// only one of two overlapping invocations wins the claim.
func (s *PostgresStore) ClaimLead(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = 'in_progress', updated_at = $1
		 WHERE id = $2 AND status = 'not_started'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: claim lead %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CompleteLead(ctx context.Context, id, greeting, hook, body string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = 'done', generated_email_greeting = $1,
		 generated_email_hook = $2, generated_email_body = $3, error_message = '', updated_at = $4
		 WHERE id = $5`,
		greeting, hook, body, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) MarkLeadError(ctx context.Context, id, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = 'error', error_message = $1,
		 generated_email_greeting = '', generated_email_hook = '', generated_email_body = '', updated_at = $2
		 WHERE id = $3`,
		message, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark lead error %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ResetLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = 'not_started', error_message = '',
		 generated_email_greeting = '', generated_email_hook = '', generated_email_body = '', updated_at = $1
		 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reset lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

// scanLead reads one lead row in leadColumns order.
func scanLead(row pgx.Row) (*model.Lead, error) {
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
