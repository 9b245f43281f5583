package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// AuditRepository stores extraction metadata. Document content and extracted
// values are never written.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extraction_audit (
	id TEXT PRIMARY KEY,
	request_id TEXT,
	schema_kind TEXT NOT NULL,
	input_kind TEXT,
	provider TEXT,
	outcome TEXT NOT NULL,
	error_kind TEXT,
	uncertain_count INTEGER NOT NULL DEFAULT 0,
	duration_ms DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_audit_created_at ON extraction_audit(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_extraction_audit_outcome ON extraction_audit(outcome, error_kind);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AuditRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO extraction_audit (
	id, request_id, schema_kind, input_kind, provider, outcome, error_kind, uncertain_count, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		entry.ID, nullString(entry.RequestID), string(entry.SchemaKind), nullString(string(entry.InputKind)),
		nullString(string(entry.Provider)), string(entry.Outcome), nullString(entry.ErrorKind),
		entry.UncertainCount, float64(entry.Duration.Microseconds())/1000.0, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction audit: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, request_id, schema_kind, input_kind, provider, outcome, error_kind, uncertain_count, duration_ms, created_at
FROM extraction_audit
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query extraction audit: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0, limit)
	for rows.Next() {
		var (
			entry                                     domain.AuditEntry
			requestID, inputKind, provider, errorKind sql.NullString
			schemaKind, outcome                       string
			durationMS                                float64
		)
		if err := rows.Scan(
			&entry.ID, &requestID, &schemaKind, &inputKind, &provider, &outcome, &errorKind,
			&entry.UncertainCount, &durationMS, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extraction audit: %w", err)
		}
		entry.RequestID = requestID.String
		entry.SchemaKind = domain.SchemaKind(schemaKind)
		entry.InputKind = domain.InputKind(inputKind.String)
		entry.Provider = domain.ProviderName(provider.String)
		entry.Outcome = domain.ExtractionOutcome(outcome)
		entry.ErrorKind = errorKind.String
		entry.Duration = time.Duration(durationMS * float64(time.Millisecond))
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction audit: %w", err)
	}
	return entries, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
