package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*AuditRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &AuditRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(2026101601)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS extraction_audit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordWritesMetadataOnly(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO extraction_audit").
		WithArgs("audit-1", "req-1", "report", "image", "gemini", "failed", "NoJsonFound", 0, 1.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Record(context.Background(), domain.AuditEntry{
		ID:         "audit-1",
		RequestID:  "req-1",
		SchemaKind: domain.SchemaReport,
		InputKind:  domain.InputImage,
		Provider:   domain.ProviderGemini,
		Outcome:    domain.OutcomeFailed,
		ErrorKind:  domain.KindNoJSONFound,
		Duration:   1500 * time.Microsecond,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordStoresEmptyOptionalFieldsAsNull(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO extraction_audit").
		WithArgs("audit-2", nil, "prescription", nil, nil, "failed", "InvalidInput", 0, 0.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Record(context.Background(), domain.AuditEntry{
		ID:         "audit-2",
		SchemaKind: domain.SchemaPrescription,
		Outcome:    domain.OutcomeFailed,
		ErrorKind:  domain.KindInvalidInput,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordWrapsInsertError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO extraction_audit").WillReturnError(errors.New("connection reset"))

	err := repo.Record(context.Background(), domain.AuditEntry{ID: "audit-3", SchemaKind: domain.SchemaReport, Outcome: domain.OutcomeSucceeded})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestListRecentMapsRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	createdAt := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "schema_kind", "input_kind", "provider", "outcome", "error_kind", "uncertain_count", "duration_ms", "created_at",
	}).
		AddRow("audit-1", "req-1", "report", "text", "openai", "succeeded", nil, int64(2), 250.0, createdAt).
		AddRow("audit-2", nil, "prescription", nil, nil, "failed", "NoProviderConfigured", int64(0), 0.5, createdAt)

	mock.ExpectQuery("SELECT id, request_id, schema_kind").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Provider != domain.ProviderOpenAI || entries[0].UncertainCount != 2 || entries[0].Duration != 250*time.Millisecond {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].RequestID != "" || entries[1].ErrorKind != domain.KindNoProviderConfigured {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
