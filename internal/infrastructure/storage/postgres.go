package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"tendertracker/internal/domain"
	"tendertracker/internal/ports"
)

// PostgresSink persists tender records into Postgres. Used instead of the
// spreadsheet web app when a DSN is configured.
type PostgresSink struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.TenderSink = (*PostgresSink)(nil)

// NewPostgresSink wires a sql.DB implementation.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ExistingKeys loads every (source, tender_id) pair already persisted, which
// seeds the deduplication set for the run.
func (s *PostgresSink) ExistingKeys(ctx context.Context) ([]domain.Key, error) {
	if s.db == nil {
		return nil, nil
	}

	query, args, err := s.builder.
		Select("source", "tender_id").
		From("tenders").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.Key
	for rows.Next() {
		var source, id string
		if err := rows.Scan(&source, &id); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, domain.Key{Source: domain.Source(source), TenderID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return keys, nil
}

// Append upserts the batch inside one transaction so a mid-batch failure
// leaves the store unchanged and the whole run can be retried.
func (s *PostgresSink) Append(ctx context.Context, records []domain.TenderRecord) error {
	if s.db == nil || len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		var closing sql.NullTime
		if rec.ClosingDate != nil {
			closing = sql.NullTime{Time: *rec.ClosingDate, Valid: true}
		}
		var days sql.NullInt64
		if rec.DaysRemaining != nil {
			days = sql.NullInt64{Int64: int64(*rec.DaysRemaining), Valid: true}
		}

		query, args, err := s.builder.
			Insert("tenders").
			Columns("date_scraped", "source", "tender_id", "title", "buyer",
				"category", "closing_date", "days_remaining", "value_zar",
				"description", "document_link", "status", "priority_buyer", "alert_sent").
			Values(rec.DateScraped, string(rec.Source), rec.TenderID, rec.Title, rec.Buyer,
				string(rec.Category), closing, days, rec.ValueZAR,
				rec.Description, rec.DocumentLink, rec.Status, rec.PriorityBuyer, false).
			Suffix(`ON CONFLICT (source, tender_id) DO UPDATE
				SET closing_date = EXCLUDED.closing_date,
				    days_remaining = EXCLUDED.days_remaining,
				    status = EXCLUDED.status,
				    updated_at = NOW()`).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: build upsert: %v", domain.ErrPersistence, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: upsert tender %s: %v", domain.ErrPersistence, rec.TenderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}
