package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/google/uuid"
)

// ArchiveDocument stores a document snapshot as a historical record.
func (s *SQLiteStorage) ArchiveDocument(ctx context.Context, doc *model.Document) (*model.HistoricalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	itemsJSON, err := json.Marshal(doc.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal line items: %w", err)
	}

	record := &model.HistoricalRecord{
		ID:         uuid.NewString(),
		ArchivedAt: time.Now().UTC(),
		Header:     doc.Header,
		Items:      doc.Items,
	}

	err = s.write(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO historical_records (
				id, title, currency_code, domestic_cost_mode, exchange_rate, items_json, archived_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			record.ID, record.Header.Title, record.Header.Currency(), record.Header.UseDomesticCostMode,
			record.Header.ExchangeRateToDomestic, string(itemsJSON), record.ArchivedAt,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive document: %w", err)
	}

	return record, nil
}

// ListHistoricalRecords returns every archived document, oldest first.
func (s *SQLiteStorage) ListHistoricalRecords(ctx context.Context) ([]model.HistoricalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, currency_code, domestic_cost_mode, exchange_rate, items_json, archived_at
		FROM historical_records
		ORDER BY archived_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.HistoricalRecord
	for rows.Next() {
		record, err := scanHistoricalRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan historical record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetHistoricalRecord retrieves an archived document by ID.
func (s *SQLiteStorage) GetHistoricalRecord(ctx context.Context, id string) (*model.HistoricalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, currency_code, domestic_cost_mode, exchange_rate, items_json, archived_at
		FROM historical_records
		WHERE id = ?
	`, id)

	record, err := scanHistoricalRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("historical record %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get historical record: %w", err)
	}
	return &record, nil
}

// DeleteHistoricalRecord removes an archived document.
func (s *SQLiteStorage) DeleteHistoricalRecord(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var affected int64
	err := s.write(ctx, func() error {
		result, err := s.db.ExecContext(ctx, "DELETE FROM historical_records WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete historical record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("historical record %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// HistoryVersion identifies the current historical corpus. It changes whenever a record is
// archived or deleted, so callers can key a price-history cache on it.
func (s *SQLiteStorage) HistoryVersion(ctx context.Context) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	var (
		count  int
		latest sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(archived_at) FROM historical_records").Scan(&count, &latest)
	if err != nil {
		return "", fmt.Errorf("failed to get history version: %w", err)
	}

	return fmt.Sprintf("%d@%s", count, latest.String), nil
}

func scanHistoricalRecord(row rowScanner) (model.HistoricalRecord, error) {
	var (
		record    model.HistoricalRecord
		itemsJSON string
	)
	err := row.Scan(&record.ID, &record.Header.Title, &record.Header.CurrencyCode,
		&record.Header.UseDomesticCostMode, &record.Header.ExchangeRateToDomestic,
		&itemsJSON, &record.ArchivedAt)
	if err != nil {
		return model.HistoricalRecord{}, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &record.Items); err != nil {
		return model.HistoricalRecord{}, fmt.Errorf("failed to unmarshal items of %s: %w", record.ID, err)
	}
	return record, nil
}
