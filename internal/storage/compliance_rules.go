package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/model"
)

const upsertComplianceRule = `
	INSERT INTO compliance_rules (hs_prefix, tax_refund_rate, status, note, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(hs_prefix) DO UPDATE SET
		tax_refund_rate = excluded.tax_refund_rate,
		status = excluded.status,
		note = excluded.note,
		updated_at = excluded.updated_at
`

// SaveComplianceRule inserts or replaces the knowledge-base entry for an HS prefix.
func (s *SQLiteStorage) SaveComplianceRule(ctx context.Context, rule *model.ComplianceRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateComplianceRule(rule); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := s.write(ctx, func() error {
		_, err := s.db.ExecContext(ctx, upsertComplianceRule,
			rule.HSPrefix, rule.TaxRefundRatePercent, rule.Status, rule.Note, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save compliance rule: %w", err)
	}

	rule.UpdatedAt = now
	return nil
}

// ImportComplianceRules upserts a batch of knowledge-base entries in one transaction.
func (s *SQLiteStorage) ImportComplianceRules(ctx context.Context, rules []model.ComplianceRule) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateComplianceRules(rules); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	err := s.write(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, upsertComplianceRule)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, rule := range rules {
			if _, err := stmt.ExecContext(ctx,
				rule.HSPrefix, rule.TaxRefundRatePercent, rule.Status, rule.Note, now); err != nil {
				return fmt.Errorf("failed to import %s: %w", rule.HSPrefix, err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import compliance rules: %w", err)
	}

	return len(rules), nil
}

// GetComplianceRule retrieves the entry stored for an exact HS prefix.
func (s *SQLiteStorage) GetComplianceRule(ctx context.Context, hsPrefix string) (*model.ComplianceRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(hsPrefix, "hsPrefix"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT hs_prefix, tax_refund_rate, status, note, updated_at
		FROM compliance_rules
		WHERE hs_prefix = ?
	`, hsPrefix)

	rule, err := scanComplianceRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("compliance rule %s: %w", hsPrefix, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance rule: %w", err)
	}
	return &rule, nil
}

// ListComplianceRules returns every knowledge-base entry ordered by prefix.
func (s *SQLiteStorage) ListComplianceRules(ctx context.Context) ([]model.ComplianceRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hs_prefix, tax_refund_rate, status, note, updated_at
		FROM compliance_rules
		ORDER BY hs_prefix
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.ComplianceRule
	for rows.Next() {
		rule, err := scanComplianceRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// DeleteComplianceRule removes the entry for an exact HS prefix.
func (s *SQLiteStorage) DeleteComplianceRule(ctx context.Context, hsPrefix string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(hsPrefix, "hsPrefix"); err != nil {
		return err
	}

	var affected int64
	err := s.write(ctx, func() error {
		result, err := s.db.ExecContext(ctx, "DELETE FROM compliance_rules WHERE hs_prefix = ?", hsPrefix)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete compliance rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("compliance rule %s: %w", hsPrefix, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplianceRule(row rowScanner) (model.ComplianceRule, error) {
	var (
		rule      model.ComplianceRule
		status    string
		updatedAt sql.NullTime
	)
	if err := row.Scan(&rule.HSPrefix, &rule.TaxRefundRatePercent, &status, &rule.Note, &updatedAt); err != nil {
		return model.ComplianceRule{}, err
	}
	rule.Status = model.ComplianceStatus(status)
	if updatedAt.Valid {
		rule.UpdatedAt = updatedAt.Time
	}
	return rule, nil
}
