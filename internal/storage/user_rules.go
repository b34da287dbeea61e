package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/google/uuid"
)

const userRuleColumns = `id, name, target_field, operator, compare_mode, compare_value,
	severity, message, enabled, created_at, updated_at`

// CreateUserRule validates and stores a new rule, assigning its ID.
func (s *SQLiteStorage) CreateUserRule(ctx context.Context, rule *model.UserRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUserRule(rule); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	err := s.write(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO user_rules (`+userRuleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rule.ID, rule.Name, rule.TargetField, rule.Operator, rule.CompareMode, rule.CompareValue,
			rule.Severity, rule.Message, rule.Enabled, now, now,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create user rule: %w", err)
	}

	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

// UpdateUserRule replaces a stored rule's definition.
func (s *SQLiteStorage) UpdateUserRule(ctx context.Context, rule *model.UserRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUserRule(rule); err != nil {
		return err
	}
	if err := validateString(rule.ID, "id"); err != nil {
		return err
	}

	now := time.Now().UTC()
	var affected int64
	err := s.write(ctx, func() error {
		result, err := s.db.ExecContext(ctx, `
			UPDATE user_rules SET
				name = ?, target_field = ?, operator = ?, compare_mode = ?, compare_value = ?,
				severity = ?, message = ?, enabled = ?, updated_at = ?
			WHERE id = ?
		`,
			rule.Name, rule.TargetField, rule.Operator, rule.CompareMode, rule.CompareValue,
			rule.Severity, rule.Message, rule.Enabled, now, rule.ID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update user rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user rule %s: %w", rule.ID, common.ErrNotFound)
	}

	rule.UpdatedAt = now
	return nil
}

// GetUserRule retrieves a rule by ID or by name.
func (s *SQLiteStorage) GetUserRule(ctx context.Context, idOrName string) (*model.UserRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(idOrName, "idOrName"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+userRuleColumns+` FROM user_rules WHERE id = ? OR name = ? LIMIT 1`,
		idOrName, idOrName)

	rule, err := scanUserRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user rule %q: %w", idOrName, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user rule: %w", err)
	}
	return &rule, nil
}

// ListUserRules returns all rules in creation order.
func (s *SQLiteStorage) ListUserRules(ctx context.Context) ([]model.UserRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userRuleColumns+` FROM user_rules ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.UserRule
	for rows.Next() {
		rule, err := scanUserRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// SetUserRuleEnabled toggles a rule by ID.
func (s *SQLiteStorage) SetUserRuleEnabled(ctx context.Context, id string, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var affected int64
	err := s.write(ctx, func() error {
		result, err := s.db.ExecContext(ctx,
			"UPDATE user_rules SET enabled = ?, updated_at = ? WHERE id = ?",
			enabled, time.Now().UTC(), id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update user rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteUserRule removes a rule by ID.
func (s *SQLiteStorage) DeleteUserRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var affected int64
	err := s.write(ctx, func() error {
		result, err := s.db.ExecContext(ctx, "DELETE FROM user_rules WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete user rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanUserRule(row rowScanner) (model.UserRule, error) {
	var (
		rule                 model.UserRule
		target, op, mode     string
		severity             string
		createdAt, updatedAt sql.NullTime
	)
	err := row.Scan(&rule.ID, &rule.Name, &target, &op, &mode, &rule.CompareValue,
		&severity, &rule.Message, &rule.Enabled, &createdAt, &updatedAt)
	if err != nil {
		return model.UserRule{}, err
	}

	rule.TargetField = model.Field(target)
	rule.Operator = model.Operator(op)
	rule.CompareMode = model.CompareMode(mode)
	rule.Severity = model.Severity(severity)
	if createdAt.Valid {
		rule.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rule.UpdatedAt = updatedAt.Time
	}
	return rule, nil
}
