// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/clearance/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Knowledge-base operations
	SaveComplianceRule(ctx context.Context, rule *model.ComplianceRule) error
	ImportComplianceRules(ctx context.Context, rules []model.ComplianceRule) (int, error)
	GetComplianceRule(ctx context.Context, hsPrefix string) (*model.ComplianceRule, error)
	ListComplianceRules(ctx context.Context) ([]model.ComplianceRule, error)
	DeleteComplianceRule(ctx context.Context, hsPrefix string) error

	// User rule operations
	CreateUserRule(ctx context.Context, rule *model.UserRule) error
	UpdateUserRule(ctx context.Context, rule *model.UserRule) error
	GetUserRule(ctx context.Context, idOrName string) (*model.UserRule, error)
	ListUserRules(ctx context.Context) ([]model.UserRule, error)
	SetUserRuleEnabled(ctx context.Context, id string, enabled bool) error
	DeleteUserRule(ctx context.Context, id string) error

	// Historical record operations
	ArchiveDocument(ctx context.Context, doc *model.Document) (*model.HistoricalRecord, error)
	ListHistoricalRecords(ctx context.Context) ([]model.HistoricalRecord, error)
	GetHistoricalRecord(ctx context.Context, id string) (*model.HistoricalRecord, error)
	DeleteHistoricalRecord(ctx context.Context, id string) error
	HistoryVersion(ctx context.Context) (string, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Close() error
}
