package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/config"
	"github.com/Veraticus/clearance/internal/health"
	"github.com/Veraticus/clearance/internal/knowledge"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/pricing"
	"github.com/Veraticus/clearance/internal/rules"
	"github.com/Veraticus/clearance/internal/service"
	"github.com/Veraticus/clearance/internal/storage"
)

// historyCache is shared by every document scanned in one process.
var historyCache = pricing.NewHistoryCache()

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Storage) {
	if closeErr := store.Close(); closeErr != nil {
		common.LogError(closeErr, "failed to close storage", nil)
	}
}

// newEvaluator builds a health evaluator with the configured thresholds.
func newEvaluator() (*health.Evaluator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return health.NewEvaluator(cfg.Thresholds), nil
}

// engineContext is the document-independent state a scan needs.
type engineContext struct {
	kb      knowledge.Base
	matcher *rules.Matcher
	history pricing.History
}

func (e engineContext) session(header model.DocumentHeader) health.Session {
	return health.NewSession(header, e.kb, e.matcher, e.history)
}

// loadEngineContext reads the knowledge base, the user rules and the price history from storage.
// History is rebuilt only when the archived corpus changed since the last build.
func loadEngineContext(ctx context.Context, store service.Storage) (engineContext, error) {
	entries, err := store.ListComplianceRules(ctx)
	if err != nil {
		return engineContext{}, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	userRules, err := store.ListUserRules(ctx)
	if err != nil {
		return engineContext{}, fmt.Errorf("failed to load user rules: %w", err)
	}
	matcher := rules.NewMatcher(userRules)

	version, err := store.HistoryVersion(ctx)
	if err != nil {
		return engineContext{}, fmt.Errorf("failed to read history version: %w", err)
	}

	var buildErr error
	history := historyCache.Get(version, func() pricing.History {
		records, listErr := store.ListHistoricalRecords(ctx)
		if listErr != nil {
			buildErr = listErr
			return pricing.History{}
		}
		slog.Debug("Built price history", "records", len(records), "version", version)
		return pricing.BuildHistory(records)
	})
	if buildErr != nil {
		historyCache.Invalidate()
		return engineContext{}, fmt.Errorf("failed to load price history: %w", buildErr)
	}

	common.LogDebug("Loaded engine context", common.Fields{
		"kb_entries":      len(entries),
		"user_rules":      len(userRules),
		"rejected_rules":  len(matcher.Rejected()),
		"history_buckets": history.Len(),
	})

	return engineContext{
		kb:      knowledge.NewBase(entries),
		matcher: matcher,
		history: history,
	}, nil
}
