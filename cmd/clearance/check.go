package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/Veraticus/clearance/internal/cli"
	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/health"
	"github.com/Veraticus/clearance/internal/importer"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/tui"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <document>...",
		Short: "Run compliance and integrity checks on trade documents",
		Long: `Scan every line item of one or more documents (JSON, YAML or XLSX) against the
knowledge base, user rules and archived price history.

When critical issues are found the document is only written (--output) or
archived (--archive) after they are acknowledged, either at a prompt, in the
interactive review screen (--interactive) or up front with --yes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().BoolP("interactive", "i", false, "Review findings in a full-screen table")
	cmd.Flags().BoolP("yes", "y", false, "Acknowledge critical issues without asking")
	cmd.Flags().StringP("output", "o", "", "Write the checked document to this file (json, yaml or xlsx)")
	cmd.Flags().Bool("archive", false, "Archive accepted documents into the price history")

	return cmd
}

type scannedDocument struct {
	path     string
	doc      model.Document
	findings []health.Finding
}

func (s scannedDocument) title() string {
	if s.doc.Header.Title != "" {
		return s.doc.Header.Title
	}
	return filepath.Base(s.path)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	interactive, _ := cmd.Flags().GetBool("interactive")
	yes, _ := cmd.Flags().GetBool("yes")
	output, _ := cmd.Flags().GetString("output")
	archive, _ := cmd.Flags().GetBool("archive")

	if output != "" && len(args) > 1 {
		return common.NewUserError("--output needs exactly one document", common.ErrInvalidConfig)
	}

	evaluator, err := newEvaluator()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	engine, err := loadEngineContext(ctx, store)
	if err != nil {
		return err
	}

	scanned, err := scanDocuments(cmd.ErrOrStderr(), args, evaluator, engine)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var all []health.Finding
	for _, s := range scanned {
		if _, err := fmt.Fprintf(out, "%s  %s\n", s.path, cli.FormatStatus(worstStatus(s.findings))); err != nil {
			return err
		}
		if err := cli.RenderFindings(out, s.title(), s.findings); err != nil {
			return fmt.Errorf("failed to render findings: %w", err)
		}
		all = append(all, s.findings...)
	}

	accepted, err := acknowledge(ctx, cmd, interactive, yes, "Continue", all)
	if err != nil {
		return err
	}
	if !accepted {
		return common.NewUserError("Aborted: critical issues were not acknowledged", common.ErrCriticalIssues)
	}

	if output != "" {
		if err := importer.WriteFile(output, scanned[0].doc); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		slog.Info("Wrote document", "path", output, "items", len(scanned[0].doc.Items))
	}

	if archive {
		for _, s := range scanned {
			record, err := store.ArchiveDocument(ctx, &s.doc)
			if err != nil {
				return fmt.Errorf("failed to archive %s: %w", s.path, err)
			}
			common.LogInfo("Archived document", common.Fields{
				"path":  s.path,
				"id":    record.ID,
				"items": len(record.Items),
			})
		}
	}

	return nil
}

func scanDocuments(progressOut io.Writer, paths []string, evaluator *health.Evaluator, engine engineContext) ([]scannedDocument, error) {
	progress := cli.NewProgress(progressOut, len(paths), "Scanning")
	scanned := make([]scannedDocument, 0, len(paths))

	for _, path := range paths {
		doc, err := importer.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := doc.Header.Validate(); err != nil {
			slog.Warn("Document header is incomplete", "path", path, "error", err)
		}

		findings := evaluator.ScanAll(doc.Items, engine.session(doc.Header))
		scanned = append(scanned, scannedDocument{path: path, doc: doc, findings: findings})
		progress.Step()
	}

	return scanned, nil
}

func worstStatus(findings []health.Finding) model.HealthStatus {
	switch {
	case health.HasCritical(findings):
		return model.HealthCritical
	case len(findings) > 0:
		return model.HealthWarning
	default:
		return model.HealthHealthy
	}
}

// acknowledge gates an action on critical findings. Without critical findings it returns true.
func acknowledge(ctx context.Context, cmd *cobra.Command, interactive, yes bool, action string, findings []health.Finding) (bool, error) {
	if !health.HasCritical(findings) {
		return true, nil
	}

	if yes {
		critical, _ := health.Counts(findings)
		slog.Warn("Proceeding despite critical issues", "critical", critical)
		return true, nil
	}

	if interactive {
		return tui.Review(ctx, "Critical issues need review", findings)
	}

	prompter := cli.NewCLIPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	return prompter.Acknowledge(ctx, action, findings)
}
