package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/clearance/internal/cli"
	"github.com/Veraticus/clearance/internal/consolidate"
	"github.com/Veraticus/clearance/internal/importer"
	"github.com/spf13/cobra"
)

func consolidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate <document>",
		Short: "Merge line items that share a product name",
		Long: `Merge line items with the same product name into one row, summing quantities,
totals, weights, volume and cartons and re-deriving unit prices.

With --reprice, documents in domestic-cost mode get their foreign totals
recomputed from the merged domestic cost. The merged document is scanned again
so the checks reflect the consolidated rows.`,
		Args: cobra.ExactArgs(1),
		RunE: runConsolidate,
	}

	cmd.Flags().StringP("output", "o", "", "Write the consolidated document to this file")
	cmd.Flags().Bool("reprice", false, "Recompute foreign prices from domestic cost (domestic-cost mode only)")

	return cmd
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	output, _ := cmd.Flags().GetString("output")
	reprice, _ := cmd.Flags().GetBool("reprice")

	doc, err := importer.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var opts []consolidate.Option
	if reprice {
		opts = append(opts, consolidate.WithRepricing(doc.Header))
	}

	before := len(doc.Items)
	doc.Items = consolidate.Consolidate(doc.Items, opts...)
	slog.Info("Consolidated line items", "before", before, "after", len(doc.Items))

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

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, cli.FormatTitle("Consolidated items")); err != nil {
		return err
	}
	if err := cli.RenderItems(out, doc.Items); err != nil {
		return fmt.Errorf("failed to render items: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}

	findings := evaluator.ScanAll(doc.Items, engine.session(doc.Header))
	if err := cli.RenderFindings(out, "Checks after consolidation", findings); err != nil {
		return fmt.Errorf("failed to render findings: %w", err)
	}

	if output == "" {
		return nil
	}

	if err := importer.WriteFile(output, doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	slog.Info("Wrote document", "path", output, "items", len(doc.Items))

	return nil
}
