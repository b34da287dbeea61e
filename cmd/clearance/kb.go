package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/clearance/internal/cli"
	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/knowledge"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/spf13/cobra"
)

func kbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the HS-code knowledge base",
		Long: `🛡️  Knowledge Base Management

The knowledge base maps HS-code prefixes to a regulatory status (normal,
warning, banned), an export tax refund rate and a note. Codes resolve by the
longest stored prefix: the full code, then its first 8 digits, then 6.`,
	}

	cmd.AddCommand(kbImportCmd())
	cmd.AddCommand(kbListCmd())
	cmd.AddCommand(kbLookupCmd())
	cmd.AddCommand(kbDeleteCmd())

	return cmd
}

func kbImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import knowledge-base entries from a YAML file",
		Long: `Import entries from a YAML file. Existing prefixes are overwritten.

  entries:
    - hsPrefix: "8471.30"
      status: normal
      taxRefundRatePercent: 13
      note: Portable computers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			entries, err := knowledge.LoadYAML(f)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			n, err := store.ImportComplianceRules(ctx, entries)
			if err != nil {
				return fmt.Errorf("failed to import entries: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d knowledge-base entries", n)))
			return err
		},
	}
}

func kbListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List knowledge-base entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			entries, err := store.ListComplianceRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				_, err := fmt.Fprintln(out, cli.InfoStyle.Render("Knowledge base is empty. Use 'clearance kb import' to load entries."))
				return err
			}

			return renderComplianceRules(out, entries)
		},
	}
}

func renderComplianceRules(w io.Writer, entries []model.ComplianceRule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "HS PREFIX\tSTATUS\tREFUND %\tNOTE"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 10),
		strings.Repeat("─", 8),
		strings.Repeat("─", 8),
		strings.Repeat("─", 20)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.HSPrefix, e.Status, model.Num(e.TaxRefundRatePercent), e.Note); err != nil {
			return fmt.Errorf("failed to write entry row: %w", err)
		}
	}

	return tw.Flush()
}

func kbLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <hs-code>",
		Short: "Resolve an HS code against the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			entries, err := store.ListComplianceRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			out := cmd.OutOrStdout()
			rule, ok := knowledge.Resolve(args[0], knowledge.NewBase(entries))
			if !ok {
				_, err := fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No knowledge-base entry matches %s", args[0])))
				return err
			}

			content := fmt.Sprintf("Prefix: %s\nStatus: %s\nRefund: %s%%\nNote:   %s",
				rule.HSPrefix,
				cli.FormatComplianceStatus(rule.Status),
				model.Num(rule.TaxRefundRatePercent),
				rule.Note)
			_, err = fmt.Fprintln(out, cli.RenderBox(knowledge.NormalizeHSCode(args[0]), content))
			return err
		},
	}
}

func kbDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hs-prefix>",
		Short: "Delete a knowledge-base entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			prefix := knowledge.NormalizeHSCode(args[0])
			if prefix == "" {
				return common.NewUserError(fmt.Sprintf("%q is not an HS prefix", args[0]), common.ErrNotFound)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			if err := store.DeleteComplianceRule(ctx, prefix); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No entry for prefix %s", prefix), err)
				}
				return fmt.Errorf("failed to delete entry: %w", err)
			}

			slog.Info("Deleted knowledge-base entry", "prefix", prefix)
			return nil
		},
	}
}
