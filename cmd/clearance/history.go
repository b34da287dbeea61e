package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/clearance/internal/cli"
	"github.com/Veraticus/clearance/internal/importer"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/pricing"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage archived documents used for price history",
		Long: `🛡️  Price History

Archived documents feed the price anomaly check. Unit prices are grouped by
product name and reference currency: the domestic currency for documents in
domestic-cost mode, otherwise the document currency.`,
	}

	cmd.AddCommand(historyImportCmd())
	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDeleteCmd())

	return cmd
}

func historyImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <document>...",
		Short: "Archive documents into the price history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			progress := cli.NewProgress(cmd.ErrOrStderr(), len(args), "Archiving")
			for _, path := range args {
				doc, err := importer.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				if _, err := store.ArchiveDocument(ctx, &doc); err != nil {
					return fmt.Errorf("failed to archive %s: %w", path, err)
				}
				progress.Step()
			}
			historyCache.Invalidate()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Archived %d document(s)", len(args))))
			return err
		},
	}
}

func historyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			records, err := store.ListHistoricalRecords(ctx)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, err := fmt.Fprintln(out, cli.InfoStyle.Render("No archived documents. Use 'clearance history import' to add some."))
				return err
			}

			return renderHistoricalRecords(out, records)
		},
	}
}

func renderHistoricalRecords(w io.Writer, records []model.HistoricalRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tCURRENCY\tMODE\tITEMS\tARCHIVED"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		mode := "foreign"
		if r.Header.UseDomesticCostMode {
			mode = "domestic"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Header.Title, r.Header.Currency(), mode, len(r.Items),
			r.ArchivedAt.Local().Format("2006-01-02 15:04")); err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
	}

	return tw.Flush()
}

func historyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <product-name>",
		Short: "Show recorded unit prices for a product",
		Long: `Show the historical unit prices of a product. Without --currency every
reference currency the product was recorded under is listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			currency, _ := cmd.Flags().GetString("currency")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			engine, err := loadEngineContext(ctx, store)
			if err != nil {
				return err
			}

			return renderPriceHistory(cmd.OutOrStdout(), engine.history, args[0], currency)
		},
	}

	cmd.Flags().String("currency", "", "Reference currency (e.g. USD, or CNY for domestic cost)")

	return cmd
}

func renderPriceHistory(w io.Writer, history pricing.History, name, currency string) error {
	var currencies []string
	if currency != "" {
		currencies = []string{strings.ToUpper(strings.TrimSpace(currency))}
	} else {
		prefix := pricing.HistoryKey(name, "")
		for _, key := range history.Keys() {
			if strings.HasPrefix(key, prefix) {
				currencies = append(currencies, strings.TrimPrefix(key, prefix))
			}
		}
	}

	found := false
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "CURRENCY\tRECORDS\tAVERAGE\tMIN\tMAX"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, cur := range currencies {
		prices := history.Lookup(name, cur)
		avg, ok := pricing.Average(prices)
		if !ok {
			continue
		}
		found = true
		lo, hi := prices[0], prices[0]
		for _, p := range prices[1:] {
			lo = min(lo, p)
			hi = max(hi, p)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			cur, len(prices), model.Num(pricing.Round(avg, pricing.UnitPricePlaces)), model.Num(lo), model.Num(hi)); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}

	if !found {
		_, err := fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("No price history for %q", name)))
		return err
	}

	return tw.Flush()
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Remove an archived document from the price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			if err := store.DeleteHistoricalRecord(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete record: %w", err)
			}
			historyCache.Invalidate()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted archived document "+args[0]))
			return err
		},
	}
}
