package main

import (
	"fmt"
	"io"

	"github.com/Veraticus/clearance/internal/cli"
	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/pricing"
	"github.com/spf13/cobra"
)

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a domestic cost into a foreign sale price",
		Long: `Embed the unrecovered share of VAT into a domestic procurement cost and convert
it into the foreign currency, truncated to whole units:

  foreign = floor(cost * (1 + vat - refund) / (1 + vat) / rate)

With --quantity the unit price is printed as well.`,
		Args: cobra.NoArgs,
		RunE: runConvert,
	}

	cmd.Flags().Float64("cost", 0, "Total domestic cost")
	cmd.Flags().Float64("rate", 0, "Domestic units per one foreign unit")
	cmd.Flags().Float64("vat", model.DefaultTaxRatePercent, "VAT rate in percent")
	cmd.Flags().Float64("refund", model.DefaultTaxRatePercent, "Export tax refund rate in percent")
	cmd.Flags().Float64("quantity", 0, "Quantity for the unit price")
	_ = cmd.MarkFlagRequired("cost")
	_ = cmd.MarkFlagRequired("rate")

	return cmd
}

func runConvert(cmd *cobra.Command, _ []string) error {
	cost, _ := cmd.Flags().GetFloat64("cost")
	rate, _ := cmd.Flags().GetFloat64("rate")
	vat, _ := cmd.Flags().GetFloat64("vat")
	refund, _ := cmd.Flags().GetFloat64("refund")
	quantity, _ := cmd.Flags().GetFloat64("quantity")

	return writeConversion(cmd.OutOrStdout(), cost, rate, vat, refund, quantity)
}

func writeConversion(w io.Writer, cost, rate, vat, refund, quantity float64) error {
	total := pricing.DomesticCostToForeignPrice(cost, rate, vat, refund)
	if total == 0 {
		return common.NewUserError("Conversion produced no price: cost and rate must be positive", common.ErrInvalidConfig)
	}

	if _, err := fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Total foreign price: %s", model.Num(total)))); err != nil {
		return err
	}

	if quantity == 0 {
		return nil
	}

	unit, _ := pricing.UnitPrice(total, quantity)
	_, err := fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Unit price: %s", model.Num(unit))))
	return err
}
