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
	"github.com/Veraticus/clearance/internal/importer"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/rules"
	"github.com/Veraticus/clearance/internal/service"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage user-authored rules",
		Long: `🛡️  User Rule Management

User rules compare a line-item field against a literal value or another field:

  clearance rules add --name "Net above gross" --field netWeight --op gt \
    --mode field --value grossWeight --severity critical

Operators: gt, gte, lt, lte, eq, neq, contains, not_contains, empty, not_empty.
Every enabled rule runs during 'clearance check'.`,
	}

	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesImportCmd())
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesEnableCmd(true))
	cmd.AddCommand(rulesEnableCmd(false))
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user rule",
		Args:  cobra.NoArgs,
		RunE:  runRulesAdd,
	}

	cmd.Flags().String("name", "", "Rule name (unique)")
	cmd.Flags().String("field", "", "Target field")
	cmd.Flags().String("op", "", "Operator")
	cmd.Flags().String("mode", string(model.CompareValue), "Compare mode (value, field)")
	cmd.Flags().String("value", "", "Literal value, or the compared field name in field mode")
	cmd.Flags().String("severity", string(model.SeverityWarning), "Severity (warning, critical)")
	cmd.Flags().String("message", "", "Message shown when the rule matches")
	cmd.Flags().Bool("disabled", false, "Create the rule disabled")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

func ruleFromFlags(cmd *cobra.Command) model.UserRule {
	name, _ := cmd.Flags().GetString("name")
	field, _ := cmd.Flags().GetString("field")
	op, _ := cmd.Flags().GetString("op")
	mode, _ := cmd.Flags().GetString("mode")
	value, _ := cmd.Flags().GetString("value")
	severity, _ := cmd.Flags().GetString("severity")
	message, _ := cmd.Flags().GetString("message")
	disabled, _ := cmd.Flags().GetBool("disabled")

	return model.UserRule{
		Name:         strings.TrimSpace(name),
		TargetField:  model.Field(strings.TrimSpace(field)),
		Operator:     model.Operator(strings.ToLower(strings.TrimSpace(op))),
		CompareMode:  model.CompareMode(strings.ToLower(strings.TrimSpace(mode))),
		CompareValue: value,
		Severity:     model.Severity(strings.ToLower(strings.TrimSpace(severity))),
		Message:      message,
		Enabled:      !disabled,
	}
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rule := ruleFromFlags(cmd)
	if err := rules.Validate(rule); err != nil {
		return common.NewUserError(err.Error(), err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	if err := store.CreateUserRule(ctx, &rule); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return common.NewUserError(fmt.Sprintf("A rule named %q already exists", rule.Name), err)
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created rule %q (%s)", rule.Name, rule.ID)))
	return err
}

func rulesImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create user rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			replace, _ := cmd.Flags().GetBool("replace")

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			loaded, err := rules.LoadYAML(f)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			created, updated := 0, 0
			for i := range loaded {
				rule := &loaded[i]
				err := store.CreateUserRule(ctx, rule)
				switch {
				case err == nil:
					created++
				case errors.Is(err, common.ErrDuplicateEntry) && replace:
					existing, getErr := store.GetUserRule(ctx, rule.Name)
					if getErr != nil {
						return fmt.Errorf("failed to load rule %q: %w", rule.Name, getErr)
					}
					rule.ID = existing.ID
					if err := store.UpdateUserRule(ctx, rule); err != nil {
						return fmt.Errorf("failed to update rule %q: %w", rule.Name, err)
					}
					updated++
				case errors.Is(err, common.ErrDuplicateEntry):
					slog.Warn("Skipping existing rule", "name", rule.Name)
				default:
					return fmt.Errorf("failed to create rule %q: %w", rule.Name, err)
				}
			}

			msg := fmt.Sprintf("Created %d of %d rules", created, len(loaded))
			if replace {
				msg += fmt.Sprintf(", updated %d", updated)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return err
		},
	}

	cmd.Flags().Bool("replace", false, "Overwrite rules whose name already exists")

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			list, err := store.ListUserRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				_, err := fmt.Fprintln(out, cli.InfoStyle.Render("No user rules found. Use 'clearance rules add' to create one."))
				return err
			}

			return renderUserRules(out, list)
		},
	}
}

func renderUserRules(w io.Writer, list []model.UserRule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tCONDITION\tENABLED\tSEVERITY"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range list {
		enabled := "yes"
		if !r.Enabled {
			enabled = "no"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, describeCondition(r), enabled, cli.FormatSeverity(r.Severity)); err != nil {
			return fmt.Errorf("failed to write rule row: %w", err)
		}
	}

	return tw.Flush()
}

func describeCondition(r model.UserRule) string {
	if r.Operator.IsUnary() {
		return fmt.Sprintf("%s %s", r.TargetField, r.Operator)
	}
	if r.CompareMode == model.CompareField {
		return fmt.Sprintf("%s %s [%s]", r.TargetField, r.Operator, r.CompareValue)
	}
	return fmt.Sprintf("%s %s %q", r.TargetField, r.Operator, r.CompareValue)
}

// findRule resolves a rule by id or name and turns a miss into a user-facing error.
func findRule(cmd *cobra.Command, store service.Storage, idOrName string) (*model.UserRule, error) {
	rule, err := store.GetUserRule(cmd.Context(), idOrName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewUserError(fmt.Sprintf("No rule with id or name %q", idOrName), err)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-name>",
		Short: "Delete a user rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			rule, err := findRule(cmd, store, args[0])
			if err != nil {
				return err
			}

			if err := store.DeleteUserRule(ctx, rule.ID); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			slog.Info("Deleted rule", "id", rule.ID, "name", rule.Name)
			return nil
		},
	}
}

func rulesEnableCmd(enable bool) *cobra.Command {
	use, short := "enable", "Enable a user rule"
	if !enable {
		use, short = "disable", "Disable a user rule"
	}

	return &cobra.Command{
		Use:   use + " <id-or-name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			rule, err := findRule(cmd, store, args[0])
			if err != nil {
				return err
			}

			if err := store.SetUserRuleEnabled(ctx, rule.ID, enable); err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			slog.Info("Updated rule", "id", rule.ID, "name", rule.Name, "enabled", enable)
			return nil
		},
	}
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <document>",
		Short: "Show which enabled rules match each line item of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := importer.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			list, err := store.ListUserRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			matcher := rules.NewMatcher(list)
			if rejected := matcher.Rejected(); len(rejected) > 0 {
				slog.Info("Some rules were skipped", "count", len(rejected))
			}

			return renderRuleMatches(cmd.OutOrStdout(), matcher, doc.Items)
		},
	}
}

func renderRuleMatches(w io.Writer, matcher *rules.Matcher, items []model.LineItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ROW\tPRODUCT\tMATCHED RULES"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	matched := 0
	for i, item := range items {
		hits := matcher.Match(item)
		if len(hits) == 0 {
			continue
		}
		names := make([]string, 0, len(hits))
		for _, r := range hits {
			names = append(names, r.Name)
		}
		matched++
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, item.Name(), strings.Join(names, ", ")); err != nil {
			return fmt.Errorf("failed to write match row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d of %d item(s) matched at least one rule\n", matched, len(items))
	return err
}
