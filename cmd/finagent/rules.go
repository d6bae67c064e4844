package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/classification"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage learned categorization rules",
		Long: `View, add and delete the per-user rules that map a counterparty to a category.
Rules take precedence over the built-in category patterns.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the current user's rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			rules, err := a.rules.GetRules(ctx, currentUser())
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}
			return cli.RenderRules(cmd.OutOrStdout(), rules)
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "add <entity> <category>",
		Short: "Add or replace a rule",
		Long: `Map a counterparty to a category for the current user. The entity is
normalized the same way names are extracted from statement descriptions.`,
		Example: `  finagent rules add "Acme Traders" "Consulting Income" --type revenue`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, ok := model.ParseCategoryType(categoryType)
			if !ok {
				return common.NewUserError("--type must be revenue or expense",
					fmt.Errorf("%w: type %q", common.ErrInvalidConfig, categoryType))
			}
			entity := classification.NormalizeEntity(args[0])
			if entity == "" {
				return common.NewUserError(fmt.Sprintf("%q is not a usable entity name", args[0]),
					fmt.Errorf("%w: entity %q", common.ErrInvalidConfig, args[0]))
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			now := time.Now()
			rule := &model.CategoryRule{
				UserID:               currentUser(),
				EntityNameNormalized: entity,
				Category:             args[1],
				Type:                 ct,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := a.rules.UpsertRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to save rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%q → %s (%s)", entity, rule.Category, rule.Type)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", "expense", "category side: revenue or expense")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			entity := classification.NormalizeEntity(args[0])
			if err := a.rules.DeleteRule(ctx, currentUser(), entity); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule for %q", entity)))
			return nil
		},
	}
}
