package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the chart of accounts",
		Long: `List and extend the chart of accounts used by journal generation.
The chart is seeded with a default set of accounts on first use.`,
	}

	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsAddCmd())

	return cmd
}

func accountsListCmd() *cobra.Command {
	var accountType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{engine: true})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			chart, err := a.engine.Chart(ctx)
			if err != nil {
				return err
			}

			accounts := chart.All()
			if accountType != "" {
				t := model.AccountType(strings.ToLower(accountType))
				accounts = chart.Accounts[t]
			}
			return cli.RenderAccounts(cmd.OutOrStdout(), accounts)
		},
	}

	cmd.Flags().StringVarP(&accountType, "type", "t", "", "only accounts of this type (asset, liability, equity, revenue, expense)")

	return cmd
}

func accountsAddCmd() *cobra.Command {
	var accountType string

	cmd := &cobra.Command{
		Use:     "add <code> <name>",
		Short:   "Add an account",
		Example: `  finagent accounts add 5450 "Software Subscriptions" --type expense`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc := model.Account{
				Code: strings.TrimSpace(args[0]),
				Name: strings.TrimSpace(args[1]),
				Type: model.AccountType(strings.ToLower(accountType)),
			}
			if !acc.Type.Valid() {
				return common.NewUserError("--type must be asset, liability, equity, revenue or expense",
					fmt.Errorf("%w: account type %q", common.ErrInvalidConfig, accountType))
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{engine: true})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			chart, err := a.engine.Chart(ctx)
			if err != nil {
				return err
			}
			if existing, ok := chart.FindByCode(acc.Code); ok {
				return common.NewUserError(fmt.Sprintf("account %s already exists (%s)", existing.Code, existing.Name),
					fmt.Errorf("%w: account %s", common.ErrDuplicateEntry, acc.Code))
			}
			if existing, ok := chart.FindByName(acc.Type, acc.Name); ok {
				return common.NewUserError(fmt.Sprintf("%s account %q already exists as %s", acc.Type, acc.Name, existing.Code),
					fmt.Errorf("%w: account %q", common.ErrDuplicateEntry, acc.Name))
			}

			if err := a.db.SaveAccounts(ctx, []model.Account{acc}); err != nil {
				return fmt.Errorf("failed to save account: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s %s (%s)", acc.Code, acc.Name, acc.Type)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountType, "type", "t", "expense", "account type")

	return cmd
}
