package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/report"
)

func transactionsCmd() *cobra.Command {
	var (
		category string
		from     string
		to       string
		limit    int
		summary  bool
	)

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List processed transactions",
		Long: `List transactions saved by 'finagent process' for the current user,
optionally narrowed by category and date range.`,
		Example: `  finagent transactions --from 2024-01-01 --to 2024-03-31 --summary
  finagent transactions --category "Rent & Lease"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			txs, err := a.db.ListTransactions(ctx, model.TransactionFilter{
				UserID:   currentUser(),
				Category: category,
				Start:    start,
				End:      end,
				Limit:    limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if err := cli.RenderTransactions(out, txs); err != nil {
				return err
			}
			if summary && len(txs) > 0 {
				return cli.RenderSummary(out, report.Aggregate(txs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum rows (0 for all)")
	cmd.Flags().BoolVar(&summary, "summary", false, "also print the profit and loss summary")

	return cmd
}

func recategorizeCmd() *cobra.Command {
	var learn bool

	cmd := &cobra.Command{
		Use:   "recategorize <transaction-id> <category>",
		Short: "Correct the category of a processed transaction",
		Long: `Assign a category to a saved transaction by hand.

With --learn the correction is remembered as a rule for the transaction's
counterparty, so future statements from the same entity are categorized the
same way for this user.`,
		Example: `  finagent recategorize 3f9a1c0d2b7e4a6f8c1d2e3f "Consulting Income" --learn`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{engine: true})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			updated, rule, err := a.engine.Recategorize(ctx, currentUser(), args[0], args[1], learn)
			out := cmd.OutOrStdout()
			if updated != nil {
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s is now %s (%s)",
					updated.Transaction.Description,
					updated.Classification.Category,
					updated.Classification.Type)))
			}
			if err != nil {
				return err
			}
			if rule != nil {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Future transactions from %q will use %s",
					rule.EntityNameNormalized, rule.Category)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&learn, "learn", "l", false, "remember the correction as a rule")

	return cmd
}
