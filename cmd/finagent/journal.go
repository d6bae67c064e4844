package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Review posted journal entries",
		Long: `List journal entries saved with 'finagent process --post' and move them
through review. Approving an entry posts it to the ledger; rejecting or
flagging it takes it out.`,
		Example: `  # Entries waiting for a reviewer
  finagent journal list --review

  # Approve an entry
  finagent journal approve JE-1a2b3c4d-0001`,
	}

	cmd.AddCommand(journalListCmd())
	cmd.AddCommand(journalReviewCmd("approve", model.ReviewApproved, "Approve entries and post them"))
	cmd.AddCommand(journalReviewCmd("reject", model.ReviewRejected, "Reject entries"))
	cmd.AddCommand(journalReviewCmd("flag", model.ReviewFlagged, "Flag entries for follow-up"))
	cmd.AddCommand(journalReviewCmd("reset", model.ReviewPending, "Return entries to pending"))
	cmd.AddCommand(journalBalanceCmd())

	return cmd
}

func journalListCmd() *cobra.Command {
	var (
		status string
		review bool
		from   string
		to     string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := model.JournalFilter{
				Status:       model.ReviewStatus(strings.ToLower(status)),
				ReviewNeeded: review,
				Limit:        limit,
			}
			if filter.Status != "" && !filter.Status.Valid() {
				return common.NewUserError("--status must be pending, approved, rejected or flagged",
					fmt.Errorf("%w: status %q", common.ErrInvalidConfig, status))
			}
			var err error
			if filter.Start, err = parseDate("from", from); err != nil {
				return err
			}
			if filter.End, err = parseDate("to", to); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			entries, err := a.db.GetJournalEntries(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get journal entries: %w", err)
			}
			return cli.RenderJournal(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "only entries with this review status")
	cmd.Flags().BoolVarP(&review, "review", "r", false, "only entries waiting for review")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum entries (0 for all)")

	return cmd
}

func journalReviewCmd(use string, status model.ReviewStatus, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <entry-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{engine: true})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			out := cmd.OutOrStdout()
			for _, id := range args {
				if err := a.engine.ReviewEntry(ctx, id, status); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s %s", id, status)))
			}
			return nil
		},
	}
}

func journalBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Check that posted debits equal posted credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.closeLogged()

			debits, credits, err := a.db.PostedTotals(ctx)
			if err != nil {
				return fmt.Errorf("failed to total posted entries: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Debits:  %s\nCredits: %s\n", cli.FormatMoney(debits), cli.FormatMoney(credits))
			if diff := debits.Sub(credits).Abs(); diff.GreaterThan(a.cfg.Journal.BalanceTolerance) {
				fmt.Fprintln(out, cli.FormatError("Ledger is out of balance by "+cli.FormatMoney(diff)))
				return fmt.Errorf("%w: posted debits and credits differ by %s", common.ErrJournalImbalance, diff)
			}
			fmt.Fprintln(out, cli.FormatSuccess("Ledger is balanced"))
			return nil
		},
	}
}
