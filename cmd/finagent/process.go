package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/engine"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/source"
)

type processOptions struct {
	password     string
	workers      int
	post         bool
	jsonOutput   bool
	showEntries  bool
	showAttempts bool
}

func processCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <statement>...",
		Short: "Extract, categorize and journal bank statements",
		Long: `Extract transactions from one or more bank statements, categorize them,
print a profit and loss summary and generate double-entry journal entries.

Statements may be local files or Cloud Storage objects (gs://bucket/path).
Extracted transactions are always saved. Journal entries are saved only with --post.`,
		Example: `  # Summarize a statement
  finagent process january.pdf

  # Unlock a password protected statement and post its journal entries
  finagent process --password 1234 --post january.pdf

  # Process a quarter from Cloud Storage as JSON
  finagent process --json gs://statements/2024/q1/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password for encrypted statements")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 2, "statements processed concurrently")
	cmd.Flags().BoolVar(&opts.post, "post", false, "save generated journal entries to the ledger")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&opts.showEntries, "entries", false, "print generated journal entries")
	cmd.Flags().BoolVar(&opts.showAttempts, "attempts", false, "print the extraction tiers that were tried")

	return cmd
}

// fileResult is the outcome for one statement.
type fileResult struct {
	Report *engine.Report `json:"report,omitempty"`
	File   string         `json:"file"`
	Error  string         `json:"error,omitempty"`
	err    error
}

func runProcess(cmd *cobra.Command, refs []string, opts processOptions) error {
	remote := slices.ContainsFunc(refs, source.IsRemote)

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	hint := ""
	if opts.post {
		hint = "Statements already processed were saved."
	}
	ctx, stop := handler.HandleInterrupts(cmd.Context(), hint)
	defer stop()

	a, err := newApp(ctx, appOptions{engine: true, remote: remote})
	if err != nil {
		return err
	}
	defer a.closeLogged()

	results := processAll(ctx, a, refs, opts, cmd.ErrOrStderr())
	if handler.WasInterrupted() {
		return ctx.Err()
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		for _, r := range results {
			if err := printResult(out, r, opts); err != nil {
				return err
			}
		}
	}

	var failed []error
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", r.File, r.err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d statements failed: %w", len(failed), len(results), errors.Join(failed...))
	}
	return nil
}

// processAll runs statements through the engine with bounded concurrency.
// A failing statement does not stop the others.
func processAll(ctx context.Context, a *app, refs []string, opts processOptions, progressOut io.Writer) []fileResult {
	results := make([]fileResult, len(refs))

	var bar *progressbar.ProgressBar
	if len(refs) > 1 && !opts.jsonOutput {
		bar = progressbar.NewOptions(len(refs),
			progressbar.OptionSetWriter(progressOut),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Processing statements...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.workers, 1))
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = processOne(gctx, a, ref, opts)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	return results
}

func processOne(ctx context.Context, a *app, ref string, opts processOptions) fileResult {
	res := fileResult{File: ref}

	doc, err := a.loader.Load(ctx, ref)
	if err != nil {
		res.err = err
		res.Error = err.Error()
		return res
	}
	doc.Password = opts.password

	rep, err := a.engine.ProcessAndPost(ctx, doc, currentUser(), opts.post)
	res.Report = rep
	if err != nil {
		res.err = err
		res.Error = err.Error()
		slog.Warn("Statement failed", "file", ref, "code", common.Code(err), "error", err)
	}
	return res
}

func printResult(w io.Writer, r fileResult, opts processOptions) error {
	if r.Report == nil || r.Report.Extraction == nil {
		_, err := fmt.Fprintln(w, cli.FormatError(fmt.Sprintf("%s: %s", r.File, userMessage(r.err))))
		return err
	}
	rep := r.Report

	if opts.showAttempts {
		if err := cli.RenderExtraction(w, r.File, rep.Extraction); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintln(w, cli.FormatTitle(r.File)); err != nil {
		return err
	}

	if rep.Extraction.RequiresPassword {
		msg := "Statement is password protected. Rerun with --password."
		if opts.password != "" {
			msg = "The password was not accepted."
		}
		_, err := fmt.Fprintln(w, cli.FormatWarning(msg))
		return err
	}
	if len(rep.Transactions) == 0 {
		_, err := fmt.Fprintln(w, cli.FormatWarning("No transactions found: "+rep.Extraction.Diagnostic))
		return err
	}

	if err := cli.RenderTransactions(w, rep.Transactions); err != nil {
		return err
	}
	if err := cli.RenderSummary(w, rep.Summary); err != nil {
		return err
	}

	if rep.Journal != nil {
		if opts.showEntries {
			if err := cli.RenderJournal(w, rep.Journal.Entries); err != nil {
				return err
			}
		}
		if err := printJournalSummary(w, rep, opts.post); err != nil {
			return err
		}
	}

	if r.err != nil {
		_, err := fmt.Fprintln(w, cli.FormatError(userMessage(r.err)))
		return err
	}
	return nil
}

func printJournalSummary(w io.Writer, rep *engine.Report, post bool) error {
	entries := rep.Journal.Entries
	review := 0
	for _, e := range entries {
		if e.RequiresReview {
			review++
		}
	}

	var lines []string
	if post {
		lines = append(lines, cli.FormatSuccess(fmt.Sprintf("Posted %d journal entries", rep.Posted)))
	} else {
		lines = append(lines, cli.FormatInfo(fmt.Sprintf("Generated %d journal entries (use --post to save them)", len(entries))))
	}
	if review > 0 {
		lines = append(lines, cli.FormatWarning(fmt.Sprintf("%d entries need review: finagent journal list --review", review)))
	}
	if n := len(rep.Journal.Errors); n > 0 {
		lines = append(lines, cli.FormatWarning(fmt.Sprintf("%d transactions could not be journaled", n)))
	}
	if n := len(rep.Journal.NewAccounts); n > 0 {
		names := make([]string, 0, n)
		for _, acc := range rep.Journal.NewAccounts {
			names = append(names, acc.Code+" "+acc.Name)
		}
		lines = append(lines, cli.FormatInfo(fmt.Sprintf("Created accounts: %v", names)))
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}
