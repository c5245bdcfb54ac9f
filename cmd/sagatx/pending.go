package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/pending"
)

func newPendingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect the pending-transaction journal",
	}
	cmd.AddCommand(
		newPendingListCmd(a),
		newPendingPruneCmd(a),
		newPendingClearCmd(a),
	)
	return cmd
}

// withJournal opens the journal for the duration of fn.
func (a *app) withJournal(fn func(j *pending.BoltJournal) error) error {
	j, err := pending.OpenBoltJournal(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(j)
}

func newPendingListCmd(a *app) *cobra.Command {
	var (
		all   bool
		phase string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions that did not finish, or every record with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(func(j *pending.BoltJournal) error {
				now := time.Now()
				ttl := a.cfg.JournalTTL.Std()

				var (
					records []*pending.Record
					err     error
				)
				if all {
					records, err = j.List()
				} else {
					records, err = pending.Recoverable(j, now, ttl)
				}
				if err != nil {
					return err
				}
				if phase != "" {
					want, err := lifecycle.ParsePhase(phase)
					if err != nil {
						return err
					}
					records = filterPhase(records, want)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No pending transactions.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tPHASE\tATTEMPT\tSIGNATURE\tUPDATED\tREASON")
				for _, r := range records {
					label := string(r.Phase)
					if r.Recoverable(now, ttl) {
						label = color.YellowString(label)
					}
					sig := "-"
					if r.Signature != (solana.Signature{}) {
						sig = r.Signature.String()
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
						r.ID, label, r.Attempt, sig, r.UpdatedAt.Format(time.RFC3339), r.Reason)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include finished and expired records")
	cmd.Flags().StringVar(&phase, "phase", "", "Only show records in this phase (e.g. confirming, error)")
	return cmd
}

func filterPhase(records []*pending.Record, phase lifecycle.Phase) []*pending.Record {
	out := records[:0]
	for _, r := range records {
		if r.Phase == phase {
			out = append(out, r)
		}
	}
	return out
}

func newPendingPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete records that are finished or older than the journal TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(func(j *pending.BoltJournal) error {
				n, err := pending.Prune(j, time.Now(), a.cfg.JournalTTL.Std())
				if err != nil {
					return err
				}
				a.logger.Info("journal pruned", zap.Int("removed", n))
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s).\n", n)
				return nil
			})
		},
	}
}

func newPendingClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id> [id...]",
		Short: "Delete journal records by identity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(func(j *pending.BoltJournal) error {
				for _, id := range args {
					if err := j.Delete(id); err != nil {
						return fmt.Errorf("clear %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", id)
				}
				return nil
			})
		},
	}
}
