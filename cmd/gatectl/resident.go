package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"visitor-gate/internal/domain/approvals"

	"github.com/spf13/cobra"
)

func residentFlag(cmd *cobra.Command, residentID *string) {
	cmd.Flags().StringVar(residentID, "resident", os.Getenv("GATE_RESIDENT_ID"), "Resident id (env GATE_RESIDENT_ID)")
}

// controllerFor devuelve un controller con el set pendiente ya cargado.
func controllerFor(cmd *cobra.Command, a *app, residentID string) (*approvals.Controller, error) {
	if strings.TrimSpace(residentID) == "" {
		return nil, errors.New("--resident is required")
	}
	if err := a.openJournal(false); err != nil {
		return nil, err
	}
	ctl := approvals.NewController(residentID, a.client, a.decisions, a.log)
	if _, err := ctl.Refresh(cmd.Context()); err != nil {
		ctl.Close()
		return nil, err
	}
	return ctl, nil
}

func newPendingCmd(a *app) *cobra.Command {
	var (
		residentID string
		follow     bool
		interval   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending approval requests of a resident",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			ctl, err := controllerFor(cmd, a, residentID)
			if err != nil {
				return err
			}
			defer ctl.Close()

			printPending(w, ctl.Pending())
			if !follow {
				return nil
			}

			// Follow trae altas nuevas; un Watch por ítem saca los que se
			// resuelven desde otro dispositivo.
			if _, err := ctl.Follow(ctx, interval); err != nil {
				return err
			}
			if _, err := ctl.WatchPending(ctx, interval); err != nil {
				return err
			}
			last := pendingKey(ctl.Pending())
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					if _, err := ctl.WatchPending(ctx, interval); err != nil {
						return err
					}
					items := ctl.Pending()
					if k := pendingKey(items); k != last {
						last = k
						fmt.Fprintf(w, "\n-- %s --\n", time.Now().Format(time.TimeOnly))
						printPending(w, items)
					}
				}
			}
		},
	}
	residentFlag(cmd, &residentID)
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep refreshing the list")
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.PollInterval, "Refresh interval with --follow")
	return cmd
}

func newApproveCmd(a *app) *cobra.Command {
	var (
		residentID string
		minutes    int
		until      string
	)
	cmd := &cobra.Command{
		Use:   "approve <approval-id>",
		Short: "Approve a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			validUntil := approvals.WindowFrom(now, a.cfg.DefaultApprovalWindow)
			switch {
			case until != "":
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("invalid --until: %w", err)
				}
				if !t.After(now) {
					return errors.New("--until must be in the future")
				}
				validUntil = t.UTC()
			case minutes > 0:
				validUntil = approvals.WindowFrom(now, time.Duration(minutes)*time.Minute)
			case minutes < 0:
				return errors.New("--minutes must be positive")
			}

			ctl, err := controllerFor(cmd, a, residentID)
			if err != nil {
				return err
			}
			defer ctl.Close()

			if err := ctl.Approve(cmd.Context(), args[0], validUntil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s until %s\n", args[0], validUntil.Local().Format(time.DateTime))
			return nil
		},
	}
	residentFlag(cmd, &residentID)
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Approval window in minutes (default from DEFAULT_APPROVAL_WINDOW)")
	cmd.Flags().StringVar(&until, "until", "", "Explicit end of the approval window (RFC3339)")
	cmd.MarkFlagsMutuallyExclusive("minutes", "until")
	return cmd
}

func newDenyCmd(a *app) *cobra.Command {
	var (
		residentID string
		reason     string
	)
	cmd := &cobra.Command{
		Use:   "deny <approval-id>",
		Short: "Deny a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := controllerFor(cmd, a, residentID)
			if err != nil {
				return err
			}
			defer ctl.Close()

			if err := ctl.Deny(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "denied %s\n", args[0])
			return nil
		},
	}
	residentFlag(cmd, &residentID)
	cmd.Flags().StringVar(&reason, "reason", "", "Reason sent to the backend (optional)")
	return cmd
}

func printPending(w io.Writer, items []approvals.PendingApproval) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no pending requests")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVISITOR\tPURPOSE\tREQUESTED")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.VisitorName, it.Purpose, it.CreatedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}

func pendingKey(items []approvals.PendingApproval) string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return strings.Join(ids, ",")
}
