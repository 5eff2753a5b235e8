package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(&app{})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gatectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatectl",
		Short: "Gate visitor approvals from a terminal",
		Long: `gatectl drives the guard and resident workflows against the visitor backend:
search visitors, submit approval requests with a photo, review and decide pending
requests, watch a visitor until the request is resolved and manage recurring visitors.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	a.bindFlags(cmd)

	cmd.AddCommand(
		newSearchCmd(a),
		newRequestCmd(a),
		newWatchCmd(a),
		newPendingCmd(a),
		newApproveCmd(a),
		newDenyCmd(a),
		newRecurringCmd(a),
		newTokenCmd(a),
		newJournalCmd(a),
	)
	return cmd
}
