package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read the local submission and decision journal (requires DB_DSN)",
	}

	var limit int
	submissions := &cobra.Command{
		Use:   "submissions",
		Short: "Latest guard submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openJournal(true); err != nil {
				return err
			}
			items, err := a.submissions.ListSubmissions(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "AT\tAPPROVAL\tVISITOR\tNAME\tAPT\tFACE\tPHOTO")
			for _, s := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%t\n",
					s.CreatedAt.Local().Format(time.DateTime), s.ApprovalID, s.VisitorID, s.VisitorName, s.AptNumber, s.FaceDetected, s.PhotoPersisted)
			}
			return tw.Flush()
		},
	}
	submissions.Flags().IntVar(&limit, "limit", 50, "Max rows")

	decisions := &cobra.Command{
		Use:   "decisions [approval-id]",
		Short: "Resident decisions, optionally for one request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openJournal(true); err != nil {
				return err
			}
			approvalID := ""
			if len(args) == 1 {
				approvalID = args[0]
			}
			items, err := a.decisions.ListDecisions(cmd.Context(), approvalID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "AT\tAPPROVAL\tRESIDENT\tACTION\tVALID UNTIL\tREASON")
			for _, d := range items {
				until := "-"
				if d.ValidUntil != nil {
					until = d.ValidUntil.Local().Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.CreatedAt.Local().Format(time.DateTime), d.ApprovalID, d.ResidentID, d.Action, until, d.Reason)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(submissions, decisions)
	return cmd
}
