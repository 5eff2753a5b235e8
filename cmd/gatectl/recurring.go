package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"visitor-gate/internal/domain/recurring"

	"github.com/spf13/cobra"
)

func newRecurringCmd(a *app) *cobra.Command {
	var residentID string
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring visitors of a resident",
	}
	cmd.PersistentFlags().StringVar(&residentID, "resident", os.Getenv("GATE_RESIDENT_ID"), "Resident id (env GATE_RESIDENT_ID)")

	resident := func() (string, error) {
		id := strings.TrimSpace(residentID)
		if id == "" {
			return "", errors.New("--resident is required")
		}
		return id, nil
	}
	service := func() *recurring.Service {
		return recurring.NewService(a.client, a.cfg.Location, a.log)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recurring visitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resident()
			if err != nil {
				return err
			}
			svc := service()
			rules, err := svc.List(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recurring visitors")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSCHEDULE\tWINDOW\tACTIVE\tNEXT VISIT")
			for _, r := range rules {
				next := "-"
				if t, ok := svc.NextVisitOf(r); ok && r.Active {
					next = t.Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", r.ID, r.Name, r.Recurrence.Label(), r.Window.String(), r.Active, next)
			}
			return tw.Flush()
		},
	}

	var in recurring.NewRule
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring visitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resident()
			if err != nil {
				return err
			}
			in.ResidentID = id
			r, err := service().Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s, %s %s\n", r.ID, r.Name, r.Recurrence.Label(), r.Window.String())
			return nil
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "Visitor name")
	add.Flags().StringVar(&in.Role, "role", "", "Role (maid, driver, ...)")
	add.Flags().StringVar(&in.Schedule, "schedule", "daily", "daily, weekdays, weekends or day names (every_monday_wednesday)")
	add.Flags().StringVar(&in.TimeWindow, "window", "", "Time window HH:MM-HH:MM (empty = all day)")

	toggle := &cobra.Command{
		Use:   "toggle <rule-id>",
		Short: "Activate or deactivate a recurring visitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resident()
			if err != nil {
				return err
			}
			r, err := service().Toggle(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", r.ID, r.Active)
			return nil
		},
	}

	cmd.AddCommand(list, add, toggle)
	return cmd
}
