package main

import (
	"errors"
	"fmt"
	"time"

	"visitor-gate/internal/adapters/auth/jwtsession"
	"visitor-gate/internal/ports/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an HS256 session token signed with SESSION_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.ParseRole(role)
			if r == "" {
				return errors.New("--role must be resident or guard")
			}
			v, err := jwtsession.NewVerifier(a.cfg.SessionSecret)
			if err != nil {
				return fmt.Errorf("SESSION_SECRET: %w", err)
			}
			tok, err := v.Issue(userID, r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&role, "role", "", "resident or guard")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
