package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/dashboard"
)

func newTokenCmd() *cobra.Command {
	var (
		configPath string
		user       string
		email      string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			auth, err := dashboard.NewAuth(cfg.Server.JWTSecret, cfg.Server.Issuer, time.Now)
			if err != nil {
				return err
			}
			tok, err := auth.Issue(user, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", dashboard.DefaultTokenTTL, "token lifetime")
	return cmd
}
