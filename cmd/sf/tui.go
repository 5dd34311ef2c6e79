package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/tui"
)

func newTUICmd() *cobra.Command {
	var (
		f       boardFlags
		email   string
		logPath string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open a board in the terminal",
		Long: "Opens an interactive board. Drag cards with the mouse or move them with\n" +
			"the keyboard; press ? for the key map. Changes made elsewhere appear live.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(f.user); err != nil {
				return err
			}

			var logOut io.Writer = io.Discard
			if logPath != "" {
				file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log %s: %w", logPath, err)
				}
				defer file.Close()
				logOut = file
			}

			a, err := openApp(f.configPath, logOut)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()
			return tui.Run(ctx, tui.Options{
				Store:   a.store,
				UserID:  f.user,
				Email:   email,
				BoardID: f.boardID,
				Logger:  a.log,
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&email, "email", "", "email stored on a board created for a new user")
	cmd.Flags().StringVar(&logPath, "log", "", "append logs to this file (default: discard)")
	return cmd
}
