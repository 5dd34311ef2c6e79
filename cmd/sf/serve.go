package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/dashboard"
	"github.com/zulandar/studyflow/internal/notify"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the StudyFlow API server",
		Long: "Serves the JSON API and live board event stream. When notify.enabled is set,\n" +
			"deadline reminders run on their schedule alongside the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default: server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	a, err := openApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if a.cfg.Notify.Enabled {
		n, err := newNotifier(a)
		if err != nil {
			return err
		}
		sched, err := notify.NewScheduler(n, a.cfg.Notify.Schedule)
		if err != nil {
			return err
		}
		go func() {
			if err := sched.Run(ctx); err != nil {
				a.log.WithError(err).Error("serve: reminder scheduler")
			}
		}()
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		Store:     a.store,
		JWTSecret: a.cfg.Server.JWTSecret,
		Issuer:    a.cfg.Server.Issuer,
		Port:      port,
		Out:       cmd.OutOrStdout(),
		Logger:    a.log,
	})
}
