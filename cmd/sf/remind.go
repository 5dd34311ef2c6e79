package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/notify"
	"github.com/zulandar/studyflow/internal/taskview"
)

func newRemindCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send deadline reminders",
		Long: "Sends a reminder for every task due within each user's lead time through the\n" +
			"configured Slack, Discord and command senders. With --watch, keeps running on\n" +
			"the notify.schedule cron expression.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, configPath, watch, dryRun)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running on the configured schedule")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list due reminders without sending them")
	return cmd
}

func runRemind(cmd *cobra.Command, configPath string, watch, dryRun bool) error {
	a, err := openApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := newNotifier(a)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if dryRun {
		rems, err := n.Due(cmd.Context())
		if err != nil {
			return err
		}
		if len(rems) == 0 {
			fmt.Fprintln(out, "No reminders due.")
			return nil
		}
		now := a.store.Now()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tBOARD\tTASK\tDUE")
		for _, r := range rems {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.UserID, r.BoardTitle, truncate(r.Task.Title, 40),
				taskview.DeadlineLabel(*r.Task.Deadline, now))
		}
		return w.Flush()
	}

	if len(n.Senders()) == 0 {
		return fmt.Errorf("no reminder senders configured: set notify.slack, notify.discord or notify.command")
	}

	if !watch {
		sent, err := n.Run(cmd.Context())
		fmt.Fprintf(out, "Sent %d reminder(s)\n", sent)
		return err
	}

	sched, err := notify.NewScheduler(n, a.cfg.Notify.Schedule)
	if err != nil {
		return err
	}
	if next, err := notify.NextRun(a.cfg.Notify.Schedule, time.Now()); err == nil {
		fmt.Fprintf(out, "Reminders via %v, next run %s\n", n.Senders(), next.Format(time.DateTime))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return sched.Run(ctx)
}
