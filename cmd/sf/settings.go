package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/models"
)

func newSettingsCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change your deadline reminder settings",
		Long: "Without flags, shows your settings. Pass --notifications, --hours or\n" +
			"--email to change them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			us, err := a.store.GetSettings(cmd.Context(), user)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("notifications") && !flags.Changed("hours") && !flags.Changed("email") {
				printSettings(cmd.OutOrStdout(), us)
				return nil
			}
			if flags.Changed("notifications") {
				us.NotificationsEnabled, _ = flags.GetBool("notifications")
			}
			if flags.Changed("hours") {
				us.HoursBeforeDeadline, _ = flags.GetInt("hours")
			}
			if flags.Changed("email") {
				us.EmailNotifications, _ = flags.GetBool("email")
			}
			saved, err := a.store.SaveSettings(cmd.Context(), us)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved.")
			printSettings(cmd.OutOrStdout(), saved)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	cmd.Flags().Bool("notifications", false, "enable deadline reminders")
	cmd.Flags().Int("hours", 24, "remind this many hours before a deadline (1-168)")
	cmd.Flags().Bool("email", false, "also deliver reminders by email")
	return cmd
}

func printSettings(out io.Writer, us models.UserSettings) {
	fmt.Fprintf(out, "Notifications:  %s\n", onOff(us.NotificationsEnabled))
	fmt.Fprintf(out, "Hours before:   %d\n", us.HoursBeforeDeadline)
	fmt.Fprintf(out, "Email:          %s\n", onOff(us.EmailNotifications))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
