package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/invite"
	"github.com/zulandar/studyflow/internal/models"
)

func newInviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Share a board through invite codes",
	}

	cmd.AddCommand(newInviteCreateCmd())
	cmd.AddCommand(newInviteListCmd())
	cmd.AddCommand(newInviteRevokeCmd())
	cmd.AddCommand(newInviteAcceptCmd())
	return cmd
}

func newInviteCreateCmd() *cobra.Command {
	var (
		f    boardFlags
		role string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invite code for the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			inv, err := invite.New(a.store, a.log).Create(cmd.Context(), st.Board.ID, f.user, models.Role(role))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Invite code: %s\n", inv.Code)
			fmt.Fprintf(out, "Role:        %s\n", inv.Role)
			fmt.Fprintf(out, "Expires:     %s\n", inv.ExpiresAt.Format(time.DateTime))
			fmt.Fprintf(out, "Uses:        %d\n", inv.MaxUses)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "editor or viewer")
	return cmd
}

func newInviteListCmd() *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the board's active invites",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			invs, err := invite.New(a.store, a.log).ListActive(cmd.Context(), st.Board.ID, f.user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(invs) == 0 {
				fmt.Fprintln(out, "No active invites.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tROLE\tUSES\tEXPIRES")
			for _, inv := range invs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
					inv.ID, inv.Code, inv.Role, inv.UseCount, inv.MaxUses, inv.ExpiresAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	f.register(cmd)
	return cmd
}

func newInviteRevokeCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "revoke <invite-id>",
		Short: "Revoke an invite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := invite.New(a.store, a.log).Revoke(cmd.Context(), args[0], user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked invite %s\n", args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	return cmd
}

func newInviteAcceptCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "accept <code>",
		Short: "Join a board with an invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			svc := invite.New(a.store, a.log)
			info, err := svc.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := svc.Accept(cmd.Context(), args[0], user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Joined {
				fmt.Fprintf(out, "You already have access to %q as %s\n", info.BoardTitle, res.Role)
				return nil
			}
			fmt.Fprintf(out, "Joined %q as %s (board %s)\n", info.BoardTitle, res.Role, res.BoardID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	return cmd
}
