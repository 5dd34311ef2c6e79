package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/store"
	"github.com/zulandar/studyflow/internal/task"
)

func newSubjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Subject management commands",
	}

	cmd.AddCommand(newSubjectListCmd())
	cmd.AddCommand(newSubjectAddCmd())
	cmd.AddCommand(newSubjectUpdateCmd())
	cmd.AddCommand(newSubjectDeleteCmd())
	return cmd
}

func newSubjectListCmd() *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the board's subjects",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(st.Subjects) == 0 {
				fmt.Fprintln(out, "No subjects found.")
				return nil
			}
			counts := make(map[string]int)
			for _, t := range st.Tasks {
				if t.SubjectID != nil {
					counts[*t.SubjectID]++
				}
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLOR\tTASKS")
			for _, s := range st.Subjects {
				color := "-"
				if s.Color != nil {
					color = *s.Color
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.Name, color, counts[s.ID])
			}
			return w.Flush()
		},
	}

	f.register(cmd)
	return cmd
}

func newSubjectAddCmd() *cobra.Command {
	var (
		f     boardFlags
		color string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireEdit(st); err != nil {
				return err
			}

			var c *string
			if color != "" {
				c = &color
			}
			sub, err := a.store.AddSubject(cmd.Context(), st.Board.ID, f.user, args[0], c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created subject %s (%s)\n", sub.ID, sub.Name)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&color, "color", "", "hex colour such as #4F86F7 (default: next palette colour)")
	return cmd
}

func newSubjectUpdateCmd() *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "update <subject>",
		Short: "Rename or recolour a subject",
		Long:  "Updates a subject given by ID or name. An empty --color clears the colour.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireEdit(st); err != nil {
				return err
			}
			sub, err := task.ResolveSubject(st.Subjects, args[0])
			if err != nil {
				return err
			}

			var patch store.SubjectPatch
			if cmd.Flags().Changed("name") {
				v, _ := cmd.Flags().GetString("name")
				patch.Name = &v
			}
			if cmd.Flags().Changed("color") {
				v, _ := cmd.Flags().GetString("color")
				if v == "" {
					patch.Color = store.Null[string]()
				} else {
					patch.Color = store.Value(v)
				}
			}
			if patch.Name == nil && !cmd.Flags().Changed("color") {
				return fmt.Errorf("nothing to update")
			}

			updated, err := a.store.UpdateSubject(cmd.Context(), sub.ID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated subject %s (%s)\n", updated.ID, updated.Name)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("color", "", "new hex colour")
	return cmd
}

func newSubjectDeleteCmd() *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "delete <subject>",
		Short: "Delete a subject; its tasks keep no subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireEdit(st); err != nil {
				return err
			}
			sub, err := task.ResolveSubject(st.Subjects, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteSubject(cmd.Context(), sub.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subject %s (%s)\n", sub.ID, sub.Name)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}
