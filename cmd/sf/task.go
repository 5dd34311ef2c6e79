package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/ordering"
	"github.com/zulandar/studyflow/internal/task"
	"github.com/zulandar/studyflow/internal/taskview"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskReorderCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	return cmd
}

// requireEdit fails when role may not change the board.
func requireEdit(st board.State) error {
	if !access.CanEdit(st.Role) {
		return fmt.Errorf("board %q is read-only for a %s", st.Board.Title, st.Role)
	}
	return nil
}

// openTaskEngine loads the board holding taskID and wraps it in an ordering
// engine acting as the user.
func openTaskEngine(cmd *cobra.Command, a *app, user, taskID string) (*ordering.Engine, board.State, error) {
	boardID, err := a.store.TaskBoard(cmd.Context(), taskID)
	if err != nil {
		return nil, board.State{}, err
	}
	st, err := a.store.OpenBoard(cmd.Context(), boardID, user)
	if err != nil {
		return nil, board.State{}, err
	}
	c := board.NewContainer(st)
	return ordering.New(c, a.store, a.log, ordering.WithClock(a.store.Now)), st, nil
}

func newTaskAddCmd() *cobra.Command {
	var (
		f           boardFlags
		column      string
		subject     string
		description string
		deadline    string
		priority    string
		repeat      bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the end of a column",
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

			due, err := task.ParseDeadline(deadline, time.Local)
			if err != nil {
				return err
			}
			t, err := task.Create(cmd.Context(), a.store, task.CreateOpts{
				BoardID:     st.Board.ID,
				Column:      column,
				Subject:     subject,
				Title:       args[0],
				Description: description,
				Deadline:    due,
				Priority:    priority,
				Repeat:      repeat,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", t.ID, t.Title)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&column, "column", "", "column ID, title or position (default: first column)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject ID or name")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline as YYYY-MM-DD or RFC 3339")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low, medium or high")
	cmd.Flags().BoolVar(&repeat, "repeat", false, "park the task in the repeat column when done")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		f          boardFlags
		column     string
		subject    string
		priority   string
		incomplete bool
		dueWithin  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with optional filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			filters := task.ListFilters{
				BoardID:    st.Board.ID,
				Priority:   priority,
				Incomplete: incomplete,
			}
			if column != "" {
				col, err := task.ResolveColumn(st.Columns, column)
				if err != nil {
					return err
				}
				filters.ColumnID = col.ID
			}
			if subject != "" {
				sub, err := task.ResolveSubject(st.Subjects, subject)
				if err != nil {
					return err
				}
				filters.SubjectID = sub.ID
			}
			now := a.store.Now()
			if dueWithin > 0 {
				before := now.Add(dueWithin)
				filters.DueBefore = &before
			}

			tasks, err := task.List(cmd.Context(), a.db, filters)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCOLUMN\tSUBJECT\tPRIORITY\tDEADLINE")
			for _, t := range tasks {
				colTitle := "-"
				if col, ok := st.Column(t.ColumnID); ok {
					colTitle = col.Title
				}
				subName := "-"
				if t.SubjectID != nil {
					if sub, ok := st.Subject(*t.SubjectID); ok {
						subName = sub.Name
					}
				}
				due := taskview.PrintDeadline(t.Deadline, now)
				if due == "" {
					due = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, truncate(t.Title, 40), colTitle, subName, t.Priority, due)
			}
			return w.Flush()
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&column, "column", "", "filter by column ID, title or position")
	cmd.Flags().StringVar(&subject, "subject", "", "filter by subject ID or name")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().BoolVar(&incomplete, "incomplete", false, "only tasks not yet completed")
	cmd.Flags().DurationVar(&dueWithin, "due-within", 0, "only tasks due within this duration (e.g. 48h)")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task's details",
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

			_, st, err := openTaskEngine(cmd, a, user, args[0])
			if err != nil {
				return err
			}
			t, ok := st.Task(args[0])
			if !ok {
				return fmt.Errorf("task %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			now := a.store.Now()
			fmt.Fprintf(out, "ID:        %s\n", t.ID)
			fmt.Fprintf(out, "Title:     %s\n", t.Title)
			if col, ok := st.Column(t.ColumnID); ok {
				fmt.Fprintf(out, "Column:    %s (position %d)\n", col.Title, t.Position)
			}
			if t.SubjectID != nil {
				if sub, ok := st.Subject(*t.SubjectID); ok {
					fmt.Fprintf(out, "Subject:   %s\n", sub.Name)
				}
			}
			fmt.Fprintf(out, "Priority:  %s\n", t.Priority)
			if t.Deadline != nil {
				fmt.Fprintf(out, "Deadline:  %s (%s)\n", t.Deadline.Format(time.DateTime), taskview.DeadlineLabel(*t.Deadline, now))
			}
			if t.IsRepeat {
				fmt.Fprintln(out, "Repeat:    yes")
			}
			if t.CompletedAt != nil {
				fmt.Fprintf(out, "Completed: %s\n", t.CompletedAt.Format(time.DateTime))
			}
			if t.Description != nil && *t.Description != "" {
				fmt.Fprintf(out, "\n%s\n", *t.Description)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Long:  "Updates only the fields passed. An empty --subject, --description or --deadline clears it.",
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

			_, st, err := openTaskEngine(cmd, a, user, args[0])
			if err != nil {
				return err
			}
			if err := requireEdit(st); err != nil {
				return err
			}

			var opts task.UpdateOpts
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				opts.Title = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				opts.Description = &v
			}
			if flags.Changed("subject") {
				v, _ := flags.GetString("subject")
				opts.Subject = &v
			}
			if flags.Changed("deadline") {
				v, _ := flags.GetString("deadline")
				opts.Deadline = &v
			}
			if flags.Changed("priority") {
				v, _ := flags.GetString("priority")
				opts.Priority = &v
			}
			if flags.Changed("repeat") {
				v, _ := flags.GetBool("repeat")
				opts.Repeat = &v
			}
			if opts == (task.UpdateOpts{}) {
				return fmt.Errorf("nothing to update")
			}

			t, err := task.Update(cmd.Context(), a.store, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", t.ID, t.Title)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("subject", "", "subject ID or name")
	cmd.Flags().String("deadline", "", "deadline as YYYY-MM-DD or RFC 3339")
	cmd.Flags().String("priority", "", "low, medium or high")
	cmd.Flags().Bool("repeat", false, "park the task in the repeat column when done")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var (
		configPath string
		user       string
		index      int
	)

	cmd := &cobra.Command{
		Use:   "move <id> <column>",
		Short: "Move a task to another column",
		Long: "Moves a task to a column given by ID, title or position. Moving into the\n" +
			"done column marks the task completed; repeat tasks go to the repeat column.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			eng, st, err := openTaskEngine(cmd, a, user, args[0])
			if err != nil {
				return err
			}
			col, err := task.ResolveColumn(st.Columns, args[1])
			if err != nil {
				return err
			}
			if index < 0 {
				index = 0
				for _, t := range st.TasksIn(col.ID) {
					if t.ID != args[0] {
						index++
					}
				}
			}
			if err := eng.CommitMove(cmd.Context(), args[0], col.ID, index); err != nil {
				return err
			}

			moved, _ := eng.Board().Snapshot().Task(args[0])
			dest, _ := st.Column(moved.ColumnID)
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task %s to %s\n", args[0], dest.Title)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	cmd.Flags().IntVar(&index, "index", -1, "position in the column (default: end)")
	return cmd
}

func newTaskReorderCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "reorder <id> <index>",
		Short: "Move a task to a new position within its column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var to int
			if _, err := fmt.Sscanf(args[1], "%d", &to); err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			eng, st, err := openTaskEngine(cmd, a, user, args[0])
			if err != nil {
				return err
			}
			t, ok := st.Task(args[0])
			if !ok {
				return fmt.Errorf("task %s not found", args[0])
			}
			tasks := st.TasksIn(t.ColumnID)
			ids := make([]string, len(tasks))
			from := 0
			for i, ct := range tasks {
				ids[i] = ct.ID
				if ct.ID == t.ID {
					from = i
				}
			}
			to = min(max(to, 0), len(ids)-1)
			if err := eng.ReorderWithinColumn(cmd.Context(), t.ColumnID, ordering.ArrayMove(ids, from, to)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task %s to position %d\n", t.ID, to)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			var failed []string
			out := cmd.OutOrStdout()
			for _, id := range args {
				_, st, err := openTaskEngine(cmd, a, user, id)
				if err == nil {
					err = requireEdit(st)
				}
				if err == nil {
					err = task.Delete(cmd.Context(), a.store, id)
				}
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
					failed = append(failed, id)
					continue
				}
				fmt.Fprintf(out, "Deleted task %s\n", id)
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed to delete %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	return cmd
}
