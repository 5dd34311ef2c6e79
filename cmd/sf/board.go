package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/models"
	"github.com/zulandar/studyflow/internal/taskview"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Board commands",
	}

	cmd.AddCommand(newBoardListCmd())
	cmd.AddCommand(newBoardCreateCmd())
	cmd.AddCommand(newBoardRenameCmd())
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardExportCmd())
	cmd.AddCommand(newBoardWeekCmd())
	cmd.AddCommand(newBoardLeaveCmd())
	return cmd
}

// boardFlags are the flags of every command acting on one board.
type boardFlags struct {
	configPath string
	user       string
	boardID    string
}

func (f *boardFlags) register(cmd *cobra.Command) {
	addConfigFlag(cmd, &f.configPath)
	addUserFlag(cmd, &f.user)
	cmd.Flags().StringVarP(&f.boardID, "board", "b", "", "board ID (default: your first board)")
}

// open connects and loads the selected board for the user.
func (f *boardFlags) open(cmd *cobra.Command) (*app, board.State, error) {
	if err := requireUser(f.user); err != nil {
		return nil, board.State{}, err
	}
	a, err := openApp(f.configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, board.State{}, err
	}
	st, err := a.store.LoadBoard(cmd.Context(), f.user, f.boardID, "")
	if err != nil {
		a.Close()
		return nil, board.State{}, err
	}
	return a, st, nil
}

func newBoardListCmd() *cobra.Command {
	var configPath, user string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the boards you own or were invited to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			boards, err := a.store.ListAvailableBoards(cmd.Context(), user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(boards) == 0 {
				fmt.Fprintln(out, "No boards found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tROLE")
			for _, b := range boards {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Board.ID, truncate(b.Board.Title, 40), b.Role)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	return cmd
}

func newBoardCreateCmd() *cobra.Command {
	var configPath, user, email string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a board with the default columns and subjects",
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

			b, err := a.store.CreateBoard(cmd.Context(), user, args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %s (%s)\n", b.ID, b.Title)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addUserFlag(cmd, &user)
	cmd.Flags().StringVar(&email, "email", "", "owner email shown to members")
	return cmd
}

func newBoardRenameCmd() *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "rename <title>",
		Short: "Rename a board you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if st.Role != models.RoleOwner {
				return fmt.Errorf("only the owner can rename %q", st.Board.Title)
			}
			if err := a.store.RenameBoard(cmd.Context(), st.Board.ID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed board %s to %q\n", st.Board.ID, strings.TrimSpace(args[0]))
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newBoardLeaveCmd() *cobra.Command {
	var f boardFlags

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave a board shared with you",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.boardID == "" {
				return fmt.Errorf("--board is required")
			}
			if err := requireUser(f.user); err != nil {
				return err
			}
			a, err := openApp(f.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.LeaveBoard(cmd.Context(), f.boardID, f.user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Left board %s\n", f.boardID)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newBoardShowCmd() *cobra.Command {
	var (
		f     boardFlags
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the board's columns and tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if width, ok := terminalWidth(out); ok && !plain {
				fmt.Fprintln(out, renderBoard(st, a.store.Now(), width))
				return nil
			}
			writeBoard(out, st, a.store.Now())
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&plain, "plain", false, "plain text even on a terminal")
	return cmd
}

// terminalWidth reports the width of out when it is a terminal.
func terminalWidth(out io.Writer) (int, bool) {
	file, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return 80, true
	}
	return width, true
}

func writeBoard(out io.Writer, st board.State, now time.Time) {
	fmt.Fprintf(out, "%s (%s)\n", st.Board.Title, st.Role)
	for _, col := range st.Columns {
		tasks := st.TasksIn(col.ID)
		fmt.Fprintf(out, "\n== %s (%d) ==\n", col.Title, len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(out, "  %s  %s\n", t.ID, cardLine(st, t, now))
		}
	}
}

// cardLine is the one-line summary of a task.
func cardLine(st board.State, t models.Task, now time.Time) string {
	parts := []string{t.Title}
	if marker := taskview.PriorityMarker(t.Priority); marker != "" {
		parts[0] = marker + " " + t.Title
	}
	if t.SubjectID != nil {
		if sub, ok := st.Subject(*t.SubjectID); ok {
			parts = append(parts, sub.Name)
		}
	}
	if t.Deadline != nil {
		parts = append(parts, taskview.DeadlineLabel(*t.Deadline, now))
	}
	if t.IsRepeat {
		parts = append(parts, "repeat")
	}
	return strings.Join(parts, " · ")
}

var (
	boardTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	columnBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	columnHeadStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC"))
	overdueLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func renderBoard(st board.State, now time.Time, width int) string {
	n := max(len(st.Columns), 1)
	colWidth := max(width/n-4, 16)
	cols := make([]string, 0, len(st.Columns))
	for _, col := range st.Columns {
		tasks := st.TasksIn(col.ID)
		lines := []string{columnHeadStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(tasks)))}
		for _, t := range tasks {
			line := cardLine(st, t, now)
			if t.Deadline != nil && t.Deadline.Before(now) && t.CompletedAt == nil {
				line = overdueLineStyle.Render(line)
			}
			lines = append(lines, line)
		}
		cols = append(cols, columnBoxStyle.Width(colWidth).Render(strings.Join(lines, "\n")))
	}
	header := boardTitleStyle.Render(st.Board.Title) + " " + string(st.Role)
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

func newBoardExportCmd() *cobra.Command {
	var (
		f       boardFlags
		groupBy string
		notes   bool
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export open tasks as a printable Markdown list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer file.Close()
				out = file
			}
			opts := taskview.ExportOptions{
				Title:   st.Board.Title,
				GroupBy: taskview.ParseGroupBy(groupBy),
				Now:     a.store.Now(),
				Notes:   notes,
			}
			if err := taskview.WriteMarkdown(out, st, opts); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&groupBy, "by", "subject", "group by subject, deadline or column")
	cmd.Flags().BoolVar(&notes, "notes", false, "add a notes section")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func newBoardWeekCmd() *cobra.Command {
	var (
		f      boardFlags
		offset int
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show open tasks by deadline over one week",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			now := a.store.Now()
			days := taskview.Week(taskview.Incomplete(st.Tasks, st.Columns), now, offset)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week of %s\n", taskview.WeekRange(days))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, d := range days {
				label := d.Date.Format("Mon 2 Jan")
				if d.IsToday {
					label += " *"
				}
				load := string(d.Load)
				if load == "" {
					load = "-"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", label, len(d.Tasks), load)
				for _, t := range d.Tasks {
					fmt.Fprintf(w, "\t\t  %s\n", cardLine(st, t, now))
				}
			}
			return w.Flush()
		},
	}

	f.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "weeks from the current one")
	return cmd
}

// truncate shortens s to max runes, adding "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
