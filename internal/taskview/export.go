package taskview

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zulandar/studyflow/internal/board"
)

// ExportOptions configures a Markdown export.
type ExportOptions struct {
	Title   string
	GroupBy GroupBy
	Now     time.Time
	// Notes adds an empty notes section at the end.
	Notes bool
}

// WriteMarkdown writes the incomplete tasks of s as a printable checklist.
// The grouping dimension is left out of each task's metadata.
func WriteMarkdown(w io.Writer, s board.State, opts ExportOptions) error {
	if opts.Title == "" {
		opts.Title = "My tasks"
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n\n", opts.Title)
	fmt.Fprintf(bw, "_%s_\n", opts.Now.Format("Monday, 2 January"))

	for _, g := range Grouped(s, opts.GroupBy, opts.Now) {
		fmt.Fprintf(bw, "\n## %s (%d)\n\n", g.Label, len(g.Tasks))
		for _, t := range g.Tasks {
			line := "- [ ] "
			if m := PriorityMarker(t.Priority); m != "" {
				line += "**" + m + "** "
			}
			line += escape(t.Title)

			var meta []string
			if opts.GroupBy != BySubject && t.SubjectID != nil {
				if sub, ok := s.Subject(*t.SubjectID); ok {
					meta = append(meta, "["+escape(sub.Name)+"]")
				}
			}
			if opts.GroupBy != ByColumn {
				if col, ok := s.Column(t.ColumnID); ok {
					meta = append(meta, "["+escape(col.Title)+"]")
				}
			}
			if opts.GroupBy != ByDeadline {
				if d := PrintDeadline(t.Deadline, opts.Now); d != "" {
					meta = append(meta, "due "+d)
				}
			}
			if len(meta) > 0 {
				line += "  " + strings.Join(meta, " ")
			}
			fmt.Fprintln(bw, line)
			if t.Description != nil && strings.TrimSpace(*t.Description) != "" {
				for _, l := range strings.Split(strings.TrimSpace(*t.Description), "\n") {
					fmt.Fprintf(bw, "  > _%s_\n", escape(l))
				}
			}
		}
	}

	if opts.Notes {
		fmt.Fprint(bw, "\n## Notes\n\n")
		for i := 0; i < 5; i++ {
			fmt.Fprintln(bw, "---")
		}
	}
	return bw.Flush()
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`")

func escape(s string) string { return mdEscaper.Replace(s) }
