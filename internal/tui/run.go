package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/ordering"
	"github.com/zulandar/studyflow/internal/reconcile"
	"github.com/zulandar/studyflow/internal/store"
)

// Options configures a terminal board session.
type Options struct {
	Store   *store.Store
	UserID  string
	Email   string
	BoardID string // empty opens the user's first board
	Logger  log.FieldLogger
}

// Run opens a board and runs the terminal UI until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return errors.New("tui: store is required")
	}
	if opts.UserID == "" {
		return errors.New("tui: user is required")
	}
	logger := logging.OrDiscard(opts.Logger)

	state, err := opts.Store.LoadBoard(ctx, opts.UserID, opts.BoardID, opts.Email)
	if err != nil {
		return fmt.Errorf("tui: load board: %w", err)
	}
	c := board.NewContainer(state)
	eng := ordering.New(c, opts.Store, logger, ordering.WithClock(opts.Store.Now))

	rec, err := reconcile.Start(ctx, c, opts.Store, logger)
	if err != nil {
		return fmt.Errorf("tui: watch board: %w", err)
	}
	defer rec.Close()

	m := New(ctx, eng, opts.Store, logger)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
