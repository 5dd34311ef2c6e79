package tui

import (
	"github.com/zulandar/studyflow/internal/board"
	"github.com/zulandar/studyflow/internal/gesture"
)

// Board geometry in terminal cells. A column is a bordered box; inside it
// the title takes one line and every card takes cardHeight lines, the last
// of which is a blank spacer.
const (
	columnWidth = 30
	columnGap   = 1
	cardHeight  = 3
	headerLines = 2
)

type cardBox struct {
	id       string
	columnID string
	index    int
	rect     gesture.Rect
}

type columnBox struct {
	id   string
	rect gesture.Rect
}

// boardLayout is where every column and card sits on screen.
type boardLayout struct {
	columns []columnBox
	cards   []cardBox
}

// rows is the number of card slots every column is padded to.
func rows(s board.State) int {
	n := 1
	for _, c := range s.Columns {
		n = max(n, len(s.TasksIn(c.ID)))
	}
	return n
}

func layoutBoard(s board.State) boardLayout {
	var l boardLayout
	height := float64(2 + 1 + rows(s)*cardHeight)
	for i, col := range s.Columns {
		x := float64(i * (columnWidth + columnGap))
		l.columns = append(l.columns, columnBox{
			id:   col.ID,
			rect: gesture.Rect{X: x, Y: headerLines, W: columnWidth, H: height},
		})
		for k, t := range s.TasksIn(col.ID) {
			l.cards = append(l.cards, cardBox{
				id:       t.ID,
				columnID: col.ID,
				index:    k,
				rect: gesture.Rect{
					X: x + 1,
					Y: float64(headerLines + 2 + k*cardHeight),
					W: columnWidth - 2,
					H: cardHeight - 1,
				},
			})
		}
	}
	return l
}

// cardAt returns the card under p.
func (l boardLayout) cardAt(p gesture.Point) (cardBox, bool) {
	for _, c := range l.cards {
		if c.rect.Contains(p) {
			return c, true
		}
	}
	return cardBox{}, false
}

func (l boardLayout) card(id string) (cardBox, bool) {
	for _, c := range l.cards {
		if c.id == id {
			return c, true
		}
	}
	return cardBox{}, false
}

// droppables lists every card except the dragged one, then every column.
func (l boardLayout) droppables(activeID string) []gesture.Droppable {
	out := make([]gesture.Droppable, 0, len(l.cards)+len(l.columns))
	for _, c := range l.cards {
		if c.id != activeID {
			out = append(out, gesture.Droppable{ID: c.id, Rect: c.rect})
		}
	}
	for _, c := range l.columns {
		out = append(out, gesture.Droppable{ID: c.id, Rect: c.rect})
	}
	return out
}
