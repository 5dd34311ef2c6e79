package gesture

import "sort"

// Rect is an axis-aligned box.
type Rect struct{ X, Y, W, H float64 }

// Corners returns the four corners, top-left first, clockwise.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X + r.W, r.Y + r.H},
		{r.X, r.Y + r.H},
	}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Droppable is a drop target: a card or a column area.
type Droppable struct {
	ID   string
	Rect Rect
}

// Collision is a droppable and its score; lower is closer.
type Collision struct {
	ID       string
	Distance float64
}

// ClosestCorners ranks droppables by the mean distance between their
// corners and the matching corners of the dragged rect.
func ClosestCorners(active Rect, droppables []Droppable) []Collision {
	ac := active.Corners()
	out := make([]Collision, 0, len(droppables))
	for _, d := range droppables {
		dc := d.Rect.Corners()
		var sum float64
		for i := range ac {
			sum += ac[i].Dist(dc[i])
		}
		out = append(out, Collision{ID: d.ID, Distance: sum / 4})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// Over returns the ID of the closest droppable, or "" when there is none.
func Over(active Rect, droppables []Droppable) string {
	if c := ClosestCorners(active, droppables); len(c) > 0 {
		return c[0].ID
	}
	return ""
}
