package gesture

import "time"

// Phase is the state of a Tracker.
type Phase int

const (
	Idle Phase = iota
	Pressed
	Dragging
)

// Tracker follows one press from pointer-down to release and reports when
// it becomes a drag.
type Tracker struct {
	sensors []Sensor

	phase   Phase
	sensor  Sensor
	itemID  string
	start   Point
	pressAt time.Time
	last    Point
}

// NewTracker returns a tracker using sensors. A tracker without sensors
// never starts a drag.
func NewTracker(sensors []Sensor) *Tracker {
	return &Tracker{sensors: sensors}
}

// Phase returns the current phase.
func (t *Tracker) Phase() Phase { return t.phase }

// Item returns the ID of the pressed item.
func (t *Tracker) Item() string { return t.itemID }

// Position returns the last reported pointer position.
func (t *Tracker) Position() Point { return t.last }

// Offset returns how far the pointer has moved since the press.
func (t *Tracker) Offset() Point {
	return Point{X: t.last.X - t.start.X, Y: t.last.Y - t.start.Y}
}

// Press starts tracking a press on itemID. It reports false when no sensor
// handles the input.
func (t *Tracker) Press(in Input, itemID string, at Point, now time.Time) bool {
	t.Reset()
	for _, s := range t.sensors {
		if s.Input() == in {
			t.phase = Pressed
			t.sensor = s
			t.itemID = itemID
			t.start, t.last = at, at
			t.pressAt = now
			return true
		}
	}
	return false
}

// Move reports the pointer at a new position. It returns true exactly once,
// on the move that activates the drag.
func (t *Tracker) Move(at Point, now time.Time) bool {
	t.last = at
	if t.phase != Pressed {
		return false
	}
	switch t.sensor.Check(t.start, at, now.Sub(t.pressAt)) {
	case Activate:
		t.phase = Dragging
		return true
	case Abort:
		t.Reset()
	}
	return false
}

// Release ends the press. It reports whether a drag was in progress.
func (t *Tracker) Release(at Point) bool {
	t.last = at
	dragging := t.phase == Dragging
	t.phase = Idle
	return dragging
}

// Reset abandons the current press.
func (t *Tracker) Reset() {
	t.phase = Idle
	t.sensor = nil
	t.itemID = ""
}
