// Package gesture turns raw pointer input into drag gestures: activation
// sensors decide when a press becomes a drag, and collision detection picks
// the drop target under the dragged card.
package gesture

import (
	"math"
	"time"

	"github.com/zulandar/studyflow/internal/access"
	"github.com/zulandar/studyflow/internal/models"
)

// Activation thresholds for board drags.
const (
	PointerDistance = 8
	TouchDelay      = 200 * time.Millisecond
	TouchTolerance  = 5
)

// Input is the device a press came from.
type Input int

const (
	InputPointer Input = iota
	InputTouch
)

// Point is a position in board coordinates.
type Point struct{ X, Y float64 }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Decision is a sensor's verdict on a pending press.
type Decision int

const (
	Pending Decision = iota
	Activate
	Abort
)

// Sensor decides whether a press turns into a drag.
type Sensor interface {
	Input() Input
	Check(start, now Point, held time.Duration) Decision
}

// DistanceSensor activates once the pointer has moved Distance away from
// where it was pressed.
type DistanceSensor struct{ Distance float64 }

func (DistanceSensor) Input() Input { return InputPointer }

func (s DistanceSensor) Check(start, now Point, _ time.Duration) Decision {
	if start.Dist(now) >= s.Distance {
		return Activate
	}
	return Pending
}

// DelaySensor activates after the press has been held for Delay without
// moving more than Tolerance. Moving further first aborts, which lets the
// gesture scroll instead.
type DelaySensor struct {
	Delay     time.Duration
	Tolerance float64
}

func (DelaySensor) Input() Input { return InputTouch }

func (s DelaySensor) Check(start, now Point, held time.Duration) Decision {
	if start.Dist(now) > s.Tolerance {
		return Abort
	}
	if held >= s.Delay {
		return Activate
	}
	return Pending
}

// SensorsFor returns the drag sensors for a role. Read-only roles get none,
// so their cards cannot be picked up.
func SensorsFor(role models.Role) []Sensor {
	if !access.CanEdit(role) {
		return nil
	}
	return []Sensor{
		DistanceSensor{Distance: PointerDistance},
		DelaySensor{Delay: TouchDelay, Tolerance: TouchTolerance},
	}
}
