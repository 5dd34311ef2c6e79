package gesture

import (
	"testing"
	"time"

	"github.com/zulandar/studyflow/internal/models"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestSensorsFor(t *testing.T) {
	if got := SensorsFor(models.RoleViewer); len(got) != 0 {
		t.Errorf("viewer sensors = %v, want none", got)
	}
	for _, role := range []models.Role{models.RoleOwner, models.RoleEditor} {
		got := SensorsFor(role)
		if len(got) != 2 {
			t.Fatalf("%s sensors = %d, want 2", role, len(got))
		}
		if ds, ok := got[0].(DistanceSensor); !ok || ds.Distance != 8 {
			t.Errorf("%s pointer sensor = %+v", role, got[0])
		}
		if ts, ok := got[1].(DelaySensor); !ok || ts.Delay != 200*time.Millisecond || ts.Tolerance != 5 {
			t.Errorf("%s touch sensor = %+v", role, got[1])
		}
	}
}

func TestDistanceSensor(t *testing.T) {
	s := DistanceSensor{Distance: 8}
	tests := []struct {
		to   Point
		want Decision
	}{
		{Point{3, 4}, Pending},
		{Point{0, 7.9}, Pending},
		{Point{0, 8}, Activate},
		{Point{6, 8}, Activate},
	}
	for _, tt := range tests {
		if got := s.Check(Point{}, tt.to, 0); got != tt.want {
			t.Errorf("Check(%v) = %v, want %v", tt.to, got, tt.want)
		}
	}
}

func TestDelaySensor(t *testing.T) {
	s := DelaySensor{Delay: 200 * time.Millisecond, Tolerance: 5}
	tests := []struct {
		name string
		to   Point
		held time.Duration
		want Decision
	}{
		{"too early", Point{1, 1}, 100 * time.Millisecond, Pending},
		{"held long enough", Point{3, 4}, 200 * time.Millisecond, Activate},
		{"moved too far", Point{6, 0}, 50 * time.Millisecond, Abort},
		{"moved too far after delay", Point{6, 0}, time.Second, Abort},
	}
	for _, tt := range tests {
		if got := s.Check(Point{}, tt.to, tt.held); got != tt.want {
			t.Errorf("%s: Check = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTracker_PointerDrag(t *testing.T) {
	tr := NewTracker(SensorsFor(models.RoleEditor))
	if !tr.Press(InputPointer, "task-1", Point{10, 10}, t0) {
		t.Fatal("Press rejected")
	}
	if tr.Move(Point{12, 12}, t0) {
		t.Error("activated below distance")
	}
	if !tr.Move(Point{20, 10}, t0) {
		t.Fatal("did not activate at distance 10")
	}
	if tr.Move(Point{30, 10}, t0) {
		t.Error("activation reported twice")
	}
	if tr.Phase() != Dragging || tr.Item() != "task-1" {
		t.Errorf("phase = %v, item = %q", tr.Phase(), tr.Item())
	}
	if off := tr.Offset(); off != (Point{20, 0}) {
		t.Errorf("Offset = %v", off)
	}
	if !tr.Release(Point{30, 10}) {
		t.Error("Release should report an active drag")
	}
	if tr.Phase() != Idle {
		t.Error("not idle after release")
	}
}

func TestTracker_TouchAbortsOnScroll(t *testing.T) {
	tr := NewTracker(SensorsFor(models.RoleOwner))
	tr.Press(InputTouch, "task-1", Point{}, t0)
	if tr.Move(Point{0, 20}, t0.Add(50*time.Millisecond)) {
		t.Error("scroll activated a drag")
	}
	if tr.Phase() != Idle {
		t.Errorf("phase = %v, want Idle", tr.Phase())
	}
}

func TestTracker_TouchActivatesAfterDelay(t *testing.T) {
	tr := NewTracker(SensorsFor(models.RoleOwner))
	tr.Press(InputTouch, "task-1", Point{}, t0)
	if tr.Move(Point{1, 1}, t0.Add(150*time.Millisecond)) {
		t.Error("activated before delay")
	}
	if !tr.Move(Point{2, 2}, t0.Add(250*time.Millisecond)) {
		t.Error("did not activate after delay")
	}
}

func TestTracker_ViewerNeverDrags(t *testing.T) {
	tr := NewTracker(SensorsFor(models.RoleViewer))
	if tr.Press(InputPointer, "task-1", Point{}, t0) {
		t.Error("viewer press accepted")
	}
	if tr.Move(Point{100, 100}, t0) || tr.Release(Point{100, 100}) {
		t.Error("viewer started a drag")
	}
}

func TestClosestCorners(t *testing.T) {
	drops := []Droppable{
		{ID: "far", Rect: Rect{X: 100, Y: 100, W: 20, H: 10}},
		{ID: "near", Rect: Rect{X: 2, Y: 1, W: 20, H: 10}},
		{ID: "column", Rect: Rect{X: 0, Y: 0, W: 30, H: 100}},
	}
	got := ClosestCorners(Rect{X: 0, Y: 0, W: 20, H: 10}, drops)
	if len(got) != 3 || got[0].ID != "near" || got[2].ID != "far" {
		t.Errorf("ClosestCorners = %+v", got)
	}
	if Over(Rect{W: 20, H: 10}, nil) != "" {
		t.Error("Over with no droppables should be empty")
	}
}

func TestRect(t *testing.T) {
	r := Rect{X: 1, Y: 2, W: 3, H: 4}
	if !r.Contains(Point{1, 2}) || r.Contains(Point{4, 2}) {
		t.Error("Contains edges wrong")
	}
	if got := r.Translate(Point{1, -1}); got != (Rect{2, 1, 3, 4}) {
		t.Errorf("Translate = %+v", got)
	}
}
