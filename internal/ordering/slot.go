package ordering

import "github.com/zulandar/studyflow/internal/models"

// Slot is the semantic role of a column, fixed by its position on the board.
type Slot int

const (
	SlotIntake Slot = iota
	SlotInProgress
	SlotDone
	SlotRepeat
)

var slotNames = [...]string{"intake", "in-progress", "done", "repeat"}

// String returns the slot name.
func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return "none"
	}
	return slotNames[s]
}

// Position returns the column position that carries the slot.
func (s Slot) Position() int { return int(s) }

// SlotOf returns the slot of a column. Columns past the repeat slot have none.
func SlotOf(c models.Column) (Slot, bool) {
	if c.Position < 0 || c.Position > int(SlotRepeat) {
		return 0, false
	}
	return Slot(c.Position), true
}

// IsDone reports whether c is the terminal column.
func IsDone(c models.Column) bool {
	s, ok := SlotOf(c)
	return ok && s == SlotDone
}
