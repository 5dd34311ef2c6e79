package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertJSONTag checks the wire name of a field. Realtime records use the
// same snake_case keys as the table columns.
func assertJSONTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	if name != expected {
		t.Errorf("%s.%s json name = %q, want %q", typ.Name(), fieldName, name, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestTask_Fields(t *testing.T) {
	typ := reflect.TypeOf(Task{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ColumnID", "not null")
	assertGormTag(t, typ, "ColumnID", "idx_task_column_position")
	assertGormTag(t, typ, "Position", "idx_task_column_position")
	assertGormTag(t, typ, "Priority", "default:medium")
	assertGormTag(t, typ, "IsRepeat", "default:false")
	assertGormTag(t, typ, "Description", "type:text")

	assertFieldType(t, typ, "SubjectID", "*string")
	assertFieldType(t, typ, "Deadline", "*time.Time")
	assertFieldType(t, typ, "CompletedAt", "*time.Time")
	assertFieldType(t, typ, "Priority", "models.Priority")

	assertJSONTag(t, typ, "ColumnID", "column_id")
	assertJSONTag(t, typ, "SubjectID", "subject_id")
	assertJSONTag(t, typ, "IsRepeat", "is_repeat")
	assertJSONTag(t, typ, "CompletedAt", "completed_at")
}

func TestColumn_Fields(t *testing.T) {
	typ := reflect.TypeOf(Column{})

	assertGormTag(t, typ, "BoardID", "uniqueIndex:idx_column_board_position")
	assertGormTag(t, typ, "Position", "uniqueIndex:idx_column_board_position")
	assertJSONTag(t, typ, "BoardID", "board_id")
	assertFieldType(t, typ, "Position", "int")
}

func TestSubject_Fields(t *testing.T) {
	typ := reflect.TypeOf(Subject{})

	assertGormTag(t, typ, "BoardID", "uniqueIndex:idx_subject_board_name")
	assertGormTag(t, typ, "Name", "uniqueIndex:idx_subject_board_name")
	assertFieldType(t, typ, "Color", "*string")
	assertFieldType(t, typ, "UserID", "*string")
}

func TestBoardMember_Fields(t *testing.T) {
	typ := reflect.TypeOf(BoardMember{})

	assertGormTag(t, typ, "BoardID", "primaryKey")
	assertGormTag(t, typ, "UserID", "primaryKey")
	assertGormTag(t, typ, "Role", "default:viewer")
	assertFieldType(t, typ, "Role", "models.Role")
}

func TestInvite_Fields(t *testing.T) {
	typ := reflect.TypeOf(Invite{})

	assertGormTag(t, typ, "Code", "uniqueIndex")
	assertGormTag(t, typ, "MaxUses", "default:10")
	assertGormTag(t, typ, "UseCount", "default:0")
}

func TestUserSettings_Fields(t *testing.T) {
	typ := reflect.TypeOf(UserSettings{})

	assertGormTag(t, typ, "UserID", "primaryKey")
	assertGormTag(t, typ, "HoursBeforeDeadline", "default:24")
}

func TestReminderLog_Fields(t *testing.T) {
	typ := reflect.TypeOf(ReminderLog{})

	assertGormTag(t, typ, "TaskID", "primaryKey")
	assertGormTag(t, typ, "UserID", "primaryKey")
	assertGormTag(t, typ, "Deadline", "primaryKey")
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"low", PriorityLow},
		{"medium", PriorityMedium},
		{"high", PriorityHigh},
		{"", PriorityMedium},
		{"urgent", PriorityMedium},
		{"HIGH", PriorityMedium},
	}
	for _, tt := range tests {
		if got := ParsePriority(tt.in); got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPriority_Rank(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Errorf("ranks = high %d, medium %d, low %d; want high < medium < low",
			PriorityHigh.Rank(), PriorityMedium.Rank(), PriorityLow.Rank())
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleEditor, RoleViewer} {
		if !r.Valid() {
			t.Errorf("%q.Valid() = false", r)
		}
	}
	if Role("admin").Valid() {
		t.Error(`"admin".Valid() = true`)
	}
}

func TestIsHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#fff", true},
		{"#ffff", true},
		{"#3b82f6", true},
		{"#3B82F6AA", true},
		{"3b82f6", false},
		{"#ff", false},
		{"#fffff", false},
		{"#ggg", false},
		{"red", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHexColor(tt.in); got != tt.want {
			t.Errorf("IsHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPaletteColor_Cycles(t *testing.T) {
	if PaletteColor(0) != "#3b82f6" {
		t.Errorf("PaletteColor(0) = %q", PaletteColor(0))
	}
	if PaletteColor(len(SubjectColors)) != PaletteColor(0) {
		t.Error("palette should wrap around")
	}
	if PaletteColor(13) != "#ef4444" {
		t.Errorf("PaletteColor(13) = %q, want #ef4444", PaletteColor(13))
	}
}
