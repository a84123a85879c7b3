package model

import "github.com/sahilchouksey/campus-timeline/utils/datenorm"

// PlaceholderIDPrefix marks schedule entries that were synthesized for
// display and never stored.
const PlaceholderIDPrefix = "placeholder-"

// Schedule is a single class meeting. It references either a module or a
// course directly, or both.
type Schedule struct {
	ID              string `json:"id"`
	ModuleTitle     string `json:"module_title"` // denormalized copy, display only
	FloorNumber     string `json:"floor_number"`
	ClassroomNumber string `json:"classroom_number"`
	LecturerName    string `json:"lecturer_name"`
	Branch          string `json:"branch"`
	StartTime       string `json:"start_time"` // "HH:MM", 24-hour, zero-padded
	EndTime         string `json:"end_time"`
	DayOfWeek       string `json:"day_of_week"`
	IsRecurring     bool   `json:"is_recurring"`
	ModuleID        string `json:"module_id,omitempty"`
	CourseID        string `json:"course_id,omitempty"`

	// Date holds the value exactly as stored; CanonicalDate is its
	// normalized form, empty when the stored value could not be read.
	Date          interface{} `json:"-"`
	CanonicalDate string      `json:"date"`

	DisplayTitle string `json:"display_title,omitempty"`
	Placeholder  bool   `json:"placeholder,omitempty"`
}

// AdaptSchedule maps a raw schedule document onto Schedule.
func AdaptSchedule(r Record, id string) Schedule {
	s := Schedule{
		ID:              id,
		ModuleTitle:     stringField(r, "moduleTitle", "moduleName", "title"),
		FloorNumber:     stringField(r, "floorNumber", "floor"),
		ClassroomNumber: stringField(r, "classroomNumber", "classroom", "room"),
		LecturerName:    stringField(r, "lecturerName", "lecturer"),
		Branch:          stringField(r, "branch"),
		StartTime:       clockField(r, "startTime", "start_time"),
		EndTime:         clockField(r, "endTime", "end_time"),
		DayOfWeek:       stringField(r, "dayOfWeek", "day"),
		IsRecurring:     boolField(r, "isRecurring", "recurring"),
		ModuleID:        stringField(r, "moduleId", "module_id"),
		CourseID:        stringField(r, "courseId", "course_id"),
	}
	if v, ok := field(r, "date", "scheduleDate"); ok {
		s.Date = v
		s.CanonicalDate, _ = datenorm.Date(v)
	}
	return s
}

// clockField reads an "HH:MM" value, zero-padding a single-digit hour so
// that lexicographic comparison stays chronological. Anything else is kept
// as-is.
func clockField(r Record, keys ...string) string {
	s := stringField(r, keys...)
	if len(s) == 4 && s[1] == ':' && isDigit(s[0]) && isDigit(s[2]) && isDigit(s[3]) {
		return "0" + s
	}
	return s
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
