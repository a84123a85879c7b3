package timeline

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/campus-timeline/model"
	"github.com/sahilchouksey/campus-timeline/utils/datenorm"
)

// ProjectToday keeps the schedules whose date falls on now's calendar day.
// Schedules with an unreadable date never match.
func ProjectToday(schedules []model.Schedule, now time.Time) []model.Schedule {
	today := datenorm.Today(now)
	out := []model.Schedule{}
	for _, s := range schedules {
		if d, ok := datenorm.Date(s.Date); ok && d == today {
			out = append(out, s)
		}
	}
	return out
}

// SortChronological returns a copy ordered by (date, start time). Start
// times are zero-padded "HH:MM" so string order is time order. Schedules
// with an unreadable date go last, keeping their relative order.
func SortChronological(schedules []model.Schedule) []model.Schedule {
	type keyed struct {
		s     model.Schedule
		date  string
		valid bool
	}
	items := make([]keyed, len(schedules))
	for i, s := range schedules {
		d, ok := datenorm.Date(s.Date)
		items[i] = keyed{s: s, date: d, valid: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.valid != b.valid {
			return a.valid
		}
		if !a.valid {
			return false
		}
		if a.date != b.date {
			return a.date < b.date
		}
		return a.s.StartTime < b.s.StartTime
	})

	out := make([]model.Schedule, len(items))
	for i, it := range items {
		out[i] = it.s
	}
	return out
}

// Placeholder builds a display-only entry for course on now's day. It is
// never stored and its id cannot collide with a store-assigned one.
func Placeholder(course model.Course, now time.Time) model.Schedule {
	today := datenorm.Today(now)
	title := course.Title
	if title == "" {
		title = course.Code
	}
	return model.Schedule{
		ID:            model.PlaceholderIDPrefix + uuid.NewString(),
		ModuleTitle:   title,
		DisplayTitle:  title,
		LecturerName:  "TBA",
		StartTime:     "09:00",
		EndTime:       "10:00",
		DayOfWeek:     now.Weekday().String(),
		CourseID:      course.ID,
		Date:          today,
		CanonicalDate: today,
		Placeholder:   true,
	}
}
