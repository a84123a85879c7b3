package timeline

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sahilchouksey/campus-timeline/model"
)

// IDSet is a set of opaque store ids.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add ignores empty ids so a missing foreign key can never match.
func (s IDSet) Add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

func (s IDSet) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// StudentView is the result of joining a student's enrollments against the
// catalog and schedule collections.
type StudentView struct {
	EnrolledCourseIDs  IDSet            `json:"enrolled_course_ids"`
	EnrolledModuleIDs  IDSet            `json:"enrolled_module_ids"`
	EffectiveSchedules []model.Schedule `json:"effective_schedules"`
}

// ResolveStudentView joins enrollments, courses, modules and schedules for
// one student:
//
//  1. the student's enrollments give the enrolled course ids (duplicates collapse)
//  2. every module whose course is enrolled and known joins the module set
//  3. a schedule is effective if its course or its module is enrolled
//
// Modules pointing at an unknown or empty course are orphans and never join.
func ResolveStudentView(studentID string, enrollments []model.Enrollment, courses []model.Course, modules []model.Module, schedules []model.Schedule) StudentView {
	view := StudentView{
		EnrolledCourseIDs:  EnrolledCourseIDs(studentID, enrollments),
		EnrolledModuleIDs:  NewIDSet(),
		EffectiveSchedules: []model.Schedule{},
	}
	if len(view.EnrolledCourseIDs) == 0 {
		return view
	}

	known := NewIDSet()
	for _, c := range courses {
		known.Add(c.ID)
	}

	// One independent lookup per enrolled course, joined before use.
	courseIDs := view.EnrolledCourseIDs.Sorted()
	perCourse, _ := gather(context.Background(), 0, len(courseIDs), func(_ context.Context, i int) ([]string, error) {
		return moduleIDsForCourse(courseIDs[i], known, modules), nil
	})
	for _, ids := range perCourse {
		for _, id := range ids {
			view.EnrolledModuleIDs.Add(id)
		}
	}

	view.EffectiveSchedules = EffectiveSchedules(schedules, view.EnrolledCourseIDs, view.EnrolledModuleIDs)
	return view
}

// EnrolledCourseIDs returns the distinct course ids the student is enrolled in.
func EnrolledCourseIDs(studentID string, enrollments []model.Enrollment) IDSet {
	ids := NewIDSet()
	if studentID == "" {
		return ids
	}
	for _, e := range enrollments {
		if e.StudentID == studentID {
			ids.Add(e.CourseID)
		}
	}
	return ids
}

func moduleIDsForCourse(courseID string, known IDSet, modules []model.Module) []string {
	if !known.Has(courseID) {
		return nil
	}
	var ids []string
	for _, m := range modules {
		if m.CourseID == courseID {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// EffectiveSchedules keeps the schedules linked to an enrolled course or
// module, preserving input order.
func EffectiveSchedules(schedules []model.Schedule, courseIDs, moduleIDs IDSet) []model.Schedule {
	out := []model.Schedule{}
	for _, s := range schedules {
		if courseIDs.Has(s.CourseID) || moduleIDs.Has(s.ModuleID) {
			out = append(out, s)
		}
	}
	return out
}
