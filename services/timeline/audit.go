package timeline

import (
	"sort"

	"github.com/sahilchouksey/campus-timeline/model"
)

// ReferenceReport lists broken links between courses and modules. None of
// these are errors; they explain why a module is missing from a student's
// view.
type ReferenceReport struct {
	OrphanModules         []string            `json:"orphan_modules"`
	UnlinkedModules       []string            `json:"unlinked_modules"`
	StaleCourseModuleRefs map[string][]string `json:"stale_course_module_refs"`
}

// Clean reports whether no broken reference was found.
func (r ReferenceReport) Clean() bool {
	return len(r.OrphanModules) == 0 && len(r.UnlinkedModules) == 0 && len(r.StaleCourseModuleRefs) == 0
}

// AuditReferences checks module.courseId against the course set and each
// course's module list against the module set.
func AuditReferences(courses []model.Course, modules []model.Module) ReferenceReport {
	report := ReferenceReport{
		OrphanModules:         []string{},
		UnlinkedModules:       []string{},
		StaleCourseModuleRefs: map[string][]string{},
	}

	courseIDs := NewIDSet()
	for _, c := range courses {
		courseIDs.Add(c.ID)
	}
	moduleCourse := make(map[string]string, len(modules))
	for _, m := range modules {
		moduleCourse[m.ID] = m.CourseID
		switch {
		case m.CourseID == "":
			report.UnlinkedModules = append(report.UnlinkedModules, m.ID)
		case !courseIDs.Has(m.CourseID):
			report.OrphanModules = append(report.OrphanModules, m.ID)
		}
	}

	for _, c := range courses {
		for _, ref := range c.Modules {
			owner, known := moduleCourse[ref]
			if !known || owner != c.ID {
				report.StaleCourseModuleRefs[c.ID] = append(report.StaleCourseModuleRefs[c.ID], ref)
			}
		}
	}

	sort.Strings(report.OrphanModules)
	sort.Strings(report.UnlinkedModules)
	return report
}
