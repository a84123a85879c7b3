package timeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/model"
	"github.com/sahilchouksey/campus-timeline/utils/datenorm"
	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

// Notice is a user-facing report of a read that failed. The view it
// belongs to has already been degraded to whatever could still be loaded.
type Notice struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

type Options struct {
	// FanOutLimit caps concurrent store reads within one resolution pass.
	FanOutLimit int
	// DemoMode allows placeholder classes for every request.
	DemoMode bool
	// Location decides which calendar day "now" falls on.
	Location *time.Location
}

// Service runs the reconciliation engine against a document store. Every
// method is fail-open: read errors become Notices and never escape.
type Service struct {
	store database.DocumentStore
	log   *logger.Logger
	opts  Options
}

func NewService(store database.DocumentStore, log *logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.FanOutLimit < 1 {
		opts.FanOutLimit = 8
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{store: store, log: log, opts: opts}
}

// Location is the zone used to decide "today".
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

// ViewResult is a resolved student view plus the catalog entities loaded
// while resolving it.
type ViewResult struct {
	StudentID string                  `json:"student_id"`
	View      StudentView             `json:"view"`
	Courses   map[string]model.Course `json:"-"`
	Modules   map[string]model.Module `json:"-"`
	Notices   []Notice                `json:"notices,omitempty"`
}

// ResolveView reads enrollments, then the enrolled courses and their
// modules in parallel, then the schedules, and joins them.
func (s *Service) ResolveView(ctx context.Context, studentID string) ViewResult {
	res := ViewResult{
		StudentID: studentID,
		View: StudentView{
			EnrolledCourseIDs:  NewIDSet(),
			EnrolledModuleIDs:  NewIDSet(),
			EffectiveSchedules: []model.Schedule{},
		},
		Courses: map[string]model.Course{},
		Modules: map[string]model.Module{},
	}

	enrollDocs, err := s.filterAny(ctx, database.CollectionEnrollments, model.EnrollmentStudentKeys, studentID)
	if err != nil {
		res.Notices = append(res.Notices, s.fetchFailed(database.CollectionEnrollments, "filter", err, "Could not load your enrollments"))
		return res
	}
	enrollments := adaptAll(enrollDocs, model.AdaptEnrollment)
	courseIDs := EnrolledCourseIDs(studentID, enrollments).Sorted()
	if len(courseIDs) == 0 {
		return res
	}

	courses, modules, notices := s.loadCatalog(ctx, courseIDs)
	res.Notices = append(res.Notices, notices...)

	var schedules []model.Schedule
	scheduleDocs, err := s.store.Scan(ctx, database.CollectionSchedules)
	if err != nil {
		res.Notices = append(res.Notices, s.fetchFailed(database.CollectionSchedules, "scan", err, "Could not load the class schedule"))
	} else {
		schedules = adaptAll(scheduleDocs, model.AdaptSchedule)
	}

	res.View = ResolveStudentView(studentID, enrollments, courses, modules, schedules)
	for _, c := range courses {
		res.Courses[c.ID] = c
	}
	for _, m := range modules {
		if res.View.EnrolledModuleIDs.Has(m.ID) {
			res.Modules[m.ID] = m
		}
	}
	applyDisplayTitles(res.View.EffectiveSchedules, res.Modules, res.Courses)
	return res
}

// lookup is the outcome of one independent read in a fan-out.
type lookup struct {
	source  string
	courses []model.Course
	modules []model.Module
	err     error
}

// loadCatalog fetches the enrolled courses and each course's modules
// concurrently and waits for all of them. A failed read loses only its own
// slice of the catalog.
func (s *Service) loadCatalog(ctx context.Context, courseIDs []string) ([]model.Course, []model.Module, []Notice) {
	var tasks []func(context.Context) lookup

	if bg, ok := s.store.(database.BatchGetter); ok {
		tasks = append(tasks, func(ctx context.Context) lookup {
			docs, err := bg.GetMany(ctx, database.CollectionCourses, courseIDs)
			return lookup{source: database.CollectionCourses, courses: adaptAll(docs, model.AdaptCourse), err: err}
		})
	} else {
		for _, id := range courseIDs {
			id := id
			tasks = append(tasks, func(ctx context.Context) lookup {
				doc, err := s.store.Get(ctx, database.CollectionCourses, id)
				if errors.Is(err, database.ErrNotFound) {
					// Enrollment in a course that no longer exists.
					return lookup{source: database.CollectionCourses}
				}
				if err != nil {
					return lookup{source: database.CollectionCourses, err: err}
				}
				return lookup{source: database.CollectionCourses, courses: []model.Course{model.AdaptCourse(doc.Data, doc.ID)}}
			})
		}
	}
	for _, id := range courseIDs {
		id := id
		tasks = append(tasks, func(ctx context.Context) lookup {
			docs, err := s.filterAny(ctx, database.CollectionModules, model.ModuleCourseKeys, id)
			return lookup{source: database.CollectionModules, modules: adaptAll(docs, model.AdaptModule), err: err}
		})
	}

	results, err := gather(ctx, s.opts.FanOutLimit, len(tasks), func(ctx context.Context, i int) (lookup, error) {
		return tasks[i](ctx), nil
	})
	if err != nil {
		return nil, nil, []Notice{s.fetchFailed(database.CollectionCourses, "fan-out", err, "Could not load your courses")}
	}

	var (
		courses  []model.Course
		modules  []model.Module
		failed   = map[string]int{}
		firstErr = map[string]error{}
	)
	for _, r := range results {
		if r.err != nil {
			failed[r.source]++
			if firstErr[r.source] == nil {
				firstErr[r.source] = r.err
			}
			continue
		}
		courses = append(courses, r.courses...)
		modules = append(modules, r.modules...)
	}

	var notices []Notice
	for _, source := range []string{database.CollectionCourses, database.CollectionModules} {
		if n := failed[source]; n > 0 {
			msg := fmt.Sprintf("Could not load %d %s lookup(s); some items may be missing", n, source)
			notices = append(notices, s.fetchFailed(source, "lookup", firstErr[source], msg))
		}
	}
	return courses, modules, notices
}

// TodayResult is the "today's classes" view.
type TodayResult struct {
	Date        string           `json:"date"`
	Classes     []model.Schedule `json:"classes"`
	Placeholder bool             `json:"placeholder"`
	Notices     []Notice         `json:"notices,omitempty"`
}

// TodaysClasses returns the student's classes on now's day in the service
// location, in start-time order. With demo set (or DemoMode configured) an
// empty day for an enrolled student gets one placeholder class.
func (s *Service) TodaysClasses(ctx context.Context, studentID string, now time.Time, demo bool) TodayResult {
	now = now.In(s.opts.Location)
	res := s.ResolveView(ctx, studentID)

	out := TodayResult{
		Date:    datenorm.Today(now),
		Classes: SortChronological(ProjectToday(res.View.EffectiveSchedules, now)),
		Notices: res.Notices,
	}

	wantPlaceholder := demo || s.opts.DemoMode
	if len(out.Classes) == 0 && wantPlaceholder && len(res.Notices) == 0 && len(res.View.EnrolledCourseIDs) > 0 {
		firstID := res.View.EnrolledCourseIDs.Sorted()[0]
		course, ok := res.Courses[firstID]
		if !ok {
			course = model.Course{ID: firstID}
		}
		out.Classes = []model.Schedule{Placeholder(course, now)}
		out.Placeholder = true
	}
	return out
}

// ScheduleResult is the full "my schedule" view.
type ScheduleResult struct {
	Schedules []model.Schedule `json:"schedules"`
	Notices   []Notice         `json:"notices,omitempty"`
}

func (s *Service) MySchedule(ctx context.Context, studentID string) ScheduleResult {
	res := s.ResolveView(ctx, studentID)
	return ScheduleResult{
		Schedules: SortChronological(res.View.EffectiveSchedules),
		Notices:   res.Notices,
	}
}

// CoursesResult lists the courses a student is enrolled in.
type CoursesResult struct {
	Courses []model.Course `json:"courses"`
	Notices []Notice       `json:"notices,omitempty"`
}

// MyCourses returns the enrolled courses that still exist, ordered by code
// then title.
func (s *Service) MyCourses(ctx context.Context, studentID string) CoursesResult {
	res := s.ResolveView(ctx, studentID)
	courses := make([]model.Course, 0, len(res.Courses))
	for _, id := range res.View.EnrolledCourseIDs.Sorted() {
		if c, ok := res.Courses[id]; ok {
			courses = append(courses, c)
		}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].Code != courses[j].Code {
			return courses[i].Code < courses[j].Code
		}
		return courses[i].Title < courses[j].Title
	})
	return CoursesResult{Courses: courses, Notices: res.Notices}
}

// ModulesForCourse lists a course's modules. When the course has none the
// whole module catalog is returned with UsedFallback set.
func (s *Service) ModulesForCourse(ctx context.Context, courseID string) ModuleListing {
	docs, err := s.filterAny(ctx, database.CollectionModules, model.ModuleCourseKeys, courseID)
	if err != nil {
		return ModuleListing{
			CourseID: courseID,
			Modules:  []model.Module{},
			Notices:  []Notice{s.fetchFailed(database.CollectionModules, "filter", err, "Could not load modules for this course")},
		}
	}
	modules := adaptAll(docs, model.AdaptModule)
	if len(modules) > 0 {
		return ModulesForCourse(courseID, modules)
	}

	allDocs, err := s.store.Scan(ctx, database.CollectionModules)
	if err != nil {
		return ModuleListing{
			CourseID: courseID,
			Modules:  []model.Module{},
			Notices:  []Notice{s.fetchFailed(database.CollectionModules, "scan", err, "Could not load modules")},
		}
	}
	return ModulesForCourse(courseID, adaptAll(allDocs, model.AdaptModule))
}

// MaterialListing is the materials of one module.
type MaterialListing struct {
	ModuleID  string           `json:"module_id"`
	Materials []model.Material `json:"materials"`
	Notices   []Notice         `json:"notices,omitempty"`
}

// MaterialsForModule lists a module's materials, newest first.
func (s *Service) MaterialsForModule(ctx context.Context, moduleID string) MaterialListing {
	out := MaterialListing{ModuleID: moduleID, Materials: []model.Material{}}
	if moduleID == "" {
		return out
	}
	docs, err := s.filterAny(ctx, database.CollectionMaterials, model.MaterialModuleKeys, moduleID)
	if err != nil {
		out.Notices = append(out.Notices, s.fetchFailed(database.CollectionMaterials, "filter", err, "Could not load materials for this module"))
		return out
	}
	out.Materials = MaterialsForModule(moduleID, adaptAll(docs, model.AdaptMaterial))
	SortMaterials(out.Materials)
	return out
}

// ModuleMaterials groups materials under their module.
type ModuleMaterials struct {
	Module    model.Module     `json:"module"`
	Materials []model.Material `json:"materials"`
}

// MaterialsResult is the "my materials" view.
type MaterialsResult struct {
	Modules []ModuleMaterials `json:"modules"`
	Notices []Notice          `json:"notices,omitempty"`
}

// MyMaterials loads the materials of every enrolled module, one lookup per
// module in parallel. Modules are ordered by title.
func (s *Service) MyMaterials(ctx context.Context, studentID string) MaterialsResult {
	res := s.ResolveView(ctx, studentID)
	out := MaterialsResult{Modules: []ModuleMaterials{}, Notices: res.Notices}

	modules := make([]model.Module, 0, len(res.Modules))
	for _, id := range res.View.EnrolledModuleIDs.Sorted() {
		modules = append(modules, res.Modules[id])
	}
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].Title < modules[j].Title
	})

	type result struct {
		materials []model.Material
		err       error
	}
	results, err := gather(ctx, s.opts.FanOutLimit, len(modules), func(ctx context.Context, i int) (result, error) {
		docs, err := s.filterAny(ctx, database.CollectionMaterials, model.MaterialModuleKeys, modules[i].ID)
		if err != nil {
			return result{err: err}, nil
		}
		mats := MaterialsForModule(modules[i].ID, adaptAll(docs, model.AdaptMaterial))
		SortMaterials(mats)
		return result{materials: mats}, nil
	})
	if err != nil {
		out.Notices = append(out.Notices, s.fetchFailed(database.CollectionMaterials, "fan-out", err, "Could not load your materials"))
		return out
	}

	failed := 0
	var firstErr error
	for i, r := range results {
		if r.err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out.Modules = append(out.Modules, ModuleMaterials{Module: modules[i], Materials: r.materials})
	}
	if failed > 0 {
		msg := fmt.Sprintf("Could not load materials for %d module(s)", failed)
		out.Notices = append(out.Notices, s.fetchFailed(database.CollectionMaterials, "filter", firstErr, msg))
	}
	return out
}

// Material fetches a single material. database.ErrNotFound is returned
// as-is so callers can tell a missing material from a failed read.
func (s *Service) Material(ctx context.Context, id string) (model.Material, error) {
	doc, err := s.store.Get(ctx, database.CollectionMaterials, id)
	if err != nil {
		return model.Material{}, err
	}
	return model.AdaptMaterial(doc.Data, doc.ID), nil
}

// WarmCatalog issues every catalog read a view resolution makes so a
// caching store can serve them: the course, module and schedule scans, each
// course by id, and each course's module filters. Enrollments are per
// student and are not warmed.
func (s *Service) WarmCatalog(ctx context.Context) error {
	var courseIDs []string
	for _, c := range []string{database.CollectionCourses, database.CollectionModules, database.CollectionSchedules} {
		docs, err := s.store.Scan(ctx, c)
		if err != nil {
			return fmt.Errorf("warm %s: %w", c, err)
		}
		if c == database.CollectionCourses {
			for _, d := range docs {
				courseIDs = append(courseIDs, d.ID)
			}
		}
	}

	bg, batched := s.store.(database.BatchGetter)
	if batched && len(courseIDs) > 0 {
		if _, err := bg.GetMany(ctx, database.CollectionCourses, courseIDs); err != nil {
			return fmt.Errorf("warm course lookups: %w", err)
		}
	}
	_, err := gather(ctx, s.opts.FanOutLimit, len(courseIDs), func(ctx context.Context, i int) (struct{}, error) {
		if !batched {
			if _, err := s.store.Get(ctx, database.CollectionCourses, courseIDs[i]); err != nil && !errors.Is(err, database.ErrNotFound) {
				return struct{}{}, err
			}
		}
		_, err := s.filterAny(ctx, database.CollectionModules, model.ModuleCourseKeys, courseIDs[i])
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("warm module lookups: %w", err)
	}
	return nil
}

// Audit scans courses and modules and reports broken references.
func (s *Service) Audit(ctx context.Context) (ReferenceReport, error) {
	courseDocs, err := s.store.Scan(ctx, database.CollectionCourses)
	if err != nil {
		return ReferenceReport{}, fmt.Errorf("scan courses: %w", err)
	}
	moduleDocs, err := s.store.Scan(ctx, database.CollectionModules)
	if err != nil {
		return ReferenceReport{}, fmt.Errorf("scan modules: %w", err)
	}
	return AuditReferences(adaptAll(courseDocs, model.AdaptCourse), adaptAll(moduleDocs, model.AdaptModule)), nil
}

// filterAny runs one equality filter per field name and merges the matches
// in field order, keeping the first copy of each document. Records written
// under an older field name are found this way; the adapters decide which
// name wins.
func (s *Service) filterAny(ctx context.Context, collection string, fields []string, value string) ([]database.Document, error) {
	if len(fields) == 1 {
		return s.store.FilterEqual(ctx, collection, fields[0], value)
	}
	parts, err := gather(ctx, s.opts.FanOutLimit, len(fields), func(ctx context.Context, i int) ([]database.Document, error) {
		return s.store.FilterEqual(ctx, collection, fields[i], value)
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := []database.Document{}
	for _, docs := range parts {
		for _, d := range docs {
			if !seen[d.ID] {
				seen[d.ID] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (s *Service) fetchFailed(collection, op string, err error, message string) Notice {
	s.log.Warn("store read failed", "collection", collection, "op", op, "error", err)
	return Notice{Source: collection, Message: message}
}

// applyDisplayTitles prefers the module's own title, then the schedule's
// denormalized copy, then the course title.
func applyDisplayTitles(schedules []model.Schedule, modules map[string]model.Module, courses map[string]model.Course) {
	for i := range schedules {
		s := &schedules[i]
		switch {
		case modules[s.ModuleID].Title != "":
			s.DisplayTitle = modules[s.ModuleID].Title
		case s.ModuleTitle != "":
			s.DisplayTitle = s.ModuleTitle
		default:
			s.DisplayTitle = courses[s.CourseID].Title
		}
	}
}

func adaptAll[T any](docs []database.Document, adapt func(model.Record, string) T) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, adapt(d.Data, d.ID))
	}
	return out
}
