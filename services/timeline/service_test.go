package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/model"
	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

var errStoreDown = errors.New("store unavailable")

// faultyStore fails selected reads of a wrapped store. It deliberately does
// not implement database.BatchGetter.
type faultyStore struct {
	database.DocumentStore
	failScan   map[string]bool
	failFilter func(collection, field, value string) bool
	failGet    map[string]bool
	gets       int32
}

func (s *faultyStore) Scan(ctx context.Context, collection string) ([]database.Document, error) {
	if s.failScan[collection] {
		return nil, errStoreDown
	}
	return s.DocumentStore.Scan(ctx, collection)
}

func (s *faultyStore) FilterEqual(ctx context.Context, collection, field, value string) ([]database.Document, error) {
	if s.failFilter != nil && s.failFilter(collection, field, value) {
		return nil, errStoreDown
	}
	return s.DocumentStore.FilterEqual(ctx, collection, field, value)
}

func (s *faultyStore) Get(ctx context.Context, collection, id string) (database.Document, error) {
	atomic.AddInt32(&s.gets, 1)
	if s.failGet[id] {
		return database.Document{}, errStoreDown
	}
	return s.DocumentStore.Get(ctx, collection, id)
}

// campusFixture is a small campus: s1 takes c1 and c2, c3 exists but is not
// taken, m9 points at a course that does not exist.
func campusFixture() *database.MemoryStore {
	return database.NewMemoryStore().
		MustPut(database.CollectionEnrollments, "e1", database.Record{"studentId": "s1", "courseId": "c1", "semester": 1, "status": "Active"}).
		MustPut(database.CollectionEnrollments, "e2", database.Record{"studentId": "s1", "courseId": "c2"}).
		MustPut(database.CollectionEnrollments, "e3", database.Record{"studentId": "s1", "courseId": "c1"}).
		MustPut(database.CollectionEnrollments, "e4", database.Record{"studentId": "s2", "courseId": "c3"}).
		MustPut(database.CollectionCourses, "c1", database.Record{"title": "Algorithms", "code": "CS201", "modules": []interface{}{"m1", "m2"}}).
		MustPut(database.CollectionCourses, "c2", database.Record{"title": "Databases", "code": "CS105"}).
		MustPut(database.CollectionCourses, "c3", database.Record{"title": "Networks", "code": "CS301"}).
		MustPut(database.CollectionModules, "m1", database.Record{"title": "Graphs", "courseId": "c1"}).
		MustPut(database.CollectionModules, "m2", database.Record{"title": "Sorting", "courseId": "c1"}).
		MustPut(database.CollectionModules, "m3", database.Record{"title": "SQL", "courseId": "c2"}).
		MustPut(database.CollectionModules, "m4", database.Record{"title": "Routing", "courseId": "c3"}).
		MustPut(database.CollectionModules, "m9", database.Record{"title": "Lost", "courseId": "c404"}).
		MustPut(database.CollectionSchedules, "sch1", database.Record{"moduleId": "m1", "moduleTitle": "Old Graphs Title", "date": "2024-03-10", "startTime": "13:00", "endTime": "14:00"}).
		MustPut(database.CollectionSchedules, "sch2", database.Record{"courseId": "c2", "date": map[string]interface{}{"seconds": float64(1710028800)}, "startTime": "09:00", "endTime": "10:00"}).
		MustPut(database.CollectionSchedules, "sch3", database.Record{"moduleId": "m3", "date": "2024-03-11", "startTime": "08:00"}).
		MustPut(database.CollectionSchedules, "sch4", database.Record{"moduleId": "m4", "date": "2024-03-10", "startTime": "07:00"}).
		MustPut(database.CollectionSchedules, "sch5", database.Record{"moduleId": "m9", "date": "2024-03-10", "startTime": "07:30"}).
		MustPut(database.CollectionSchedules, "sch6", database.Record{"moduleId": "m2", "date": "someday", "startTime": "06:00"}).
		MustPut(database.CollectionMaterials, "mat1", database.Record{"moduleId": "m1", "title": "Graph notes", "createdAt": "2024-03-01"}).
		MustPut(database.CollectionMaterials, "mat2", database.Record{"moduleId": "m1", "name": "bfs.pdf", "uploadedAt": "2024-03-05"}).
		MustPut(database.CollectionMaterials, "mat3", database.Record{"moduleId": "m3", "title": "Joins"}).
		MustPut(database.CollectionMaterials, "mat4", database.Record{"moduleId": "m4", "title": "BGP"})
}

func newTestService(store database.DocumentStore, opts Options) *Service {
	return NewService(store, logger.NewNop(), opts)
}

var march10 = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

func TestServiceResolveView(t *testing.T) {
	svc := newTestService(campusFixture(), Options{})
	res := svc.ResolveView(context.Background(), "s1")

	if len(res.Notices) != 0 {
		t.Fatalf("unexpected notices %v", res.Notices)
	}
	if got := res.View.EnrolledCourseIDs.Sorted(); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("courses = %v", got)
	}
	if got := res.View.EnrolledModuleIDs.Sorted(); !reflect.DeepEqual(got, []string{"m1", "m2", "m3"}) {
		t.Errorf("modules = %v", got)
	}
	if got := scheduleIDs(res.View.EffectiveSchedules); !reflect.DeepEqual(got, []string{"sch1", "sch2", "sch3", "sch6"}) {
		t.Errorf("schedules = %v", got)
	}

	titles := map[string]string{}
	for _, s := range res.View.EffectiveSchedules {
		titles[s.ID] = s.DisplayTitle
	}
	// Module title wins over the denormalized copy; course title is last.
	want := map[string]string{"sch1": "Graphs", "sch2": "Databases", "sch3": "SQL", "sch6": "Sorting"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("display titles = %v, want %v", titles, want)
	}
}

func TestServiceResolveViewUnknownStudent(t *testing.T) {
	store := &faultyStore{DocumentStore: campusFixture()}
	res := newTestService(store, Options{}).ResolveView(context.Background(), "nobody")

	if len(res.View.EnrolledCourseIDs) != 0 || len(res.View.EffectiveSchedules) != 0 || len(res.Notices) != 0 {
		t.Errorf("unexpected view %+v", res)
	}
	if store.gets != 0 {
		t.Errorf("course lookups issued for a student with no enrollments")
	}
}

func TestServiceResolveViewWithoutBatchGetter(t *testing.T) {
	store := &faultyStore{DocumentStore: campusFixture()}
	res := newTestService(store, Options{FanOutLimit: 1}).ResolveView(context.Background(), "s1")

	if store.gets != 2 {
		t.Errorf("course gets = %d, want one per distinct enrolled course", store.gets)
	}
	if got := res.View.EnrolledModuleIDs.Sorted(); !reflect.DeepEqual(got, []string{"m1", "m2", "m3"}) {
		t.Errorf("modules = %v", got)
	}
}

func TestServiceFailOpen(t *testing.T) {
	tests := []struct {
		name        string
		store       func() *faultyStore
		wantSource  string
		wantModules []string
		wantSched   []string
	}{
		{
			name: "enrollments down",
			store: func() *faultyStore {
				return &faultyStore{DocumentStore: campusFixture(), failFilter: func(c, _, _ string) bool { return c == database.CollectionEnrollments }}
			},
			wantSource:  database.CollectionEnrollments,
			wantModules: []string{},
			wantSched:   []string{},
		},
		{
			name: "schedules down",
			store: func() *faultyStore {
				return &faultyStore{DocumentStore: campusFixture(), failScan: map[string]bool{database.CollectionSchedules: true}}
			},
			wantSource:  database.CollectionSchedules,
			wantModules: []string{"m1", "m2", "m3"},
			wantSched:   []string{},
		},
		{
			name: "one module lookup down",
			store: func() *faultyStore {
				return &faultyStore{DocumentStore: campusFixture(), failFilter: func(c, _, v string) bool { return c == database.CollectionModules && v == "c1" }}
			},
			wantSource:  database.CollectionModules,
			wantModules: []string{"m3"},
			wantSched:   []string{"sch2", "sch3"},
		},
		{
			name: "one course lookup down",
			store: func() *faultyStore {
				return &faultyStore{DocumentStore: campusFixture(), failGet: map[string]bool{"c2": true}}
			},
			wantSource:  database.CollectionCourses,
			wantModules: []string{"m1", "m2"},
			wantSched:   []string{"sch1", "sch2", "sch6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestService(tt.store(), Options{}).ResolveView(context.Background(), "s1")

			if len(res.Notices) != 1 || res.Notices[0].Source != tt.wantSource {
				t.Fatalf("notices = %+v, want one from %s", res.Notices, tt.wantSource)
			}
			if got := res.View.EnrolledModuleIDs.Sorted(); !reflect.DeepEqual(got, tt.wantModules) {
				t.Errorf("modules = %v, want %v", got, tt.wantModules)
			}
			if got := scheduleIDs(res.View.EffectiveSchedules); !reflect.DeepEqual(got, tt.wantSched) {
				t.Errorf("schedules = %v, want %v", got, tt.wantSched)
			}
		})
	}
}

func TestServiceMissingCourseIsNotANotice(t *testing.T) {
	store := campusFixture().
		MustPut(database.CollectionEnrollments, "e5", database.Record{"studentId": "s1", "courseId": "c404"})
	res := newTestService(&faultyStore{DocumentStore: store}, Options{}).ResolveView(context.Background(), "s1")

	if len(res.Notices) != 0 {
		t.Errorf("orphan enrollment produced notices %v", res.Notices)
	}
	if res.View.EnrolledModuleIDs.Has("m9") {
		t.Error("module of a missing course joined")
	}
}

func TestServiceTodaysClasses(t *testing.T) {
	svc := newTestService(campusFixture(), Options{})
	res := svc.TodaysClasses(context.Background(), "s1", march10, false)

	if res.Date != "2024-03-10" || res.Placeholder {
		t.Errorf("unexpected header %+v", res)
	}
	if got := scheduleIDs(res.Classes); !reflect.DeepEqual(got, []string{"sch2", "sch1"}) {
		t.Errorf("classes = %v, want [sch2 sch1]", got)
	}
}

func TestServiceTodaysClassesLocation(t *testing.T) {
	// 20:00 UTC on the 10th is already the 11th in Kolkata.
	loc := time.FixedZone("IST", 5*3600+1800)
	svc := newTestService(campusFixture(), Options{Location: loc})
	res := svc.TodaysClasses(context.Background(), "s1", time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC), false)

	if res.Date != "2024-03-11" {
		t.Errorf("date = %s, want 2024-03-11", res.Date)
	}
	if got := scheduleIDs(res.Classes); !reflect.DeepEqual(got, []string{"sch3"}) {
		t.Errorf("classes = %v", got)
	}
}

func TestServicePlaceholderPolicy(t *testing.T) {
	emptyDay := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		opts      Options
		demo      bool
		student   string
		store     func() database.DocumentStore
		wantPlace bool
	}{
		{"off by default", Options{}, false, "s1", func() database.DocumentStore { return campusFixture() }, false},
		{"per request", Options{}, true, "s1", func() database.DocumentStore { return campusFixture() }, true},
		{"configured demo mode", Options{DemoMode: true}, false, "s1", func() database.DocumentStore { return campusFixture() }, true},
		{"not for students without courses", Options{DemoMode: true}, true, "nobody", func() database.DocumentStore { return campusFixture() }, false},
		{"not over a failed read", Options{}, true, "s1", func() database.DocumentStore {
			return &faultyStore{DocumentStore: campusFixture(), failScan: map[string]bool{database.CollectionSchedules: true}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestService(tt.store(), tt.opts).TodaysClasses(context.Background(), tt.student, emptyDay, tt.demo)
			if res.Placeholder != tt.wantPlace {
				t.Fatalf("Placeholder = %v, want %v", res.Placeholder, tt.wantPlace)
			}
			if !tt.wantPlace {
				if len(res.Classes) != 0 {
					t.Errorf("classes = %v, want none", scheduleIDs(res.Classes))
				}
				return
			}
			if len(res.Classes) != 1 || !strings.HasPrefix(res.Classes[0].ID, "placeholder-") {
				t.Fatalf("classes = %+v", res.Classes)
			}
			if res.Classes[0].CourseID != "c1" || res.Classes[0].DisplayTitle != "Algorithms" {
				t.Errorf("placeholder = %+v", res.Classes[0])
			}
		})
	}

	// A real class on the day always suppresses the placeholder.
	res := newTestService(campusFixture(), Options{DemoMode: true}).TodaysClasses(context.Background(), "s1", march10, true)
	if res.Placeholder || len(res.Classes) != 2 {
		t.Errorf("placeholder added to a non-empty day: %+v", res)
	}
}

func TestServiceMySchedule(t *testing.T) {
	res := newTestService(campusFixture(), Options{}).MySchedule(context.Background(), "s1")
	want := []string{"sch2", "sch1", "sch3", "sch6"}
	if got := scheduleIDs(res.Schedules); !reflect.DeepEqual(got, want) {
		t.Errorf("schedule = %v, want %v", got, want)
	}
}

func TestServiceMyCourses(t *testing.T) {
	res := newTestService(campusFixture(), Options{}).MyCourses(context.Background(), "s1")
	var codes []string
	for _, c := range res.Courses {
		codes = append(codes, c.Code)
	}
	if !reflect.DeepEqual(codes, []string{"CS105", "CS201"}) {
		t.Errorf("codes = %v", codes)
	}
}

func TestServiceModulesForCourse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(campusFixture(), Options{})

	listing := svc.ModulesForCourse(ctx, "c1")
	if listing.UsedFallback || !reflect.DeepEqual(moduleIDs(listing.Modules), []string{"m1", "m2"}) {
		t.Errorf("c1 listing = %+v", listing)
	}

	listing = svc.ModulesForCourse(ctx, "c-empty")
	if !listing.UsedFallback || len(listing.Modules) != 5 {
		t.Errorf("fallback listing = %+v", listing)
	}

	failing := &faultyStore{DocumentStore: campusFixture(), failScan: map[string]bool{database.CollectionModules: true}}
	listing = newTestService(failing, Options{}).ModulesForCourse(ctx, "c-empty")
	if listing.UsedFallback || len(listing.Modules) != 0 || len(listing.Notices) != 1 {
		t.Errorf("failed fallback listing = %+v", listing)
	}
}

func TestServiceMaterialsForModule(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(campusFixture(), Options{})

	listing := svc.MaterialsForModule(ctx, "m1")
	if got := materialIDs(listing.Materials); !reflect.DeepEqual(got, []string{"mat2", "mat1"}) {
		t.Errorf("m1 materials = %v, want newest first", got)
	}
	if listing.Materials[0].Title != "bfs.pdf" {
		t.Errorf("legacy name not reconciled: %+v", listing.Materials[0])
	}

	if listing := svc.MaterialsForModule(ctx, "m-none"); len(listing.Materials) != 0 || len(listing.Notices) != 0 {
		t.Errorf("unknown module listing = %+v", listing)
	}

	failing := &faultyStore{DocumentStore: campusFixture(), failFilter: func(c, _, _ string) bool { return c == database.CollectionMaterials }}
	if listing := newTestService(failing, Options{}).MaterialsForModule(ctx, "m1"); len(listing.Materials) != 0 || len(listing.Notices) != 1 {
		t.Errorf("failed listing = %+v", listing)
	}
}

func TestServiceMyMaterials(t *testing.T) {
	ctx := context.Background()
	res := newTestService(campusFixture(), Options{}).MyMaterials(ctx, "s1")

	var got []string
	for _, group := range res.Modules {
		got = append(got, group.Module.Title+":"+strings.Join(materialIDs(group.Materials), ","))
	}
	want := []string{"Graphs:mat2,mat1", "SQL:mat3", "Sorting:"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}

	failing := &faultyStore{DocumentStore: campusFixture(), failFilter: func(c, _, v string) bool {
		return c == database.CollectionMaterials && v == "m3"
	}}
	res = newTestService(failing, Options{}).MyMaterials(ctx, "s1")
	if len(res.Modules) != 2 || len(res.Notices) != 1 || res.Notices[0].Source != database.CollectionMaterials {
		t.Errorf("partial result = %+v", res)
	}
}

func TestServiceMaterial(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(campusFixture(), Options{})

	m, err := svc.Material(ctx, "mat2")
	if err != nil || m.FileName != "bfs.pdf" {
		t.Errorf("Material = %+v, %v", m, err)
	}
	if _, err := svc.Material(ctx, "ghost"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestServiceAuditAndWarm(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(campusFixture(), Options{})

	report, err := svc.Audit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report.OrphanModules, []string{"m9"}) {
		t.Errorf("orphans = %v", report.OrphanModules)
	}
	if err := svc.WarmCatalog(ctx); err != nil {
		t.Errorf("WarmCatalog: %v", err)
	}

	failing := &faultyStore{DocumentStore: campusFixture(), failScan: map[string]bool{database.CollectionModules: true}}
	if _, err := newTestService(failing, Options{}).Audit(ctx); !errors.Is(err, errStoreDown) {
		t.Errorf("Audit err = %v", err)
	}
}

// legacyFixture stores references under older field names. e3 and m2 carry
// both spellings so they match more than one filter.
func legacyFixture() *database.MemoryStore {
	return database.NewMemoryStore().
		MustPut(database.CollectionEnrollments, "e1", database.Record{"student_id": "s1", "course_id": "c1"}).
		MustPut(database.CollectionEnrollments, "e2", database.Record{"userId": "s1", "courseId": "c2"}).
		MustPut(database.CollectionEnrollments, "e3", database.Record{"studentId": "s1", "student_id": "s1", "courseId": "c1"}).
		MustPut(database.CollectionCourses, "c1", database.Record{"title": "Algorithms"}).
		MustPut(database.CollectionCourses, "c2", database.Record{"title": "Databases"}).
		MustPut(database.CollectionModules, "m1", database.Record{"title": "Graphs", "course_id": "c1"}).
		MustPut(database.CollectionModules, "m2", database.Record{"title": "SQL", "courseId": "c2", "course_id": "c2"}).
		MustPut(database.CollectionSchedules, "sch1", database.Record{"moduleId": "m1", "date": "2024-03-10", "startTime": "09:00"}).
		MustPut(database.CollectionMaterials, "mat1", database.Record{"module_id": "m1", "title": "Graph notes"}).
		MustPut(database.CollectionMaterials, "mat2", database.Record{"moduleId": "m2", "module_id": "m2", "title": "Joins"})
}

func TestServiceLegacyFieldNames(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(legacyFixture(), Options{})

	docs, err := svc.filterAny(ctx, database.CollectionEnrollments, model.EnrollmentStudentKeys, "s1")
	if err != nil {
		t.Fatalf("filterAny: %v", err)
	}
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if !reflect.DeepEqual(ids, []string{"e3", "e1", "e2"}) {
		t.Errorf("enrollment matches = %v, want each once in field order", ids)
	}

	res := svc.ResolveView(ctx, "s1")
	if len(res.Notices) != 0 {
		t.Fatalf("unexpected notices %v", res.Notices)
	}
	if got := res.View.EnrolledCourseIDs.Sorted(); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("courses = %v", got)
	}
	if got := res.View.EnrolledModuleIDs.Sorted(); !reflect.DeepEqual(got, []string{"m1", "m2"}) {
		t.Errorf("modules = %v", got)
	}
	if got := scheduleIDs(res.View.EffectiveSchedules); !reflect.DeepEqual(got, []string{"sch1"}) {
		t.Errorf("schedules = %v", got)
	}

	listing := svc.ModulesForCourse(ctx, "c2")
	if listing.UsedFallback || !reflect.DeepEqual(moduleIDs(listing.Modules), []string{"m2"}) {
		t.Errorf("c2 listing = %+v", listing)
	}
	if got := materialIDs(svc.MaterialsForModule(ctx, "m1").Materials); !reflect.DeepEqual(got, []string{"mat1"}) {
		t.Errorf("m1 materials = %v", got)
	}
	if got := materialIDs(svc.MaterialsForModule(ctx, "m2").Materials); !reflect.DeepEqual(got, []string{"mat2"}) {
		t.Errorf("m2 materials = %v", got)
	}

	var groups []string
	for _, group := range svc.MyMaterials(ctx, "s1").Modules {
		groups = append(groups, group.Module.Title+":"+strings.Join(materialIDs(group.Materials), ","))
	}
	if want := []string{"Graphs:mat1", "SQL:mat2"}; !reflect.DeepEqual(groups, want) {
		t.Errorf("groups = %v, want %v", groups, want)
	}
}

// memoryCache is an in-memory database.JSONCache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(b, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = b
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// recordingStore records every read that reaches the wrapped store as
// "op:collection".
type recordingStore struct {
	database.DocumentStore
	mu  sync.Mutex
	ops []string
}

func (s *recordingStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *recordingStore) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.ops
	s.ops = nil
	return ops
}

func (s *recordingStore) Scan(ctx context.Context, collection string) ([]database.Document, error) {
	s.record("scan:" + collection)
	return s.DocumentStore.Scan(ctx, collection)
}

func (s *recordingStore) FilterEqual(ctx context.Context, collection, field, value string) ([]database.Document, error) {
	s.record("eq:" + collection)
	return s.DocumentStore.FilterEqual(ctx, collection, field, value)
}

func (s *recordingStore) Get(ctx context.Context, collection, id string) (database.Document, error) {
	s.record("get:" + collection)
	return s.DocumentStore.Get(ctx, collection, id)
}

type batchRecordingStore struct {
	*recordingStore
}

func (s *batchRecordingStore) GetMany(ctx context.Context, collection string, ids []string) ([]database.Document, error) {
	s.record("getmany:" + collection)
	return s.DocumentStore.(database.BatchGetter).GetMany(ctx, collection, ids)
}

func TestServiceWarmCatalogServesResolveFromCache(t *testing.T) {
	for _, batched := range []bool{false, true} {
		name := "per-id"
		if batched {
			name = "batched"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := &recordingStore{DocumentStore: campusFixture()}
			var backing database.DocumentStore = rec
			if batched {
				backing = &batchRecordingStore{rec}
			}
			cached := database.NewCachedStore(backing, &memoryCache{entries: map[string][]byte{}}, time.Minute, nil)
			svc := newTestService(cached, Options{})

			if err := svc.WarmCatalog(ctx); err != nil {
				t.Fatalf("WarmCatalog: %v", err)
			}
			rec.take()

			res := svc.ResolveView(ctx, "s1")
			if got := scheduleIDs(res.View.EffectiveSchedules); !reflect.DeepEqual(got, []string{"sch1", "sch2", "sch3", "sch6"}) {
				t.Errorf("schedules = %v", got)
			}
			ops := rec.take()
			if len(ops) != len(model.EnrollmentStudentKeys) {
				t.Errorf("backing reads = %v, want only the enrollment filters", ops)
			}
			for _, op := range ops {
				if op != "eq:"+database.CollectionEnrollments {
					t.Errorf("catalog read %q reached the store after warm-up", op)
				}
			}

			svc.ResolveView(ctx, "s1")
			if ops := rec.take(); len(ops) != 0 {
				t.Errorf("second resolve reached the store: %v", ops)
			}
		})
	}
}
