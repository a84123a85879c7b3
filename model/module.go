package model

// Module is a unit of a course. CourseID is the only link back to the
// course and may be empty on legacy records.
type Module struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	CourseID string `json:"course_id"`
	Duration string `json:"duration"`
	Credits  int    `json:"credits"`
}

// ModuleCourseKeys are the field names that have held a module's course id.
var ModuleCourseKeys = []string{"courseId", "course_id"}

// AdaptModule maps a raw module document onto Module.
func AdaptModule(r Record, id string) Module {
	return Module{
		ID:       id,
		Title:    stringField(r, "title", "name", "moduleName"),
		CourseID: stringField(r, ModuleCourseKeys...),
		Duration: stringField(r, "duration"),
		Credits:  int(intField(r, "credits")),
	}
}
