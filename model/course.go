package model

import "strings"

// CourseStatus is the catalog state of a course.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "Active"
	CourseStatusInactive CourseStatus = "Inactive"
)

// Course represents a catalog course (e.g., "Data Structures")
type Course struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Code       string       `json:"code"`
	Department string       `json:"department"`
	Level      string       `json:"level"`
	Credits    int          `json:"credits"`
	Modules    []string     `json:"modules"` // module ids, may be stale
	Status     CourseStatus `json:"status"`
}

// AdaptCourse maps a raw course document onto Course.
func AdaptCourse(r Record, id string) Course {
	return Course{
		ID:         id,
		Title:      stringField(r, "title", "name", "courseName"),
		Code:       stringField(r, "code", "courseCode"),
		Department: stringField(r, "department"),
		Level:      stringField(r, "level"),
		Credits:    int(intField(r, "credits")),
		Modules:    stringList(r, "modules", "moduleIds"),
		Status:     CourseStatus(normalizeStatus(stringField(r, "status"))),
	}
}

// IsActive reports whether the course is open. A missing status counts as
// active.
func (c Course) IsActive() bool {
	return c.Status == "" || c.Status == CourseStatusActive
}

// normalizeStatus title-cases enum values written as "active" or "ACTIVE".
func normalizeStatus(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
