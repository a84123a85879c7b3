package model

// EnrollmentStatus is the state of a student's enrollment in a course.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "Active"
	EnrollmentStatusInactive  EnrollmentStatus = "Inactive"
	EnrollmentStatusCompleted EnrollmentStatus = "Completed"
)

// Enrollment links a student to a course for an academic term. The
// (StudentID, CourseID) pair is not guaranteed unique.
type Enrollment struct {
	ID           string           `json:"id"`
	StudentID    string           `json:"student_id"`
	CourseID     string           `json:"course_id"`
	AcademicYear string           `json:"academic_year"`
	Semester     int              `json:"semester"`
	Status       EnrollmentStatus `json:"status"`
}

// EnrollmentStudentKeys are the field names that have held the student id,
// current name first. Store filters must query every one of them.
var EnrollmentStudentKeys = []string{"studentId", "student_id", "userId"}

// AdaptEnrollment maps a raw enrollment document onto Enrollment.
func AdaptEnrollment(r Record, id string) Enrollment {
	return Enrollment{
		ID:           id,
		StudentID:    stringField(r, EnrollmentStudentKeys...),
		CourseID:     stringField(r, "courseId", "course_id"),
		AcademicYear: stringField(r, "academicYear", "academic_year"),
		Semester:     int(intField(r, "semester")),
		Status:       EnrollmentStatus(normalizeStatus(stringField(r, "status"))),
	}
}
