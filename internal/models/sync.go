package models

// CourseSyncReport summarizes one course-and-category sync run.
type CourseSyncReport struct {
	Term            string `json:"term"`
	Offerings       int    `json:"offerings"`
	CoursesCreated  int    `json:"courses_created"`
	CoursesExisting int    `json:"courses_existing"`
	Duplicates      int    `json:"duplicates"`
	TeachersBound   int    `json:"teachers_bound"`
	Failures        int    `json:"failures"`
}

// EnrollmentSyncReport summarizes one student enrollment sync run.
type EnrollmentSyncReport struct {
	Term            string `json:"term"`
	Learners        int    `json:"learners"`
	Enrolled        int    `json:"enrolled"`
	AlreadyEnrolled int    `json:"already_enrolled"`
	MissingCourses  int    `json:"missing_courses"`
	MissingLearners int    `json:"missing_learners"`
	Failures        int    `json:"failures"`
}

// ArchiveReport summarizes one archive run.
type ArchiveReport struct {
	Term            string `json:"term"`
	Scanned         int    `json:"scanned"`
	Archived        int    `json:"archived"`
	AlreadyArchived int    `json:"already_archived"`
	Failures        int    `json:"failures"`
}
