package models

import "time"

// CourseEnrollment binds a user to a course with a role. Binding is
// idempotent: enrolling an already-enrolled user is a no-op.
type CourseEnrollment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	RoleID    string    `db:"role_id" json:"role_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
