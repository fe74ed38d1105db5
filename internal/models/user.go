package models

import "time"

// User is a person known to the local catalog. The CPF national id lives in
// the profile field configured per deployment; Username matches SIGAA logins.
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	FullName  string    `db:"full_name" json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
