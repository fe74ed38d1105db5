package models

import "time"

// Category is a node in the course category tree. IDNumber is the natural key
// used to detect an existing node; the tree is base → education level →
// program → sub-period, with an optional per-program archive bucket.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IDNumber  string    `db:"idnumber" json:"idnumber"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
