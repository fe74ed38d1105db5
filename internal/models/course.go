package models

import (
	"encoding/json"
	"time"
)

// Course mirrors one SIGAA course offering in the local catalog. IDNumber is
// the natural key "{termLabel}-{offeringCode}" and is the sole external
// identity of the row: sync never updates an existing course's content.
type Course struct {
	ID          string     `db:"id" json:"id"`
	FullName    string     `db:"fullname" json:"fullname"`
	ShortName   string     `db:"shortname" json:"shortname"`
	IDNumber    string     `db:"idnumber" json:"idnumber"`
	CategoryID  string     `db:"category_id" json:"category_id"`
	TermLabel   string     `db:"term_label" json:"term_label"`
	Metadata    string     `db:"metadata" json:"metadata"`
	ManualEnrol bool       `db:"manual_enrol" json:"manual_enrol"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// CourseMetadata is the provenance blob serialized into the course's
// designated metadata field at creation time and read back by the archiver.
type CourseMetadata struct {
	ProgramCode  string `json:"program_code"`
	TermLabel    string `json:"term_label"`
	OfferingCode string `json:"offering_code"`
	SubPeriod    int    `json:"sub_period"`
}

// Encode serializes the metadata blob.
func (m CourseMetadata) Encode() (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeCourseMetadata parses a stored metadata blob.
func DecodeCourseMetadata(raw string) (CourseMetadata, error) {
	var m CourseMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return CourseMetadata{}, err
	}
	return m, nil
}

// CourseNaturalKey builds the natural key for an offering within a term.
func CourseNaturalKey(termLabel, offeringCode string) string {
	return termLabel + "-" + offeringCode
}
