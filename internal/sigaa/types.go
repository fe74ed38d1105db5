package sigaa

// EnrollmentGroup is one learner's record for a term: identity plus the roster
// of course offerings the learner is registered into.
type EnrollmentGroup struct {
	RegistrationID string
	Login          string
	Offerings      []Offering
}

// Offering is one course instance taught within a term. TermLabel plus Code
// form the natural key used everywhere downstream. Program fields arrive at
// the group level on the wire and are flattened onto each offering at decode
// time.
type Offering struct {
	TermLabel    string
	Code         string
	Title        string
	ProgramName  string
	ProgramCode  string
	ProgramLevel string
	SubPeriod    int
	Teachers     []TeacherRef
}

// TeacherRef is a teacher as reported by SIGAA. CPF may be absent, in which
// case the teacher cannot be matched to a local account.
type TeacherRef struct {
	Name string
	CPF  string
}
