package models

// Course identifies one offered course within a term.
type Course struct {
	ID         int64   `db:"id" json:"id"`
	OfferingID int64   `db:"offering_id" json:"offering_id"`
	Subject    string  `db:"subject" json:"subject"`
	Number     string  `db:"course_nbr" json:"course_nbr"`
	Title      string  `db:"title" json:"title"`
	CreditMin  float64 `db:"credit_min" json:"credit_min"`
	HasCredit  bool    `db:"has_credit" json:"has_credit"`
}

// Name returns the external course key, e.g. "MA 16100".
func (c Course) Name() string {
	return c.Subject + " " + c.Number
}

// Offering groups the instructional configurations of a course.
type Offering struct {
	ID       int64
	CourseID int64
	Configs  []Config
	// LinkedSections lists groups of section ids that must be taken together.
	LinkedSections [][]int64
}

// Config is one valid combination template (e.g. lecture + lab).
// Subparts keep their catalog order; a combination is complete iff it holds
// exactly one section per subpart, honors parent linkage, and has no
// pairwise time overlap.
type Config struct {
	ID       int64
	Subparts []Subpart
}

// Subpart is a single slot within a Config. Sections keep catalog order.
type Subpart struct {
	ID       int64
	ParentID int64
	Name     string
	Sections []Section
}

// Section is one schedulable class meeting. ParentID links it to the
// section of the parent subpart it belongs under, zero when unparented.
type Section struct {
	ID         int64
	SubpartID  int64
	ParentID   int64
	Name       string
	Limit      int
	Enrollment int
	Cancelled  bool
	Placement  *TimePlacement
}

// Available reports whether the section still has a seat. A negative limit
// means unlimited.
func (s Section) Available() bool {
	return s.Limit < 0 || s.Enrollment < s.Limit
}

// CRN extracts the external course reference number from the section name.
// Section names follow the "<crn>-<suffix>" convention.
func (s Section) CRN() string {
	for i := 0; i < len(s.Name); i++ {
		if s.Name[i] == '-' {
			return s.Name[:i]
		}
	}
	return s.Name
}

// TimePlacement is a weekly meeting pattern in slot units.
type TimePlacement struct {
	Days      uint8 `json:"days"`
	StartSlot int   `json:"start_slot"`
	Length    int   `json:"length"`
}

// Overlaps reports whether two placements share a day and a slot range.
// A nil placement (arranged hours) never overlaps anything.
func (t *TimePlacement) Overlaps(o *TimePlacement) bool {
	if t == nil || o == nil {
		return false
	}
	if t.Days&o.Days == 0 {
		return false
	}
	return t.StartSlot < o.StartSlot+o.Length && o.StartSlot < t.StartSlot+t.Length
}
