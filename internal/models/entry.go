package models

// Entry records one visit to the lab. TimeOut stays nil while the
// student is inside; such entries are "open".
type Entry struct {
	ID        int64   `db:"id" json:"id"`
	StudentID int64   `db:"student_id" json:"student_id"`
	LabName   string  `db:"lab_name" json:"lab_name"`
	SystemNo  string  `db:"system_no" json:"system_no"`
	TimeIn    string  `db:"time_in" json:"time_in"`
	TimeOut   *string `db:"time_out" json:"time_out,omitempty"`
	Date      string  `db:"date" json:"date"`
}

// EntryDetail joins an entry with its student for listings and export.
type EntryDetail struct {
	Entry
	StudentName string `db:"student_name" json:"student_name"`
	RegNo       string `db:"reg_no" json:"reg_no"`
	Department  string `db:"dept" json:"dept"`
}

// EntryFilter bounds admin listings and exports. A zero Limit means
// unbounded; an empty Date means all dates.
type EntryFilter struct {
	Date  string
	Limit int
}

// Occupancy describes a live seat: who currently holds which workstation.
type Occupancy struct {
	EntryID     int64  `db:"entry_id"`
	StudentID   int64  `db:"student_id"`
	StudentName string `db:"student_name"`
	SystemNo    string `db:"system_no"`
}

// CheckInConflictKind discriminates why a check-in was refused.
type CheckInConflictKind int

const (
	ConflictWorkstation CheckInConflictKind = iota + 1
	ConflictStudentInside
)

// CheckInConflict reports the live occupancy that blocked a check-in.
type CheckInConflict struct {
	Kind     CheckInConflictKind
	Occupant Occupancy
}
