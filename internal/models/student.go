package models

// Student represents a registrant allowed to use the lab.
type Student struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	RegNo      string `db:"reg_no" json:"reg_no"`
	Department string `db:"dept" json:"dept"`
}
