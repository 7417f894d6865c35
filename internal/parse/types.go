// Package parse turns a sectioned scholar listing into normalized records.
//
// The listing has no header row. Section rows such as "DEAN'S LISTER" switch
// the award category that every following data row inherits, and data rows
// are recognized by the student id in column 1. Classification, field
// normalization and the ingestion fold are pure functions over [][]string;
// reading the table from CSV or XLSX lives in table.go.
package parse

import "fmt"

// Category is the award label a record is filed under.
type Category string

const (
	CategoryRizal      Category = "Rizal"
	CategoryChancellor Category = "Chancellor"
	CategoryDean       Category = "Dean"
)

// Fixed column positions of a data row (0-indexed). Column 0 is unused.
const (
	ColStudentID = 1
	ColFullName  = 2
	ColCourse    = 3
	ColYearLevel = 4
	ColGPA       = 5
	ColUnits     = 6

	// MinDataColumns is the narrowest row the normalizer can read.
	MinDataColumns = ColUnits + 1
)

// Record is one normalized scholar row.
// ID is assigned by the record store and is zero until the record is stored.
type Record struct {
	ID        int64    `db:"id" json:"id,omitempty"`
	StudentID string   `db:"student_id" json:"student_id"`
	FullName  string   `db:"fullname" json:"fullname"`
	Course    string   `db:"course" json:"course"`
	YearLevel int      `db:"year_level" json:"year_level"`
	GPA       float64  `db:"gpa" json:"gpa"`
	Units     int      `db:"units" json:"units"`
	AwardType Category `db:"award_type" json:"award_type"`
}

// Anomaly records a data row that could not be normalized.
// Row is the 0-indexed position of the row in the input table.
type Anomaly struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("Error parsing row %d: %s", a.Row, a.Reason)
}

// CategoryRule binds a header keyword to the category it selects.
type CategoryRule struct {
	Category Category
	Keyword  string
}

// Rules holds the header vocabulary used by the classifier.
//
// Categories are checked in slice order; the first keyword found alongside
// Marker wins.
type Rules struct {
	Marker     string
	Categories []CategoryRule
	Default    Category
}

// DefaultRules returns the built-in vocabulary: marker "LISTER" and the
// Chancellor, Dean, Rizal keywords in that priority, defaulting to Rizal.
func DefaultRules() Rules {
	return Rules{
		Marker: "LISTER",
		Categories: []CategoryRule{
			{Category: CategoryChancellor, Keyword: "CHANCELLOR"},
			{Category: CategoryDean, Keyword: "DEAN"},
			{Category: CategoryRizal, Keyword: "RIZAL"},
		},
		Default: CategoryRizal,
	}
}

// Labels returns the category labels in priority order.
func (r Rules) Labels() []Category {
	out := make([]Category, len(r.Categories))
	for i, c := range r.Categories {
		out[i] = c.Category
	}
	return out
}
