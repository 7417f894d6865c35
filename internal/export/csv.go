package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/lister/internal/parse"
)

// Column is one exported CSV column.
type Column struct {
	Name  string
	Value func(parse.Record) string
}

var (
	colID        = Column{"id", func(r parse.Record) string { return strconv.FormatInt(r.ID, 10) }}
	colStudentID = Column{"student_id", func(r parse.Record) string { return r.StudentID }}
	colFullName  = Column{"fullname", func(r parse.Record) string { return r.FullName }}
	colCourse    = Column{"course", func(r parse.Record) string { return r.Course }}
	colYearLevel = Column{"year_level", func(r parse.Record) string { return strconv.Itoa(r.YearLevel) }}
	colGPA       = Column{"gpa", func(r parse.Record) string { return FormatGPA(r.GPA) }}
	colUnits     = Column{"units", func(r parse.Record) string { return strconv.Itoa(r.Units) }}
	colAwardType = Column{"award_type", func(r parse.Record) string { return string(r.AwardType) }}
)

// FilteredColumns is the column set of a single filtered export.
var FilteredColumns = []Column{colStudentID, colFullName, colCourse, colYearLevel, colGPA, colAwardType}

// AllColumns is the full stored record, used for batch cells.
var AllColumns = []Column{colID, colStudentID, colFullName, colCourse, colYearLevel, colGPA, colUnits, colAwardType}

// FormatGPA renders a gpa with the shortest exact representation, always
// keeping a decimal point ("3.5", "1.25", "0.0").
func FormatGPA(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}

// WriteCSV writes a header line followed by one line per record. The header
// is written even when records is empty.
func WriteCSV(w io.Writer, records []parse.Record, cols []Column) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, len(cols))
	for _, r := range records {
		for i, c := range cols {
			line[i] = c.Value(r)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
