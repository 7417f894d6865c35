package parse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrShortRow is returned by Normalize when a data row lacks the fixed columns.
var ErrShortRow = errors.New("row too short")

// Normalize extracts a Record from a data row.
//
// Numeric fields degrade independently: a malformed year, gpa or units value
// becomes 0 without affecting the other fields. The only error is a row too
// short to hold every fixed column.
func Normalize(row []string, category Category) (Record, error) {
	if len(row) < MinDataColumns {
		return Record{}, fmt.Errorf("%w: expected %d columns, got %d", ErrShortRow, MinDataColumns, len(row))
	}

	year, _ := ParseDigits(row[ColYearLevel])
	gpa, _ := ParseDecimal(row[ColGPA])
	units, _ := ParseDigits(row[ColUnits])

	return Record{
		StudentID: strings.TrimSpace(row[ColStudentID]),
		FullName:  strings.TrimSpace(row[ColFullName]),
		Course:    strings.TrimSpace(row[ColCourse]),
		YearLevel: year,
		GPA:       gpa,
		Units:     units,
		AwardType: category,
	}, nil
}

// ParseDigits parses a trimmed, digits-only value as an int.
// Signs, separators, decimals and values that overflow int yield (0, false).
func ParseDigits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDecimal parses a trimmed value of digits with at most one '.'.
// "3.50", "4", "3." and ".5" are accepted; "-1", "3.5.2", "1e3" and "1,000"
// yield (0, false).
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !isDigits(strings.Replace(s, ".", "", 1)) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// isDigits reports whether s is non-empty and made only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
