package parse

import (
	"regexp"
	"strings"
)

// studentIDPattern is anchored at the start only; "2023-0001x" still counts.
var studentIDPattern = regexp.MustCompile(`^\d{4}-\d{4}`)

// Kind is the outcome of classifying one row.
type Kind int

const (
	KindSkip Kind = iota
	KindHeader
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindData:
		return "data"
	default:
		return "skip"
	}
}

// Classification is the result of Classify.
// Category is only set for KindHeader.
type Classification struct {
	Kind     Kind
	Category Category
}

// Classify decides whether row is a section header, a data candidate or noise.
//
// Header detection runs first and wins: a row mentioning the marker and a
// category keyword is a header even if column 1 holds a valid student id.
func (r Rules) Classify(row []string) Classification {
	if cat, ok := r.headerCategory(row); ok {
		return Classification{Kind: KindHeader, Category: cat}
	}
	if IsStudentID(cell(row, ColStudentID)) {
		return Classification{Kind: KindData}
	}
	return Classification{Kind: KindSkip}
}

func (r Rules) headerCategory(row []string) (Category, bool) {
	if r.Marker == "" {
		return "", false
	}
	text := strings.ToUpper(strings.Join(row, " "))
	if !strings.Contains(text, strings.ToUpper(r.Marker)) {
		return "", false
	}
	for _, rule := range r.Categories {
		if rule.Keyword != "" && strings.Contains(text, strings.ToUpper(rule.Keyword)) {
			return rule.Category, true
		}
	}
	return "", false
}

// IsStudentID reports whether the trimmed value starts with a NNNN-NNNN id.
func IsStudentID(s string) bool {
	return studentIDPattern.MatchString(strings.TrimSpace(s))
}

// cell returns row[i], or "" when the row is too short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
