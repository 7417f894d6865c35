package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter of a dialect.
type Placeholder func(n int) string

// Question renders SQLite-style "?" placeholders.
func Question(int) string { return "?" }

// Dollar renders PostgreSQL-style "$n" placeholders.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Table is the name of the records table.
const Table = "scholars"

// Columns lists the scholars columns in storage order, id excluded.
var Columns = []string{"student_id", "fullname", "course", "year_level", "gpa", "units", "award_type"}

// OrderBy is the canonical ordering of query results. id breaks ties between
// otherwise identical rows so repeated queries return the same order.
const OrderBy = "award_type, year_level, course, fullname, id"

const selectColumns = "id, student_id, fullname, course, year_level, gpa, units, award_type"

// BuildQuery renders the SELECT for f. Each non-empty dimension becomes an
// IN clause; the clauses are combined with AND.
func BuildQuery(f Filter, ph Placeholder) (string, []any) {
	var (
		where []string
		args  []any
		n     = 1
	)

	if len(f.Years) > 0 {
		vals := make([]any, len(f.Years))
		for i, y := range f.Years {
			vals[i] = y
		}
		clause, next := inClause("year_level", len(vals), n, ph)
		where, args, n = append(where, clause), append(args, vals...), next
	}
	if len(f.Courses) > 0 {
		clause, next := inClause("course", len(f.Courses), n, ph)
		where, args, n = append(where, clause), append(args, stringArgs(f.Courses)...), next
	}
	if len(f.Awards) > 0 {
		clause, _ := inClause("award_type", len(f.Awards), n, ph)
		where, args = append(where, clause), append(args, stringArgs(f.Awards)...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectColumns, Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(OrderBy)
	return b.String(), args
}

// inClause renders "col IN (p1, p2, ...)" starting at placeholder n and
// returns the next free placeholder index.
func inClause(col string, count, n int, ph Placeholder) (string, int) {
	placeholders := make([]string, count)
	for i := range placeholders {
		placeholders[i] = ph(n + i)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), n + count
}

func stringArgs(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
