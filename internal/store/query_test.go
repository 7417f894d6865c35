package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuery(t *testing.T) {
	const base = "SELECT id, student_id, fullname, course, year_level, gpa, units, award_type FROM scholars"
	const order = " ORDER BY award_type, year_level, course, fullname, id"

	tests := []struct {
		name     string
		filter   Filter
		ph       Placeholder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty filter selects everything",
			filter:  Filter{},
			ph:      Question,
			wantSQL: base + order,
		},
		{
			name:     "single dimension",
			filter:   Filter{Courses: []string{"BSCS", "BSIT"}},
			ph:       Question,
			wantSQL:  base + " WHERE course IN (?, ?)" + order,
			wantArgs: []any{"BSCS", "BSIT"},
		},
		{
			name: "all dimensions with dollar placeholders",
			filter: Filter{
				Years:   []int{1, 3},
				Courses: []string{"BSCA"},
				Awards:  []string{"Dean", "Rizal"},
			},
			ph:       Dollar,
			wantSQL:  base + " WHERE year_level IN ($1, $2) AND course IN ($3) AND award_type IN ($4, $5)" + order,
			wantArgs: []any{1, 3, "BSCA", "Dean", "Rizal"},
		},
		{
			name:     "values trimmed",
			filter:   Filter{Awards: []string{" Dean "}},
			ph:       Dollar,
			wantSQL:  base + " WHERE award_type IN ($1)" + order,
			wantArgs: []any{"Dean"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := BuildQuery(tt.filter, tt.ph)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterIsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.True(t, Filter{Years: []int{}}.IsEmpty())
	assert.False(t, Filter{Years: []int{2}}.IsEmpty())
	assert.False(t, Filter{Awards: []string{"Dean"}}.IsEmpty())
}
