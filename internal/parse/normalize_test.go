package parse

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDigits(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2", 2, true},
		{" 4 ", 4, true},
		{"021", 21, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"2nd", 0, false},
		{"3.0", 0, false},
		{"1,000", 0, false},
		{"١٢", 0, false}, // non-ASCII digits
		{"99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDigits(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"3.50", 3.5, true},
		{"1.25", 1.25, true},
		{"4", 4, true},
		{" 2.0 ", 2, true},
		{"3.", 3, true},
		{".5", 0.5, true},
		{"", 0, false},
		{".", 0, false},
		{"3.5.2", 0, false},
		{"-1.0", 0, false},
		{"1e3", 0, false},
		{"1,000.5", 0, false},
		{"N/A", 0, false},
		{"INC", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDecimal(tt.in)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("well formed row", func(t *testing.T) {
		row := []string{"x", "2023-0001", "Jane Doe", "BSCS", "2", "3.50", "21"}
		got, err := Normalize(row, CategoryDean)
		require.NoError(t, err)
		assert.Equal(t, Record{
			StudentID: "2023-0001",
			FullName:  "Jane Doe",
			Course:    "BSCS",
			YearLevel: 2,
			GPA:       3.50,
			Units:     21,
			AwardType: CategoryDean,
		}, got)
	})

	t.Run("text fields are trimmed", func(t *testing.T) {
		row := []string{"", " 2023-0002 ", "  Juan Dela Cruz ", " BSIT\t", "1", "1.5", "18"}
		got, err := Normalize(row, CategoryRizal)
		require.NoError(t, err)
		assert.Equal(t, "2023-0002", got.StudentID)
		assert.Equal(t, "Juan Dela Cruz", got.FullName)
		assert.Equal(t, "BSIT", got.Course)
	})

	t.Run("bad gpa degrades alone", func(t *testing.T) {
		row := []string{"", "2023-0003", "Ana", "BSIS", "3", "3.5.2", "20"}
		got, err := Normalize(row, CategoryChancellor)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.GPA)
		assert.Equal(t, 3, got.YearLevel)
		assert.Equal(t, 20, got.Units)
		assert.Equal(t, "Ana", got.FullName)
	})

	t.Run("every numeric field malformed", func(t *testing.T) {
		row := []string{"", "2023-0004", "Ben", "BSCA", "IV", "-", "twenty"}
		got, err := Normalize(row, CategoryRizal)
		require.NoError(t, err)
		assert.Zero(t, got.YearLevel)
		assert.Zero(t, got.Units)
		assert.False(t, math.Signbit(got.GPA))
		assert.Zero(t, got.GPA)
	})

	t.Run("extra columns ignored", func(t *testing.T) {
		row := []string{"", "2023-0005", "Cy", "BSCS", "4", "1.0", "21", "remarks"}
		got, err := Normalize(row, CategoryDean)
		require.NoError(t, err)
		assert.Equal(t, 21, got.Units)
	})

	t.Run("short row", func(t *testing.T) {
		row := []string{"", "2023-0006", "Dee", "BSCS"}
		_, err := Normalize(row, CategoryDean)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrShortRow))
		assert.Contains(t, err.Error(), "got 4")
	})
}
