// Package export serializes scholar records to CSV: single filtered exports
// and the batch of one file per (year, course, award) cell packaged as a ZIP.
package export

import (
	"fmt"

	"github.com/JonMunkholm/lister/internal/parse"
)

// Matrix is the cross product of dimension values the batch export covers.
type Matrix struct {
	Years   []int
	Courses []string
	Awards  []parse.Category
}

// DefaultMatrix returns the 4 × 4 × 3 batch matrix.
func DefaultMatrix() Matrix {
	return Matrix{
		Years:   []int{1, 2, 3, 4},
		Courses: []string{"BSIT", "BSCS", "BSIS", "BSCA"},
		Awards:  []parse.Category{parse.CategoryRizal, parse.CategoryChancellor, parse.CategoryDean},
	}
}

// Cell is one (year, course, award) combination.
type Cell struct {
	Year   int
	Course string
	Award  parse.Category
}

// FileName returns the archive entry name, e.g. "Y2_BSCS_Dean.csv".
func (c Cell) FileName() string {
	return fmt.Sprintf("Y%d_%s_%s.csv", c.Year, c.Course, c.Award)
}

// Size returns the number of cells.
func (m Matrix) Size() int {
	return len(m.Years) * len(m.Courses) * len(m.Awards)
}

// Cells enumerates the matrix with years outermost and awards innermost.
func (m Matrix) Cells() []Cell {
	cells := make([]Cell, 0, m.Size())
	for _, y := range m.Years {
		for _, c := range m.Courses {
			for _, a := range m.Awards {
				cells = append(cells, Cell{Year: y, Course: c, Award: a})
			}
		}
	}
	return cells
}

// Validate rejects empty dimensions and duplicate values, either of which
// would make archive entry names collide or the batch empty.
func (m Matrix) Validate() error {
	if len(m.Years) == 0 || len(m.Courses) == 0 || len(m.Awards) == 0 {
		return fmt.Errorf("batch matrix has an empty dimension (years=%d courses=%d awards=%d)",
			len(m.Years), len(m.Courses), len(m.Awards))
	}
	if d, ok := firstDuplicate(m.Years); ok {
		return fmt.Errorf("batch matrix: duplicate year %d", d)
	}
	if d, ok := firstDuplicate(m.Courses); ok {
		return fmt.Errorf("batch matrix: duplicate course %q", d)
	}
	if d, ok := firstDuplicate(m.Awards); ok {
		return fmt.Errorf("batch matrix: duplicate award %q", d)
	}
	return nil
}

func firstDuplicate[T comparable](vals []T) (T, bool) {
	seen := make(map[T]struct{}, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	var zero T
	return zero, false
}
