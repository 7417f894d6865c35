package parse

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// largeTable builds a listing with the given number of data rows spread over
// the three award sections.
func largeTable(rows int) [][]string {
	sections := []string{"CHANCELLOR'S LISTER", "DEAN'S LISTER", "RIZAL LISTER"}
	table := make([][]string, 0, rows+len(sections)+1)
	table = append(table, []string{"COLLEGE OF COMPUTER STUDIES", "", "", "", "", "", ""})
	per := rows / len(sections)
	for s, label := range sections {
		table = append(table, []string{label, "", "", "", "", "", ""})
		for i := 0; i < per; i++ {
			n := s*per + i
			table = append(table, []string{
				fmt.Sprint(i + 1),
				fmt.Sprintf("20%02d-%04d", 20+n%4, n),
				fmt.Sprintf("Student %d", n),
				[]string{"BSCS", "BSIT", "BSIS", "BSCA"}[n%4],
				fmt.Sprint(n%4 + 1),
				fmt.Sprintf("1.%02d", n%75),
				"21",
			})
		}
	}
	return table
}

// ============================================================================
// Classification Benchmarks
// ============================================================================

// BenchmarkClassify benchmarks row classification.
// Every data row goes through this, so it dominates ingestion cost.
func BenchmarkClassify(b *testing.B) {
	rules := DefaultRules()
	tests := []struct {
		name string
		row  []string
	}{
		{"data", []string{"1", "2023-0001", "Alpha", "BSCS", "1", "1.10", "21"}},
		{"header", []string{"DEAN'S LISTER", "", "", "", "", "", ""}},
		{"noise", []string{"No.", "Student No.", "Name", "Course", "Year", "GWA", "Units"}},
		{"empty", make([]string, 7)},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				rules.Classify(tt.row)
			}
		})
	}
}

// BenchmarkIsStudentID benchmarks the student id check.
func BenchmarkIsStudentID(b *testing.B) {
	ids := []string{"2023-0001", " 2023-0001 ", "2023-001", "Student No."}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, id := range ids {
			IsStudentID(id)
		}
	}
}

// ============================================================================
// Normalization Benchmarks
// ============================================================================

// BenchmarkNormalize benchmarks record extraction from a data row.
func BenchmarkNormalize(b *testing.B) {
	row := []string{"1", "2023-0001", " Alpha, A ", "BSCS", "1", "1.10", "21"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Normalize(row, CategoryDean)
	}
}

// BenchmarkParseDecimal benchmarks GPA parsing.
func BenchmarkParseDecimal(b *testing.B) {
	values := []string{"1.10", "4", ".5", "3.5.2", "1,000"}

	for _, v := range values {
		b.Run(v, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				ParseDecimal(v)
			}
		})
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkIngest benchmarks the full ingestion fold at several sizes.
func BenchmarkIngest(b *testing.B) {
	rules := DefaultRules()
	for _, size := range []int{100, 1000, 10000} {
		table := largeTable(size)
		b.Run(fmt.Sprint(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Ingest(table, rules)
			}
		})
	}
}

// ============================================================================
// Input Benchmarks
// ============================================================================

// BenchmarkReadCSV benchmarks reading a listing into a table.
func BenchmarkReadCSV(b *testing.B) {
	var buf bytes.Buffer
	for _, row := range largeTable(5000) {
		buf.WriteString(strings.Join(row, ","))
		buf.WriteByte('\n')
	}
	data := buf.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadCSV(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecodeText benchmarks the encoding check on already valid input.
func BenchmarkDecodeText(b *testing.B) {
	data := bytes.Repeat([]byte("1,2023-0001,Alpha,BSCS,1,1.10,21\n"), 1000)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DecodeText(data)
	}
}
