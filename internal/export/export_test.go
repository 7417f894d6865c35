package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

func TestMatrix(t *testing.T) {
	m := DefaultMatrix()
	require.NoError(t, m.Validate())
	assert.Equal(t, 48, m.Size())

	cells := m.Cells()
	require.Len(t, cells, 48)
	assert.Equal(t, "Y1_BSIT_Rizal.csv", cells[0].FileName())
	assert.Equal(t, "Y1_BSIT_Chancellor.csv", cells[1].FileName())
	assert.Equal(t, "Y4_BSCA_Dean.csv", cells[47].FileName())

	names := map[string]bool{}
	for _, c := range cells {
		names[c.FileName()] = true
	}
	assert.Len(t, names, 48)
}

func TestMatrix_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       Matrix
		wantErr string
	}{
		{"empty years", Matrix{Courses: []string{"BSIT"}, Awards: []parse.Category{"Dean"}}, "empty dimension"},
		{"duplicate year", Matrix{Years: []int{1, 1}, Courses: []string{"BSIT"}, Awards: []parse.Category{"Dean"}}, "duplicate year 1"},
		{"duplicate course", Matrix{Years: []int{1}, Courses: []string{"BSIT", "BSIT"}, Awards: []parse.Category{"Dean"}}, "duplicate course"},
		{"duplicate award", Matrix{Years: []int{1}, Courses: []string{"BSIT"}, Awards: []parse.Category{"Dean", "Dean"}}, "duplicate award"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFormatGPA(t *testing.T) {
	tests := map[float64]string{
		3.5:  "3.5",
		1.25: "1.25",
		0:    "0.0",
		4:    "4.0",
		1.1:  "1.1",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatGPA(in), "FormatGPA(%v)", in)
	}
}

func TestWriteCSV(t *testing.T) {
	records := []parse.Record{
		{ID: 7, StudentID: "2023-0001", FullName: "Doe, Jane", Course: "BSCS", YearLevel: 2, GPA: 3.5, Units: 21, AwardType: parse.CategoryDean},
	}

	t.Run("filtered columns", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, records, FilteredColumns))
		assert.Equal(t,
			"student_id,fullname,course,year_level,gpa,award_type\n"+
				"2023-0001,\"Doe, Jane\",BSCS,2,3.5,Dean\n",
			buf.String())
	})

	t.Run("all columns", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, records, AllColumns))
		assert.Equal(t,
			"id,student_id,fullname,course,year_level,gpa,units,award_type\n"+
				"7,2023-0001,\"Doe, Jane\",BSCS,2,3.5,21,Dean\n",
			buf.String())
	})

	t.Run("empty still has header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, nil, AllColumns))
		assert.Equal(t, "id,student_id,fullname,course,year_level,gpa,units,award_type\n", buf.String())
	})
}

func TestLabel(t *testing.T) {
	all := []string{"BSCA", "BSCS", "BSIS", "BSIT"}
	tests := []struct {
		name     string
		selected []string
		prefix   string
		want     string
	}{
		{"every option", all, "", "All"},
		{"nothing selected", nil, "", "All"},
		{"one", []string{"BSCS"}, "", "BSCS"},
		{"three", []string{"BSCA", "BSCS", "BSIT"}, "", "BSCA-BSCS-BSIT"},
		{"prefix", []string{"1", "2"}, "Y", "Y1-2"},
		{"every option reordered", []string{"BSIT", "BSIS", "BSCS", "BSCA"}, "", "All"},
		{"same size with unknown value", []string{"BSCA", "BSCS", "BSIS", "FOO"}, "", "Mixed"},
		{"unknown value", []string{"BSIT", "FOO"}, "", "BSIT-FOO"},
		{"repeated value", []string{"BSIT", "BSIT"}, "", "BSIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.selected, all, tt.prefix))
		})
	}

	five := []string{"a", "b", "c", "d", "e", "f"}
	assert.Equal(t, "Mixed", Label(five[:4], five, ""))

	two := []string{"BSCS", "BSIT"}
	assert.Equal(t, "BSIT-FOO", Label([]string{"BSIT", "FOO"}, two, ""))
	assert.Equal(t, "All", Label([]string{"BSIT", "BSCS"}, two, ""))
}

func TestFileName(t *testing.T) {
	opts := store.Options{
		Years:   []int{1, 2, 3, 4},
		Courses: []string{"BSCA", "BSCS", "BSIS", "BSIT"},
		Awards:  []string{"Chancellor", "Dean", "Rizal"},
	}

	assert.Equal(t, "All_All_All.csv", FileName(store.Filter{}, opts))
	assert.Equal(t, "Y1-2_All_Dean.csv", FileName(store.Filter{
		Years:  []int{1, 2},
		Awards: []string{"Dean"},
	}, opts))
	assert.Equal(t, "Y3_BSIT_Chancellor-Rizal.csv", FileName(store.Filter{
		Years:   []int{3},
		Courses: []string{"BSIT"},
		Awards:  []string{"Chancellor", "Rizal"},
	}, opts))
}

func batchRecords() []parse.Record {
	return []parse.Record{
		{ID: 1, StudentID: "2023-0001", FullName: "Amy", Course: "BSIT", YearLevel: 1, GPA: 1.2, Units: 21, AwardType: parse.CategoryRizal},
		{ID: 2, StudentID: "2023-0002", FullName: "Ben", Course: "BSIT", YearLevel: 1, GPA: 1.3, Units: 21, AwardType: parse.CategoryRizal},
		{ID: 3, StudentID: "2022-0003", FullName: "Cai", Course: "BSCS", YearLevel: 2, GPA: 1.1, Units: 24, AwardType: parse.CategoryDean},
		{ID: 4, StudentID: "2020-0004", FullName: "Dee", Course: "BSCA", YearLevel: 4, GPA: 1.0, Units: 18, AwardType: parse.CategoryChancellor},
	}
}

func readZip(t *testing.T, data []byte) (*zip.Reader, map[string]string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents[f.Name] = string(b)
	}
	return zr, contents
}

func TestWriteBatch(t *testing.T) {
	var buf bytes.Buffer
	rec, err := WriteBatch(context.Background(), &buf, batchRecords(), DefaultMatrix(), 3)
	require.NoError(t, err)

	assert.Equal(t, Reconciliation{Files: 48, Total: 4, Exported: 4, Match: true}, rec)
	assert.Zero(t, rec.Missing())

	zr, contents := readZip(t, buf.Bytes())
	require.Len(t, zr.File, 48)
	assert.Equal(t, "Y1_BSIT_Rizal.csv", zr.File[0].Name)
	assert.Equal(t, "Y4_BSCA_Dean.csv", zr.File[47].Name)

	rows, err := csv.NewReader(strings.NewReader(contents["Y1_BSIT_Rizal.csv"])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "2023-0001", "Amy", "BSIT", "1", "1.2", "21", "Rizal"}, rows[1])
	assert.Equal(t, "Ben", rows[2][2])

	// empty cells are still written, header only
	assert.Equal(t, "id,student_id,fullname,course,year_level,gpa,units,award_type\n", contents["Y3_BSIS_Dean.csv"])

	total := 0
	for _, body := range contents {
		total += strings.Count(body, "\n") - 1
	}
	assert.Equal(t, 4, total)
}

func TestWriteBatch_ObservableMismatch(t *testing.T) {
	records := append(batchRecords(),
		parse.Record{ID: 5, StudentID: "2023-0005", FullName: "Eve", Course: "BSEMC", YearLevel: 1, AwardType: parse.CategoryDean},
		parse.Record{ID: 6, StudentID: "2023-0006", FullName: "Fay", Course: "BSIT", YearLevel: 0, AwardType: parse.CategoryDean},
	)

	var buf bytes.Buffer
	rec, err := WriteBatch(context.Background(), &buf, records, DefaultMatrix(), 0)
	require.NoError(t, err)

	assert.Equal(t, 48, rec.Files)
	assert.Equal(t, int64(6), rec.Total)
	assert.Equal(t, int64(4), rec.Exported)
	assert.False(t, rec.Match)
	assert.Equal(t, int64(2), rec.Missing())
}

func TestWriteBatch_EmptyStore(t *testing.T) {
	var buf bytes.Buffer
	rec, err := WriteBatch(context.Background(), &buf, nil, DefaultMatrix(), 2)
	require.NoError(t, err)
	assert.Equal(t, Reconciliation{Files: 48, Match: true}, rec)

	zr, _ := readZip(t, buf.Bytes())
	assert.Len(t, zr.File, 48)
}

func TestWriteBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := WriteBatch(ctx, &buf, batchRecords(), DefaultMatrix(), 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteBatch_InvalidMatrix(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteBatch(context.Background(), &buf, batchRecords(), Matrix{}, 2)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestPartition(t *testing.T) {
	groups := Partition(batchRecords(), DefaultMatrix())
	assert.Len(t, groups, 3)
	rizal := groups[Cell{Year: 1, Course: "BSIT", Award: parse.CategoryRizal}]
	require.Len(t, rizal, 2)
	assert.Equal(t, "Amy", rizal[0].FullName)
	assert.Equal(t, "Ben", rizal[1].FullName)
}
