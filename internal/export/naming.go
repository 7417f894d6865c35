package export

import (
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/lister/internal/store"
)

// MaxListedValues is the most selected values a file name lists before the
// dimension is labeled "Mixed".
const MaxListedValues = 3

// Label names one filter dimension in an export file name: "All" when the
// selection is exactly the set of available options (or is empty, which
// applies no restriction), "Mixed" when more than MaxListedValues are
// selected, and the values joined with "-" otherwise. Repeated values count once.
func Label(selected, available []string, prefix string) string {
	selected = distinct(selected)
	if len(selected) == 0 || sameSet(selected, available) {
		return "All"
	}
	if len(selected) > MaxListedValues {
		return "Mixed"
	}
	return prefix + strings.Join(selected, "-")
}

func distinct(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// sameSet reports whether a, which holds no duplicates, and b contain the
// same values.
func sameSet(a, b []string) bool {
	if len(a) != len(distinct(b)) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}

// FileName derives the download name of a filtered export, e.g.
// "Y1-2_All_Dean.csv".
func FileName(f store.Filter, opts store.Options) string {
	return Label(itoas(f.Years), itoas(opts.Years), "Y") + "_" +
		Label(f.Courses, opts.Courses, "") + "_" +
		Label(f.Awards, opts.Awards, "") + ".csv"
}

func itoas(vals []int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}
	return out
}
