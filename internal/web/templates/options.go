// Package templates renders the dashboard HTML as templ components.
package templates

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/store"
)

//go:generate templ generate

// DashboardData is everything the dashboard shows.
type DashboardData struct {
	Summary *core.Summary
	History []store.Run
}

func summaryOf(s *core.Summary) *core.Summary {
	if s == nil {
		return &core.Summary{}
	}
	return s
}

type option struct {
	value string
	label string
}

func intOptions(vals []int, prefix string) []option {
	opts := make([]option, len(vals))
	for i, v := range vals {
		s := strconv.Itoa(v)
		opts[i] = option{value: s, label: prefix + s}
	}
	return opts
}

func stringOptions(vals []string) []option {
	opts := make([]option, len(vals))
	for i, v := range vals {
		opts[i] = option{value: v, label: v}
	}
	return opts
}

func cellAt(row []string, c int) string {
	if c < len(row) {
		return row[c]
	}
	return ""
}

func rawPageURL(page int) templ.SafeURL {
	return templ.SafeURL("/raw?page=" + strconv.Itoa(page))
}
