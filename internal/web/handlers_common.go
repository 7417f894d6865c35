package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/lister/internal/store"
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseFilter reads the year, course and award parameters. Each may repeat
// or hold a comma-separated list; an absent parameter selects every value.
// Year 0 is the level of records whose year could not be read.
func parseFilter(q url.Values) (store.Filter, error) {
	var f store.Filter

	for _, v := range listParam(q, "year") {
		year, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(v), "Y"))
		if err != nil || year < 0 {
			return store.Filter{}, badRequest(fmt.Sprintf("invalid year %q", v))
		}
		f.Years = append(f.Years, year)
	}
	f.Courses = listParam(q, "course")
	f.Awards = listParam(q, "award")

	return f, nil
}

func listParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
