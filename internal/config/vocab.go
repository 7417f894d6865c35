package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/JonMunkholm/lister/internal/export"
	"github.com/JonMunkholm/lister/internal/parse"
)

// VocabEnvPrefix prefixes environment overrides of the vocabulary,
// e.g. LISTER_VOCAB_MARKER or LISTER_VOCAB_COURSES=BSIT,BSCS,BSIS,BSCA.
const VocabEnvPrefix = "LISTER_VOCAB_"

// Required vocabulary sizes. The batch export is always 4 × 4 × 3 cells.
const (
	VocabCategories = 3
	VocabCourses    = 4
	VocabYears      = 4
)

// CategoryEntry binds a category label to its header keyword.
type CategoryEntry struct {
	Label   string `koanf:"label"`
	Keyword string `koanf:"keyword"`
}

// Vocabulary is the header vocabulary and batch matrix.
//
// Categories are listed in classifier priority order; AwardOrder is the order
// awards appear in the batch archive.
type Vocabulary struct {
	Marker     string          `koanf:"marker"`
	Categories []CategoryEntry `koanf:"categories"`
	Default    string          `koanf:"default"`
	AwardOrder []string        `koanf:"award_order"`
	Courses    []string        `koanf:"courses"`
	Years      []int           `koanf:"years"`
}

func vocabDefaults() map[string]any {
	return map[string]any{
		"marker": "LISTER",
		"categories": []any{
			map[string]any{"label": "Chancellor", "keyword": "CHANCELLOR"},
			map[string]any{"label": "Dean", "keyword": "DEAN"},
			map[string]any{"label": "Rizal", "keyword": "RIZAL"},
		},
		"default":     "Rizal",
		"award_order": []any{"Rizal", "Chancellor", "Dean"},
		"courses":     []any{"BSIT", "BSCS", "BSIS", "BSCA"},
		"years":       []any{1, 2, 3, 4},
	}
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	v, err := LoadVocabulary("")
	if err != nil {
		panic(fmt.Sprintf("built-in vocabulary is invalid: %v", err))
	}
	return v
}

// LoadVocabulary loads the vocabulary.
// Precedence (highest to lowest): env vars > file > defaults.
// An empty path skips the file.
func LoadVocabulary(path string) (Vocabulary, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(vocabDefaults(), "."), nil); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to load vocabulary defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Vocabulary{}, fmt.Errorf("error reading vocabulary file %s: %w", path, err)
		}
	}

	// LISTER_VOCAB_AWARD_ORDER=Rizal,Dean,... -> award_order: [Rizal, Dean, ...]
	if err := k.Load(env.ProviderWithValue(VocabEnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, VocabEnvPrefix))
		switch key {
		case "courses", "years", "award_order":
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to load vocabulary env vars: %w", err)
	}
	// The file variable itself is not part of the vocabulary.
	k.Delete("file")

	var v Vocabulary
	if err := k.Unmarshal("", &v); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary: %w", err)
	}
	v.normalize()

	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

func (v *Vocabulary) normalize() {
	v.Marker = strings.TrimSpace(v.Marker)
	v.Default = strings.TrimSpace(v.Default)
	for i := range v.Categories {
		v.Categories[i].Label = strings.TrimSpace(v.Categories[i].Label)
		v.Categories[i].Keyword = strings.TrimSpace(v.Categories[i].Keyword)
	}
	for i := range v.AwardOrder {
		v.AwardOrder[i] = strings.TrimSpace(v.AwardOrder[i])
	}
	for i := range v.Courses {
		v.Courses[i] = strings.TrimSpace(v.Courses[i])
	}
}

// Validate reports every problem with the vocabulary.
func (v Vocabulary) Validate() error {
	var errs []string

	if v.Marker == "" {
		errs = append(errs, "marker must not be empty")
	}
	if len(v.Categories) != VocabCategories {
		errs = append(errs, fmt.Sprintf("categories: want %d, got %d", VocabCategories, len(v.Categories)))
	}
	labels := make([]string, 0, len(v.Categories))
	for i, c := range v.Categories {
		if c.Label == "" || c.Keyword == "" {
			errs = append(errs, fmt.Sprintf("categories[%d]: label and keyword are required", i))
		}
		if slices.Contains(labels, c.Label) {
			errs = append(errs, fmt.Sprintf("categories[%d]: duplicate label %q", i, c.Label))
		}
		labels = append(labels, c.Label)
	}
	if !slices.Contains(labels, v.Default) {
		errs = append(errs, fmt.Sprintf("default %q is not a category label", v.Default))
	}

	order := slices.Clone(v.AwardOrder)
	slices.Sort(order)
	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	if !slices.Equal(order, sorted) {
		errs = append(errs, fmt.Sprintf("award_order %v must list each category label once", v.AwardOrder))
	}

	if len(v.Courses) != VocabCourses {
		errs = append(errs, fmt.Sprintf("courses: want %d, got %d", VocabCourses, len(v.Courses)))
	}
	if len(v.Years) != VocabYears {
		errs = append(errs, fmt.Sprintf("years: want %d, got %d", VocabYears, len(v.Years)))
	}

	if len(errs) == 0 {
		if err := v.Matrix().Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("vocabulary validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Rules returns the classifier rules.
func (v Vocabulary) Rules() parse.Rules {
	rules := parse.Rules{
		Marker:     v.Marker,
		Categories: make([]parse.CategoryRule, len(v.Categories)),
		Default:    parse.Category(v.Default),
	}
	for i, c := range v.Categories {
		rules.Categories[i] = parse.CategoryRule{Category: parse.Category(c.Label), Keyword: c.Keyword}
	}
	return rules
}

// Matrix returns the batch export matrix.
func (v Vocabulary) Matrix() export.Matrix {
	m := export.Matrix{
		Years:   slices.Clone(v.Years),
		Courses: slices.Clone(v.Courses),
		Awards:  make([]parse.Category, len(v.AwardOrder)),
	}
	for i, a := range v.AwardOrder {
		m.Awards[i] = parse.Category(a)
	}
	return m
}

// splitList splits a comma-separated env value, dropping empty items.
func splitList(s string) []any {
	var out []any
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
