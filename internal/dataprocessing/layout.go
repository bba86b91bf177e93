package dataprocessing

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "hpvload/internal/errors"
	"hpvload/pkg/contracts/domain"
)

var (
	yearGroupPattern = regexp.MustCompile(`\d+`)
	wordPattern      = regexp.MustCompile(`[a-z]+`)
)

// ColumnRule maps a family of source column names to a gender and metric.
// A header matches when it contains every word in AllOf, at least one word in
// AnyOf and no word in NoneOf. Words are compared lower-cased and whole.
type ColumnRule struct {
	Name   string
	AnyOf  []string
	AllOf  []string
	NoneOf []string
	Gender domain.Gender
	Metric domain.Metric
}

func (r ColumnRule) matches(words map[string]bool) bool {
	for _, w := range r.AllOf {
		if !words[w] {
			return false
		}
	}
	for _, w := range r.NoneOf {
		if words[w] {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, w := range r.AnyOf {
		if words[w] {
			return true
		}
	}
	return false
}

var (
	femaleWords = []string{"female", "females", "girls"}
	maleWords   = []string{"male", "males", "boys"}
)

// DefaultRules recognizes the cohort and first-dose columns of the published releases
var DefaultRules = []ColumnRule{
	{
		Name:   "female vaccinated",
		AnyOf:  femaleWords,
		AllOf:  []string{"vaccinated"},
		Gender: domain.GenderFemale,
		Metric: domain.MetricVaccinated,
	},
	{
		Name:   "female cohort",
		AnyOf:  femaleWords,
		NoneOf: []string{"vaccinated"},
		Gender: domain.GenderFemale,
		Metric: domain.MetricTotal,
	},
	{
		Name:   "male vaccinated",
		AnyOf:  maleWords,
		AllOf:  []string{"vaccinated"},
		NoneOf: femaleWords,
		Gender: domain.GenderMale,
		Metric: domain.MetricVaccinated,
	},
	{
		Name:   "male cohort",
		AnyOf:  maleWords,
		NoneOf: append([]string{"vaccinated"}, femaleWords...),
		Gender: domain.GenderMale,
		Metric: domain.MetricTotal,
	},
}

// ColumnSpec is a classified source column
type ColumnSpec struct {
	Index     int
	Header    string
	YearGroup string
	Gender    domain.Gender
	Metric    domain.Metric
}

// SheetLayout is the result of classifying a header row
type SheetLayout struct {
	RegionIndex int
	Columns     []ColumnSpec
	Excluded    []string
	Ignored     []int // blank header positions
}

// Layout classifies source headers into (year group, gender, metric) columns
type Layout struct {
	RegionColumn string
	Rules        []ColumnRule
	Exclusions   []string
	legacy       bool
}

// NewLayout returns the layout for the named classifier
func NewLayout(classifier, regionColumn string) (*Layout, error) {
	l := &Layout{
		RegionColumn: regionColumn,
		Rules:        DefaultRules,
		Exclusions:   []string{"%", "2 doses"},
	}
	switch strings.ToLower(classifier) {
	case "", ClassifierStrict:
	case ClassifierLegacy:
		l.legacy = true
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown classifier %q", classifier), nil)
	}
	return l, nil
}

// Classify validates every header up front. Excluded columns are recorded and
// skipped. Under the strict classifier a header no rule recognizes is a schema
// error; the legacy classifier defaults such headers to Male / Number.
func (l *Layout) Classify(headers []string) (*SheetLayout, error) {
	out := &SheetLayout{RegionIndex: -1}

	for i, raw := range headers {
		header := strings.TrimSpace(raw)
		switch {
		case header == "":
			out.Ignored = append(out.Ignored, i)
			continue
		case strings.EqualFold(header, strings.TrimSpace(l.RegionColumn)):
			if out.RegionIndex >= 0 {
				return nil, apperrors.NewSchemaError(fmt.Sprintf("region column %q appears more than once", l.RegionColumn), nil)
			}
			out.RegionIndex = i
			continue
		case l.excluded(header):
			out.Excluded = append(out.Excluded, header)
			continue
		}

		spec, err := l.classify(header)
		if err != nil {
			return nil, err
		}
		spec.Index = i
		out.Columns = append(out.Columns, spec)
	}

	if out.RegionIndex < 0 {
		return nil, apperrors.NewSchemaError(fmt.Sprintf("region column %q not found", l.RegionColumn), nil).
			WithContext("headers", headers)
	}
	if len(out.Columns) == 0 {
		return nil, apperrors.NewSchemaError("no measure columns found", nil)
	}

	return out, nil
}

func (l *Layout) excluded(header string) bool {
	for _, token := range l.Exclusions {
		if strings.Contains(header, token) {
			return true
		}
	}
	return false
}

func (l *Layout) classify(header string) (ColumnSpec, error) {
	year := yearGroupPattern.FindString(header)
	if year == "" {
		return ColumnSpec{}, apperrors.NewSchemaError(fmt.Sprintf("column %q has no year group", header), nil)
	}

	if l.legacy {
		spec := ColumnSpec{Header: header, YearGroup: year, Gender: domain.GenderMale, Metric: domain.MetricTotal}
		if strings.Contains(header, "females") {
			spec.Gender = domain.GenderFemale
		}
		if strings.Contains(strings.ToLower(header), "vaccinated") {
			spec.Metric = domain.MetricVaccinated
		}
		return spec, nil
	}

	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(header), -1) {
		words[w] = true
	}
	for _, rule := range l.Rules {
		if rule.matches(words) {
			return ColumnSpec{Header: header, YearGroup: year, Gender: rule.Gender, Metric: rule.Metric}, nil
		}
	}

	return ColumnSpec{}, apperrors.NewSchemaError(fmt.Sprintf("unrecognized column %q", header), nil)
}
