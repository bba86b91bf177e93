package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Gender is the gender dimension of a fact row
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderBoth   Gender = "Both"
)

// Metric identifies which measure a source column carries
type Metric string

const (
	MetricTotal      Metric = "Number"
	MetricVaccinated Metric = "Number_Vaccinated"
)

// YearGroupAll is the year group of the cross-year rollup rows
const YearGroupAll = "All"

// Count is a nullable cohort count. The zero value is null.
type Count struct {
	Value int64 `json:"value"`
	Valid bool  `json:"valid"`
}

// NewCount returns a present count
func NewCount(v int64) Count {
	return Count{Value: v, Valid: true}
}

// NullCount returns an absent count
func NullCount() Count {
	return Count{}
}

// Add sums two counts treating null as zero. The result is always present.
func (c Count) Add(o Count) Count {
	var sum int64
	if c.Valid {
		sum += c.Value
	}
	if o.Valid {
		sum += o.Value
	}
	return NewCount(sum)
}

// String renders the count, empty when null
func (c Count) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatInt(c.Value, 10)
}

// FactRow is one normalized row of the vaccination fact table
type FactRow struct {
	Region      string    `json:"region"`
	YearGroup   string    `json:"year_group"`
	Gender      Gender    `json:"gender"`
	Total       Count     `json:"total"`
	Vaccinated  Count     `json:"vaccinated"`
	PeriodEnd   string    `json:"period_end"`
	PeriodText  *string   `json:"period_text,omitempty"`
	ExtractDate time.Time `json:"extract_date"`
}

// Complete reports whether both measures are present
func (r FactRow) Complete() bool {
	return r.Total.Valid && r.Vaccinated.Valid
}

// PeriodTextValue returns the period phrase or "" when unset
func (r FactRow) PeriodTextValue() string {
	if r.PeriodText == nil {
		return ""
	}
	return *r.PeriodText
}

// LoadMode selects how the fact table is written to the destination
type LoadMode string

const (
	// LoadModeReplace clears the destination and inserts the dataset in one transaction
	LoadModeReplace LoadMode = "replace"
	// LoadModeAppend inserts the dataset leaving prior rows untouched
	LoadModeAppend LoadMode = "append"
)

// ParseLoadMode parses a load mode name case-insensitively
func ParseLoadMode(s string) (LoadMode, error) {
	switch LoadMode(strings.ToLower(strings.TrimSpace(s))) {
	case LoadModeReplace:
		return LoadModeReplace, nil
	case LoadModeAppend:
		return LoadModeAppend, nil
	}
	return "", fmt.Errorf("unknown load mode %q", s)
}
