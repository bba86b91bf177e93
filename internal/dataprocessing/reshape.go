package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "hpvload/internal/errors"
	"hpvload/pkg/contracts/domain"
)

// Sentinels are the tokens a release uses for suppressed or estimated values
var Sentinels = []string{"*", "[E]", "[DS]"}

// IsSentinel reports whether a trimmed cell is a suppression token
func IsSentinel(cell string) bool {
	cell = strings.TrimSpace(cell)
	for _, s := range Sentinels {
		if cell == s {
			return true
		}
	}
	return false
}

// ParseCount parses a count cell. Blank and sentinel cells are null.
func ParseCount(cell string) (domain.Count, error) {
	s := strings.TrimSpace(cell)
	if s == "" || IsSentinel(s) {
		return domain.NullCount(), nil
	}

	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.NewCount(v), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Count{}, fmt.Errorf("invalid count %q", cell)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return domain.Count{}, fmt.Errorf("count %q is not a whole number", cell)
	}
	return domain.NewCount(int64(f)), nil
}

// Measure is one pivoted measure cell
type Measure struct {
	Count      domain.Count
	Suppressed bool // the source held a sentinel token
	seen       bool
}

// PivotRow is a reshaped row keyed by (region, year group, gender)
type PivotRow struct {
	Region     string
	YearGroup  string
	Gender     domain.Gender
	Total      Measure
	Vaccinated Measure
}

// Keep reports whether the row survives the incomplete-row filter
func (p PivotRow) Keep(keepSuppressed bool) bool {
	if p.Total.Count.Valid && p.Vaccinated.Count.Valid {
		return true
	}
	if !keepSuppressed {
		return false
	}
	ok := func(m Measure) bool { return m.Count.Valid || m.Suppressed }
	return ok(p.Total) && ok(p.Vaccinated)
}

type pivotKey struct {
	region, year string
	gender       domain.Gender
}

// CleanRegion trims and title-cases a region name
func CleanRegion(s string) string {
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Reshape melts the wide sheet into (region, column) cells and pivots them
// back to one row per (region, year group, gender) with two measures.
// Two cells landing on the same key and metric is a schema error.
func Reshape(sheet *SourceSheet, layout *SheetLayout) ([]PivotRow, error) {
	index := make(map[pivotKey]*PivotRow)
	var order []pivotKey

	for r := range sheet.Rows {
		region := CleanRegion(sheet.Cell(r, layout.RegionIndex))
		if region == "" {
			continue
		}

		for _, col := range layout.Columns {
			raw := sheet.Cell(r, col.Index)
			count, err := ParseCount(raw)
			if err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("cell %s", sheet.CellName(r, col.Index)), err).
					WithContext("path", sheet.Path).
					WithContext("column", col.Header)
			}

			key := pivotKey{region: region, year: col.YearGroup, gender: col.Gender}
			row, ok := index[key]
			if !ok {
				row = &PivotRow{Region: region, YearGroup: col.YearGroup, Gender: col.Gender}
				index[key] = row
				order = append(order, key)
			}

			m := &row.Total
			if col.Metric == domain.MetricVaccinated {
				m = &row.Vaccinated
			}
			if m.seen {
				return nil, apperrors.NewSchemaError(
					fmt.Sprintf("duplicate %s value for %s, year %s, %s", col.Metric, region, col.YearGroup, col.Gender), nil).
					WithContext("path", sheet.Path).
					WithContext("cell", sheet.CellName(r, col.Index))
			}
			*m = Measure{Count: count, Suppressed: IsSentinel(raw), seen: true}
		}
	}

	rows := make([]PivotRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *index[key])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.YearGroup != b.YearGroup {
			return yearGroupLess(a.YearGroup, b.YearGroup)
		}
		return a.Gender < b.Gender
	})

	return rows, nil
}

// yearGroupLess orders numeric year groups numerically, "All" last
func yearGroupLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}
