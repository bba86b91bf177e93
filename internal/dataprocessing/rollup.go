package dataprocessing

import (
	"time"

	"hpvload/pkg/contracts/domain"
)

type rollupKey struct {
	region    string
	yearGroup string
	gender    domain.Gender
	periodEnd string
	hasText   bool
	text      string
	extract   time.Time
}

func keyOf(r domain.FactRow) rollupKey {
	k := rollupKey{
		region:    r.Region,
		yearGroup: r.YearGroup,
		gender:    r.Gender,
		periodEnd: r.PeriodEnd,
		extract:   r.ExtractDate,
	}
	if r.PeriodText != nil {
		k.hasText = true
		k.text = *r.PeriodText
	}
	return k
}

// rollup sums rows sharing a key after collapse rewrites the aggregated
// dimension. Groups are emitted in first-seen order.
func rollup(rows []domain.FactRow, skip func(domain.FactRow) bool, collapse func(*rollupKey)) []domain.FactRow {
	groups := make(map[rollupKey]*domain.FactRow)
	var order []rollupKey

	for _, r := range rows {
		if skip(r) {
			continue
		}
		k := keyOf(r)
		collapse(&k)

		g, ok := groups[k]
		if !ok {
			g = &domain.FactRow{
				Region:      k.region,
				YearGroup:   k.yearGroup,
				Gender:      k.gender,
				Total:       domain.NewCount(0),
				Vaccinated:  domain.NewCount(0),
				PeriodEnd:   k.periodEnd,
				PeriodText:  r.PeriodText,
				ExtractDate: k.extract,
			}
			groups[k] = g
			order = append(order, k)
		}
		g.Total = g.Total.Add(r.Total)
		g.Vaccinated = g.Vaccinated.Add(r.Vaccinated)
	}

	out := make([]domain.FactRow, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out
}

// RollupGenders returns one Both row per (region, year group, period) summing
// the Male and Female rows. Null measures count as zero.
func RollupGenders(rows []domain.FactRow) []domain.FactRow {
	return rollup(rows,
		func(r domain.FactRow) bool { return r.Gender == domain.GenderBoth || r.YearGroup == domain.YearGroupAll },
		func(k *rollupKey) { k.gender = domain.GenderBoth },
	)
}

// RollupYears returns one All row per (region, gender, period) summing every
// explicit year group, including Both rows already present in rows.
func RollupYears(rows []domain.FactRow) []domain.FactRow {
	return rollup(rows,
		func(r domain.FactRow) bool { return r.YearGroup == domain.YearGroupAll },
		func(k *rollupKey) { k.yearGroup = domain.YearGroupAll },
	)
}
