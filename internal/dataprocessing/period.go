package dataprocessing

import (
	"regexp"
	"strings"

	apperrors "hpvload/internal/errors"
)

var periodTextPattern = regexp.MustCompile(`([A-Za-z]+ \d{4} to [A-Za-z]+ \d{4})`)

// Period is the reporting period parsed from a release's metadata cell
type Period struct {
	End  string  // trailing token of the metadata phrase
	Text *string // "Month YYYY to Month YYYY", nil when the phrase is absent
}

// ParsePeriod extracts the reporting period from the metadata cell text.
// A missing end token is a parse error; a missing phrase only leaves Text nil.
func ParsePeriod(cell string) (Period, error) {
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return Period{}, apperrors.NewParsingError("metadata cell is empty, no period end token", nil)
	}

	p := Period{End: fields[len(fields)-1]}
	if m := periodTextPattern.FindStringSubmatch(cell); m != nil {
		text := m[1]
		p.Text = &text
	}
	return p, nil
}
