package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// StandardMetadata is the top-left cell of a typical release
const StandardMetadata = "HPV vaccination coverage in adolescents in England: academic year September 2022 to August 2023"

// StandardHeaders mirror the local authority table of a published release,
// including the percentage and second-dose columns the pipeline drops.
var StandardHeaders = []string{
	"Local authority",
	"Number of females in Year 8 cohort",
	"Number of females vaccinated in Year 8 with at least one dose",
	"% of females vaccinated in Year 8 with at least one dose",
	"Number of males in Year 8 cohort",
	"Number of males vaccinated in Year 8 with at least one dose",
	"Number of females vaccinated in Year 8 with 2 doses",
	"Number of females in Year 9 cohort",
	"Number of females vaccinated in Year 9 with at least one dose",
	"Number of males in Year 9 cohort",
	"Number of males vaccinated in Year 9 with at least one dose",
}

// StandardRows holds two regions; Camden's Year 8 male vaccinated count is
// suppressed and the trailing footnote row carries no measures.
var StandardRows = [][]interface{}{
	{"  barking and dagenham ", 1000, 800, 80.0, 1100, 700, 600, 950, 900, 1000, 850},
	{"CAMDEN", 500, 400, 80.0, 520, "*", 300, 480, 450, 510, 400},
	{"Source: UKHSA"},
}

// Release describes a workbook fixture
type Release struct {
	Sheet    string // defaults to Local_authority
	Metadata string
	Banner   string // row 2
	Headers  []string
	Rows     [][]interface{}
}

// StandardRelease returns the fixture most tests start from
func StandardRelease() Release {
	return Release{
		Metadata: StandardMetadata,
		Banner:   "Table 1: local authority coverage",
		Headers:  StandardHeaders,
		Rows:     StandardRows,
	}
}

// WriteRelease saves r as an xlsx workbook in dir and returns its path.
// The metadata goes in A1, the headers in row 3 and the body from row 4.
func WriteRelease(t *testing.T, dir, name string, r Release) string {
	t.Helper()

	sheet := r.Sheet
	if sheet == "" {
		sheet = "Local_authority"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if r.Metadata != "" {
		if err := f.SetCellValue(sheet, "A1", r.Metadata); err != nil {
			t.Fatalf("set metadata: %v", err)
		}
	}
	if r.Banner != "" {
		if err := f.SetCellValue(sheet, "A2", r.Banner); err != nil {
			t.Fatalf("set banner: %v", err)
		}
	}

	headers := make([]interface{}, len(r.Headers))
	for i, h := range r.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A3", &headers); err != nil {
		t.Fatalf("set headers: %v", err)
	}

	for i, row := range r.Rows {
		cell, err := excelize.CoordinatesToCellName(1, 4+i)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
