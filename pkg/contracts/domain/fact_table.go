package domain

import (
	"fmt"
	"strings"
)

// Columns names the output columns of the fact table
type Columns struct {
	Region      string
	YearGroup   string
	Gender      string
	Total       string
	Vaccinated  string
	PeriodEnd   string
	PeriodText  string
	ExtractDate string
}

// Naming convention identifiers
const (
	NamingAcademic = "academic"
	NamingGeneric  = "generic"
)

// AcademicColumns is the naming used by the borough HPV warehouse table
var AcademicColumns = Columns{
	Region:      "Borough_Name",
	YearGroup:   "Year_Group_Number",
	Gender:      "Gender_Name",
	Total:       "Students_Total",
	Vaccinated:  "Students_Vaccinated",
	PeriodEnd:   "Academic_Year_End_Date",
	PeriodText:  "Academic_Year_Text",
	ExtractDate: "Date_Extract",
}

// GenericColumns is a region-neutral naming for other destinations
var GenericColumns = Columns{
	Region:      "Region_Name",
	YearGroup:   "Year_Group",
	Gender:      "Gender",
	Total:       "Cohort_Total",
	Vaccinated:  "Vaccinated_Total",
	PeriodEnd:   "Period_End",
	PeriodText:  "Period_Text",
	ExtractDate: "Extract_Date",
}

// ColumnsFor returns the naming convention registered under name
func ColumnsFor(name string) (Columns, error) {
	switch strings.ToLower(name) {
	case "", NamingAcademic:
		return AcademicColumns, nil
	case NamingGeneric:
		return GenericColumns, nil
	}
	return Columns{}, fmt.Errorf("unknown naming convention %q", name)
}

// Names returns the column names upper-cased, in table order
func (c Columns) Names() []string {
	names := []string{
		c.Region, c.YearGroup, c.Gender, c.Total,
		c.Vaccinated, c.PeriodEnd, c.PeriodText, c.ExtractDate,
	}
	for i, n := range names {
		names[i] = strings.ToUpper(n)
	}
	return names
}

// FactTable is the final dataset handed from the transformer to the loader
type FactTable struct {
	Columns Columns
	Rows    []FactRow
}

// Header returns the warehouse column names
func (t *FactTable) Header() []string {
	return t.Columns.Names()
}

// Len returns the number of rows
func (t *FactTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Values returns a row's values in Header order, with nil for absent measures
func (t *FactTable) Values(r FactRow) []any {
	var periodText any
	if r.PeriodText != nil {
		periodText = *r.PeriodText
	}
	var total, vaccinated any
	if r.Total.Valid {
		total = r.Total.Value
	}
	if r.Vaccinated.Valid {
		vaccinated = r.Vaccinated.Value
	}
	return []any{
		r.Region,
		r.YearGroup,
		string(r.Gender),
		total,
		vaccinated,
		r.PeriodEnd,
		periodText,
		r.ExtractDate.Format("2006-01-02"),
	}
}

// Record renders a row as strings in Header order, empty for null
func (t *FactTable) Record(r FactRow) []string {
	return []string{
		r.Region,
		r.YearGroup,
		string(r.Gender),
		r.Total.String(),
		r.Vaccinated.String(),
		r.PeriodEnd,
		r.PeriodTextValue(),
		r.ExtractDate.Format("2006-01-02"),
	}
}
