// Package dataprocessing turns HPV vaccination spreadsheet releases into a
// normalized fact table.
//
// # Architecture
//
// A release is processed in four steps:
//
// 1. Workbook: ReadWorkbook reads the local authority sheet, the header row at a
// fixed offset and the metadata cell holding the reporting period
// 2. Layout: Classify maps every header to a (year group, gender, metric) column
// through declarative ColumnRules, dropping percentage and second-dose columns
// 3. Reshape: the wide sheet is melted and pivoted to one row per
// (region, year group, gender) with a cohort total and a vaccinated count
// 4. Rollups: Both gender rows and All year rows are appended
//
// # Usage
//
//	transformer, err := dataprocessing.NewTransformer(dataprocessing.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	table, err := transformer.Transform(ctx, paths)
//
// # Data Flow
//
//	Excel File → SourceSheet → SheetLayout → PivotRows → FactRows → Rollups → FactTable
//
// # Error Handling
//
// Errors are *errors.AppError values:
//
//	- PARSING for an empty metadata cell or a count that is not a whole number
//	- SCHEMA for a missing sheet, header row or region column, an unrecognized
//	  column under the strict classifier and duplicate pivot cells
//
// One failing release aborts the whole batch.
package dataprocessing
