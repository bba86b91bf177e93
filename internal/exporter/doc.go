// Package exporter writes CSV snapshots of the fact table.
//
// CSVWriter streams records to disk with a UTF-8 BOM for Excel compatibility.
// WriteFactTable uses it to dump the table a run is about to load, which is
// useful alongside a dry run.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("exports", logger)
//	path, err := writer.WriteFactTable("hpv_2024-03-01.csv", table)
package exporter
