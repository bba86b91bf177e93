package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "hpvload/internal/errors"
)

// SourceSheet is the raw content of one release's local authority sheet
type SourceSheet struct {
	Path      string
	Sheet     string
	HeaderRow int
	Metadata  string
	Headers   []string
	Rows      [][]string
}

// Cell returns the body cell at row, col or "" past the end of a ragged row
func (s *SourceSheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return s.Rows[row][col]
}

// CellName returns the spreadsheet reference of a body cell, e.g. "C7"
func (s *SourceSheet) CellName(row, col int) string {
	name, err := excelize.CoordinatesToCellName(col+1, s.HeaderRow+row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", s.HeaderRow+row+1, col+1)
	}
	return name
}

// ReadWorkbook reads the configured sheet of an xlsx release. The header row
// is taken at the fixed offset and every following row is body; the metadata
// cell is read separately without header interpretation.
func ReadWorkbook(path string, opts Options) (*SourceSheet, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewSchemaError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(opts.Sheet)
	if err != nil || idx < 0 {
		return nil, apperrors.NewSchemaError(fmt.Sprintf("sheet %q not found", opts.Sheet), err).
			WithContext("path", path).
			WithContext("sheets", f.GetSheetList())
	}

	metadata, err := f.GetCellValue(opts.Sheet, opts.MetadataCell)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read metadata cell %s", opts.MetadataCell), err).
			WithContext("path", path)
	}

	rows, err := f.GetRows(opts.Sheet)
	if err != nil {
		return nil, apperrors.NewSchemaError("failed to read sheet rows", err).WithContext("path", path)
	}

	if opts.HeaderRow < 1 || len(rows) < opts.HeaderRow {
		return nil, apperrors.NewSchemaError(fmt.Sprintf("sheet %q has no header row %d", opts.Sheet, opts.HeaderRow), nil).
			WithContext("path", path).
			WithContext("rows", len(rows))
	}

	headers := make([]string, len(rows[opts.HeaderRow-1]))
	for i, h := range rows[opts.HeaderRow-1] {
		headers[i] = strings.TrimSpace(h)
	}

	return &SourceSheet{
		Path:      path,
		Sheet:     opts.Sheet,
		HeaderRow: opts.HeaderRow,
		Metadata:  metadata,
		Headers:   headers,
		Rows:      rows[opts.HeaderRow:],
	}, nil
}
