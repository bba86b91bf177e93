package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hpvload/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a CSV writer resolving relative paths against baseDir
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{baseDir: baseDir, logger: logger}
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer. The file starts with
// a UTF-8 BOM so Excel detects the encoding.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written after the header
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// WriteFactTable writes a snapshot of the fact table with its warehouse
// header. Null measures and an unset period text are written as empty cells.
func (w *CSVWriter) WriteFactTable(filePath string, table *domain.FactTable) (string, error) {
	stream, err := w.CreateStreamWriter(filePath, table.Header())
	if err != nil {
		return "", err
	}

	for i, row := range table.Rows {
		if err := stream.WriteRecord(table.Record(row)); err != nil {
			stream.Close()
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", filePath, err)
	}

	fullPath := w.resolvePath(filePath)
	w.logger.Info("Fact table exported",
		slog.String("path", fullPath),
		slog.Int("rows", stream.Rows()))
	return fullPath, nil
}

// resolvePath resolves a relative path against the base directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
