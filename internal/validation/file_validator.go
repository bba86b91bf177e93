package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// zipMagic starts every xlsx package
var zipMagic = []byte("PK\x03\x04")

// WorkbookExtensions lists the spreadsheet formats the reader accepts
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// FileValidator checks source workbooks and output locations before a run touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and is readable
func (v *FileValidator) ValidateFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return nil, fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	return info, nil
}

// ValidateWorkbook checks that path looks like an Office Open XML workbook:
// a supported extension, not an Excel lock file, non-empty and a zip package.
func (v *FileValidator) ValidateWorkbook(path string) error {
	info, err := v.ValidateFile(path)
	if err != nil {
		return err
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting Excel lock file", slog.String("file", path))
		return fmt.Errorf("file %s is an Excel lock file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range WorkbookExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		v.logger.Error("File is not a supported workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a supported workbook (extension: %s)", path, ext)
	}

	if info.Size() == 0 {
		return fmt.Errorf("workbook %s is empty", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer file.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(file, head); err != nil || !bytes.Equal(head, zipMagic) {
		v.logger.Error("Workbook is not a zip package", slog.String("file", path))
		return fmt.Errorf("workbook %s is not an xlsx package", path)
	}

	v.logger.Debug("Workbook validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbooks validates every path and stops at the first failure
func (v *FileValidator) ValidateWorkbooks(paths []string) error {
	for _, p := range paths {
		if err := v.ValidateWorkbook(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
