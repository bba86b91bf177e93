package testutil

import (
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		
		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))
		
		records := handler.GetRecords()
		if len(records) != 2 {
			t.Errorf("Expected 2 records, got %d", len(records))
		}
		
		if !handler.ContainsMessage("test message") {
			t.Error("Expected to find 'test message'")
		}
		
		if !handler.ContainsAttr("key", "value") {
			t.Error("Expected to find attribute key=value")
		}
	})
	
	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		
		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")
		
		infoRecords := handler.GetRecordsByLevel(slog.LevelInfo)
		if len(infoRecords) != 1 {
			t.Errorf("Expected 1 info record, got %d", len(infoRecords))
		}
		
		errorRecords := handler.GetRecordsByLevel(slog.LevelError)
		if len(errorRecords) != 1 {
			t.Errorf("Expected 1 error record, got %d", len(errorRecords))
		}
	})
	
	t.Run("clear functionality", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		
		logger.Info("message 1")
		logger.Info("message 2")
		
		if handler.Count() != 2 {
			t.Errorf("Expected 2 records, got %d", handler.Count())
		}
		
		handler.Clear()
		
		if handler.Count() != 0 {
			t.Errorf("Expected 0 records after clear, got %d", handler.Count())
		}
	})
	
	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		
		logger.Info("important message", slog.String("component", "test"))
		logger.Warn("warning message", slog.Int("retry", 3))
		
		// These should pass
		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNoErrors(t, handler)
		
		// Test error case
		logger.Error("something went wrong")
		
		// This would fail if we called AssertNoErrors now
		errors := handler.GetRecordsByLevel(slog.LevelError)
		if len(errors) != 1 {
			t.Error("Expected to capture error log")
		}
	})
	
	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		
		// Run concurrent logging
		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func(n int) {
				logger.Info("concurrent log", slog.Int("goroutine", n))
				done <- true
			}(i)
		}
		
		// Wait for all goroutines
		for i := 0; i < 10; i++ {
			<-done
		}
		
		// Should have captured all logs
		if handler.Count() != 10 {
			t.Errorf("Expected 10 records from concurrent logging, got %d", handler.Count())
		}
	})
}
func TestBufferedSlogHandlerWithAttrs(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.With(slog.String("component", "loader")).Info("chunk written", slog.Int("rows", 50))
	logger.Info("plain")

	if handler.Count() != 2 {
		t.Fatalf("Expected 2 records in the shared buffer, got %d", handler.Count())
	}

	records := handler.GetRecords()
	if records[0].Attrs["component"] != "loader" {
		t.Errorf("Expected component attribute from With, got %v", records[0].Attrs)
	}
	if _, ok := records[1].Attrs["component"]; ok {
		t.Error("Parent logger should not carry derived attributes")
	}
}

func TestWriteRelease(t *testing.T) {
	path := WriteRelease(t, t.TempDir(), "release.xlsx", StandardRelease())

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	a1, _ := f.GetCellValue("Local_authority", "A1")
	if a1 != StandardMetadata {
		t.Errorf("Expected metadata in A1, got %q", a1)
	}
	a3, _ := f.GetCellValue("Local_authority", "A3")
	if a3 != "Local authority" {
		t.Errorf("Expected region header in A3, got %q", a3)
	}
	b5, _ := f.GetCellValue("Local_authority", "B5")
	if b5 != "500" {
		t.Errorf("Expected Camden cohort in B5, got %q", b5)
	}
}
