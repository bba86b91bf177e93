package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "schema error type", errType: ErrTypeSchema, expected: "SCHEMA"},
		{name: "load error type", errType: ErrTypeLoad, expected: "LOAD"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeSchema,
				Message: "sheet Local_authority not found",
			},
			wantMessage: "[SCHEMA] sheet Local_authority not found",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeParsing,
				Message: "malformed reporting period",
				Cause:   fmt.Errorf("cell A1 is empty"),
			},
			wantMessage: "[PARSING] malformed reporting period: cell A1 is empty",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeConfig,
			},
			wantMessage: "[CONFIG] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndContext(t *testing.T) {
	cause := errors.New("table does not exist")
	err := NewSchemaError("destination column check failed", cause).
		WithContext("table", "HPV")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "HPV", err.Context["table"])

	bare := &AppError{Type: ErrTypeParsing, Message: "x"}
	bare.WithContext("cell", "A1")
	require.NotNil(t, bare.Context)
	assert.Equal(t, "A1", bare.Context["cell"])
}

func TestIsType(t *testing.T) {
	parse := NewParsingError("bad count", nil)
	wrapped := fmt.Errorf("source 2023.xlsx: %w", parse)
	nested := NewSchemaError("source rejected", parse)

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{name: "direct match", err: parse, typ: ErrTypeParsing, want: true},
		{name: "wrapped match", err: wrapped, typ: ErrTypeParsing, want: true},
		{name: "outer type", err: nested, typ: ErrTypeSchema, want: true},
		{name: "inner type", err: nested, typ: ErrTypeParsing, want: true},
		{name: "mismatch", err: parse, typ: ErrTypeLoad, want: false},
		{name: "plain error", err: errors.New("boom"), typ: ErrTypeParsing, want: false},
		{name: "nil error", err: nil, typ: ErrTypeParsing, want: false},
		{
			name: "load error",
			err:  NewLoadError(LoadClassWrite, OutcomeRolledBack, "DB.S.T", "replace", errors.New("x")),
			typ:  ErrTypeLoad,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestLoadError(t *testing.T) {
	cause := errors.New("NOT NULL constraint failed")
	err := NewLoadError(LoadClassWrite, OutcomeRolledBack, "DB.PUBLIC.HPV", "replace", cause)

	assert.Equal(t,
		"[LOAD] replace load of DB.PUBLIC.HPV failed (write, rolled_back): NOT NULL constraint failed",
		err.Error())
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("run failed: %w", err)
	got, ok := AsLoadError(wrapped)
	require.True(t, ok)
	assert.Equal(t, LoadClassWrite, got.Class)
	assert.Equal(t, OutcomeRolledBack, got.Outcome)

	_, ok = AsLoadError(errors.New("other"))
	assert.False(t, ok)
}
