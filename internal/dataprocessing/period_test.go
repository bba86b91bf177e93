package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hpvload/internal/errors"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		wantEnd  string
		wantText string // "" means nil
		wantErr  bool
	}{
		{
			name:     "full phrase",
			cell:     "HPV vaccination coverage in adolescents in England: academic year September 2022 to August 2023",
			wantEnd:  "2023",
			wantText: "September 2022 to August 2023",
		},
		{
			name:     "phrase mid sentence",
			cell:     "Coverage for September 2019 to August 2020 (provisional) 2020",
			wantEnd:  "2020",
			wantText: "September 2019 to August 2020",
		},
		{
			name:    "no phrase keeps end token",
			cell:    "HPV vaccination coverage 2021",
			wantEnd: "2021",
		},
		{
			name:    "single token",
			cell:    "2024",
			wantEnd: "2024",
		},
		{
			name:    "empty cell",
			cell:    "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			cell:    "  \t ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePeriod(tt.cell)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnd, p.End)
			if tt.wantText == "" {
				assert.Nil(t, p.Text)
			} else {
				require.NotNil(t, p.Text)
				assert.Equal(t, tt.wantText, *p.Text)
			}
		})
	}
}
