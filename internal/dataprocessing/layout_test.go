package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hpvload/internal/errors"
	"hpvload/internal/shared/testutil"
	"hpvload/pkg/contracts/domain"
)

func TestLayoutClassify_StandardHeaders(t *testing.T) {
	layout, err := NewLayout(ClassifierStrict, "Local authority")
	require.NoError(t, err)

	sl, err := layout.Classify(testutil.StandardHeaders)
	require.NoError(t, err)

	assert.Equal(t, 0, sl.RegionIndex)
	assert.Equal(t, []string{
		"% of females vaccinated in Year 8 with at least one dose",
		"Number of females vaccinated in Year 8 with 2 doses",
	}, sl.Excluded)

	want := []ColumnSpec{
		{Index: 1, YearGroup: "8", Gender: domain.GenderFemale, Metric: domain.MetricTotal},
		{Index: 2, YearGroup: "8", Gender: domain.GenderFemale, Metric: domain.MetricVaccinated},
		{Index: 4, YearGroup: "8", Gender: domain.GenderMale, Metric: domain.MetricTotal},
		{Index: 5, YearGroup: "8", Gender: domain.GenderMale, Metric: domain.MetricVaccinated},
		{Index: 7, YearGroup: "9", Gender: domain.GenderFemale, Metric: domain.MetricTotal},
		{Index: 8, YearGroup: "9", Gender: domain.GenderFemale, Metric: domain.MetricVaccinated},
		{Index: 9, YearGroup: "9", Gender: domain.GenderMale, Metric: domain.MetricTotal},
		{Index: 10, YearGroup: "9", Gender: domain.GenderMale, Metric: domain.MetricVaccinated},
	}
	require.Len(t, sl.Columns, len(want))
	for i, w := range want {
		got := sl.Columns[i]
		assert.Equal(t, w.Index, got.Index, "column %d", i)
		assert.Equal(t, w.YearGroup, got.YearGroup, "column %d", i)
		assert.Equal(t, w.Gender, got.Gender, "column %d", i)
		assert.Equal(t, w.Metric, got.Metric, "column %d", i)
	}
}

func TestLayoutClassify(t *testing.T) {
	tests := []struct {
		name       string
		classifier string
		headers    []string
		wantErr    apperrors.ErrorType
		wantGender domain.Gender
		wantMetric domain.Metric
	}{
		{
			name:       "girls vaccinated",
			classifier: ClassifierStrict,
			headers:    []string{"Local authority", "Girls vaccinated Year 10"},
			wantGender: domain.GenderFemale,
			wantMetric: domain.MetricVaccinated,
		},
		{
			name:       "vaccinated is case insensitive",
			classifier: ClassifierStrict,
			headers:    []string{"Local authority", "Year 8 Males VACCINATED"},
			wantGender: domain.GenderMale,
			wantMetric: domain.MetricVaccinated,
		},
		{
			name:       "strict rejects unknown header",
			classifier: ClassifierStrict,
			headers:    []string{"Local authority", "Year 8 pupils"},
			wantErr:    apperrors.ErrTypeSchema,
		},
		{
			name:       "legacy defaults unknown header to male cohort",
			classifier: ClassifierLegacy,
			headers:    []string{"Local authority", "Year 8 pupils"},
			wantGender: domain.GenderMale,
			wantMetric: domain.MetricTotal,
		},
		{
			name:       "legacy only recognizes plural females",
			classifier: ClassifierLegacy,
			headers:    []string{"Local authority", "Year 8 female cohort"},
			wantGender: domain.GenderMale,
			wantMetric: domain.MetricTotal,
		},
		{
			name:       "missing year group",
			classifier: ClassifierStrict,
			headers:    []string{"Local authority", "Number of females"},
			wantErr:    apperrors.ErrTypeSchema,
		},
		{
			name:       "missing region column",
			classifier: ClassifierStrict,
			headers:    []string{"Borough", "Number of females in Year 8 cohort"},
			wantErr:    apperrors.ErrTypeSchema,
		},
		{
			name:       "only excluded columns",
			classifier: ClassifierStrict,
			headers:    []string{"Local authority", "% of females vaccinated in Year 8"},
			wantErr:    apperrors.ErrTypeSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := NewLayout(tt.classifier, "Local authority")
			require.NoError(t, err)

			sl, err := layout.Classify(tt.headers)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, sl.Columns, 1)
			assert.Equal(t, tt.wantGender, sl.Columns[0].Gender)
			assert.Equal(t, tt.wantMetric, sl.Columns[0].Metric)
		})
	}
}

func TestLayoutClassify_BlankHeadersIgnored(t *testing.T) {
	layout, err := NewLayout("", "Local authority")
	require.NoError(t, err)

	sl, err := layout.Classify([]string{"", "local authority", "Number of males in Year 8 cohort", " "})
	require.NoError(t, err)
	assert.Equal(t, 1, sl.RegionIndex)
	assert.Equal(t, []int{0, 3}, sl.Ignored)
	assert.Len(t, sl.Columns, 1)
}

func TestNewLayout_UnknownClassifier(t *testing.T) {
	_, err := NewLayout("fuzzy", "Local authority")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
