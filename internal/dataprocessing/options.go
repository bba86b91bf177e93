package dataprocessing

import (
	"hpvload/internal/config"
	"hpvload/pkg/contracts/domain"
)

// Classifier names
const (
	ClassifierStrict = "strict"
	ClassifierLegacy = "legacy"
)

// Options parameterizes a transform run
type Options struct {
	Sheet        string
	HeaderRow    int // one-based row holding the column names
	RegionColumn string
	MetadataCell string
	Classifier   string
	Naming       string

	IncludeBothGender bool
	IncludeAllYears   bool

	// KeepSuppressed keeps rows whose measures were suppressed with a
	// sentinel token. Rows with blank measures are always dropped.
	KeepSuppressed bool
}

// DefaultOptions returns the layout of the published local authority releases
func DefaultOptions() Options {
	return Options{
		Sheet:             config.DefaultSheetName,
		HeaderRow:         config.DefaultHeaderRow,
		RegionColumn:      config.DefaultRegionColumn,
		MetadataCell:      config.DefaultMetadataCell,
		Classifier:        ClassifierStrict,
		Naming:            domain.NamingAcademic,
		IncludeBothGender: true,
		IncludeAllYears:   true,
	}
}

// OptionsFromConfig maps the source configuration onto transform options
func OptionsFromConfig(cfg config.SourceConfig) Options {
	return Options{
		Sheet:             cfg.Sheet,
		HeaderRow:         cfg.HeaderRow,
		RegionColumn:      cfg.RegionColumn,
		MetadataCell:      cfg.MetadataCell,
		Classifier:        cfg.Classifier,
		Naming:            cfg.Naming,
		IncludeBothGender: cfg.BothGender,
		IncludeAllYears:   cfg.AllYears,
		KeepSuppressed:    cfg.KeepSuppressed,
	}
}
