package warehouse

import (
	"fmt"
	"strings"

	"hpvload/internal/config"
	apperrors "hpvload/internal/errors"
)

// Destination is a fully qualified warehouse table
type Destination struct {
	Catalog string
	Schema  string
	Table   string
}

// ParseDestination parses a CATALOG.SCHEMA.TABLE name
func ParseDestination(s string) (Destination, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Destination{}, apperrors.NewConfigError(
			fmt.Sprintf("destination %q must have the form CATALOG.SCHEMA.TABLE", s), nil)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Destination{}, apperrors.NewConfigError(
				fmt.Sprintf("destination %q has an empty segment", s), nil)
		}
	}
	return Destination{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, nil
}

// DestinationFromConfig builds the destination from the warehouse settings
func DestinationFromConfig(cfg config.WarehouseConfig) Destination {
	return Destination{Catalog: cfg.Database, Schema: cfg.Schema, Table: cfg.Table}
}

// String returns the dotted three-part name
func (d Destination) String() string {
	return fmt.Sprintf("%s.%s.%s", d.Catalog, d.Schema, d.Table)
}
