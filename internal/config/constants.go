package config

import (
	"time"

	"hpvload/pkg/contracts"
)

// Application constants
const (
	AppName    = "hpvload"
	AppVersion = contracts.Version

	// Source layout of the published local-authority workbooks
	DefaultSourceDir     = "data"
	DefaultSourcePattern = "*.xlsx"
	DefaultSheetName     = "Local_authority"
	DefaultHeaderRow     = 3 // one-based; two banner rows precede the column headers
	DefaultRegionColumn  = "Local authority"
	DefaultMetadataCell  = "A1"

	// Warehouse
	DefaultBatchSize    = 1000
	DefaultLoginTimeout = 60 * time.Second
)
