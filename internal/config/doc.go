// Package config provides configuration loading for hpvload.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (hpvload.yaml or configs/hpvload.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables follow the pattern HPV_<SECTION>_<FIELD>:
//
//	HPV_SOURCE_DIR=./data
//	HPV_LOAD_MODE=append
//	HPV_WAREHOUSE_DRIVER=snowflake
//	HPV_WAREHOUSE_DESTINATION_TABLE=HPV_VACCINATION
//
// The warehouse destination and connector fields also accept the bare names
// used by existing deployments (DATABASE, SCHEMA, DESTINATION_TABLE, ACCOUNT,
// USER, AUTHENTICATOR, ROLE, WAREHOUSE, PASSWORD, SQLITE_PATH). Every other
// setting is read only under its prefixed name, so HPV_LOAD_MODE selects the
// load mode and a bare MODE is ignored. Connector credentials are passed
// through to the driver untouched.
//
// # Validation
//
// Struct tags are checked with go-playground/validator at load time, so an
// unknown load mode or a snowflake driver without an account fails before any
// source is read.
package config
