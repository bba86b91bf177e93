// Package warehouse loads the HPV fact table into a warehouse table.
//
// A Loader writes through sqlx over one of two dialects: Snowflake (via
// gosnowflake) for production and SQLite (via modernc.org/sqlite) for local
// runs and tests. Replace mode deletes the destination rows and inserts the new
// dataset inside a single transaction; append mode only inserts.
//
// Failures are returned as *errors.LoadError with a class (connectivity,
// schema, write, commit) and an outcome (not_started, rolled_back, unknown).
package warehouse
