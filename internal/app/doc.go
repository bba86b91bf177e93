// Package app orchestrates a pipeline run.
//
// A run is a single forward pass: discover the source workbooks, transform
// them into one fact table, optionally write a CSV snapshot, then load the
// table into the warehouse. Each stage runs under its own span and the run
// outcome is recorded on the run metrics. Errors are returned to the caller;
// the package never exits the process.
//
//	runner, err := app.NewRunner(cfg, logger, providers)
//	req, err := app.RequestFromConfig(cfg)
//	report, err := runner.Run(ctx, req)
package app
