// Package shared holds helpers used across hpvload packages.
//
// The testutil subpackage provides:
//
//	- a buffered slog handler for asserting on log output
//	- an xlsx release builder producing workbooks in the published layout
//
// Example usage:
//
//	func TestTransform(t *testing.T) {
//	    path := testutil.WriteRelease(t, t.TempDir(), "hpv.xlsx", testutil.StandardRelease())
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
