// Package files locates the spreadsheet releases a run should ingest.
//
// Discovery matches a glob pattern inside a source directory, skips Office
// lock files and returns matches in name order so a run over the same
// directory always reads sources in the same sequence.
//
//	discovery := files.NewDiscovery("/srv/hpv")
//	sources, err := discovery.FindFilesByPattern("data", "*.xlsx")
package files
