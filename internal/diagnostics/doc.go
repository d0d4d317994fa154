// Package diagnostics backs the doctor command: host resources for the data
// directory and a health check of the configured store and snapshot.
//
// Checks never fail hard. Each one reports ok, warn or fail with a detail line,
// and the overall status is the worst of them.
package diagnostics
