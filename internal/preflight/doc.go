// Package preflight checks that an index location and embedding provider
// are usable before a build or query runs.
//
// The package validates:
//   - Disk space at the index location (minimum 100MB)
//   - Write permissions at the index location
//   - Embedding provider reachability and dimension agreement
//   - The persisted artifact, when one exists
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, location, embedder)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
