// Package testutil provides utilities for testing deplink components.
//
// Key components:
//   - file and link helpers that fail the test on error
//   - SnapshotTree: a comparable picture of a directory tree, used to
//     check idempotence and that sources are never mutated
//   - Package builders for fake installed node packages
//   - FaultyFS: a types.FS wrapper that injects failures per operation
//
// Tests use real temporary directories; link creation is not simulated.
package testutil
