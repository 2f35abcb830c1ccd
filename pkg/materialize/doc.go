// Package materialize places resolved dependencies into a destination
// directory, either as independent copies or as links back to the installed
// location.
//
// Every dependency runs through its own Probe, Clear and Create steps:
//
//   - Probe looks at destination/<name> without following links
//   - Clear removes whatever was found there (a link is removed, never its target)
//   - Create copies the source (primary file or whole tree) or links to it
//
// Pipelines for different dependencies run concurrently and never abort each
// other. A failure is recorded on the dependency's EntryOutcome in the
// BatchResult; only invalid input or an unusable destination root fail the
// whole call. The destination root is prepared exactly once, before any
// pipeline starts.
package materialize
