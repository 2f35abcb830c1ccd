// Package paths provides centralized path handling for deplink.
//
// It handles:
//
//   - dependency name validation (plain and @scope/name names)
//   - the destination layout: every dependency lives at
//     <destination>/<name>, scoped names nest under <destination>/@scope
//   - the copy target for primary-file copies,
//     <destination>/<name>/<basename of the primary file>
//   - XDG directories for deplink's own config and log file
//
// # Environment Variables
//
//   - DEPLINK_CONFIG_DIR: Override XDG config directory (default: $XDG_CONFIG_HOME/deplink)
//   - DEPLINK_STATE_DIR: Override XDG state directory (default: $XDG_STATE_HOME/deplink)
package paths
