// Package filesystem provides filesystem implementations for deplink.
//
// This package contains the OS implementation of the types.FS interface,
// the copy helpers used in copy mode, and the platform-specific link
// creation used in link mode (symbolic links everywhere, directory
// junctions on Windows).
package filesystem
