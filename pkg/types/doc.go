// Package types defines the core types and interfaces used throughout deplink.
// This includes the FS abstraction, materialization modes and link kinds, and
// the Dependency/Source pair fed to the materialization engine.
package types
