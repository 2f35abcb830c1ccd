// Package config loads deplink's layered configuration with koanf.
//
// Layers, lowest priority first: embedded defaults, the per-user file in
// the XDG config directory, the project file next to the manifest, DEPLINK_*
// environment variables, and explicit overrides (CLI flags). The result is a
// plain Config value that callers thread through every call.
package config
