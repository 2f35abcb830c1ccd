// Package deplink is the public entry point: it reads a project's manifest,
// resolves every declared dependency to its installed location and
// materializes them into a destination directory.
//
// The project root is part of the config.Config handed to New; nothing is
// kept in package state, so several Linkers for different projects can be
// used side by side.
//
//	cfg, err := config.Load(config.LoadOptions{Root: "."})
//	...
//	result, err := deplink.New(*cfg).LinkDependenciesTo(ctx, "build/deps", types.LinkDefault)
//	for _, entry := range result.Failed() {
//		...
//	}
package deplink
