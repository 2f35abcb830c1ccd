// Package resolver maps dependency names to their installed location.
//
// NodeResolver follows the node_modules lookup that Node.js performs:
// every node_modules directory from a base directory up to the filesystem
// root, then the NODE_PATH entries. MapResolver serves fixed mappings and is
// what tests and embedding callers use to plug in their own lookup.
package resolver
