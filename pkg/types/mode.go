package types

import (
	"fmt"
	"strings"
)

// Mode selects how a dependency is materialized at the destination
type Mode string

const (
	// ModeCopy duplicates the installed artifact; the copy has no runtime
	// relationship with its source
	ModeCopy Mode = "copy"

	// ModeLink creates a filesystem link whose target is the installed location
	ModeLink Mode = "link"
)

// ParseMode parses a mode name. An empty string yields ModeCopy.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "copy":
		return ModeCopy, nil
	case "link":
		return ModeLink, nil
	default:
		return "", fmt.Errorf("unknown mode: %q (want copy or link)", s)
	}
}

// LinkKind is the kind of link created in link mode
type LinkKind string

const (
	// LinkDefault lets the platform choose: a junction where junctions are
	// distinct from symbolic links, a symbolic link elsewhere
	LinkDefault LinkKind = ""

	// LinkSymlink requests a symbolic link explicitly
	LinkSymlink LinkKind = "symlink"

	// LinkJunction requests a directory junction explicitly
	LinkJunction LinkKind = "junction"
)

// ParseLinkKind parses a link kind name
func ParseLinkKind(s string) (LinkKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "auto":
		return LinkDefault, nil
	case "symlink", "symbolic":
		return LinkSymlink, nil
	case "junction":
		return LinkJunction, nil
	default:
		return "", fmt.Errorf("unknown link kind: %q (want default, symlink or junction)", s)
	}
}

// String returns the display name of the link kind
func (k LinkKind) String() string {
	if k == LinkDefault {
		return "default"
	}
	return string(k)
}
