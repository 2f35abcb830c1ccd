package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Copy or link package.json dependencies into a directory"
	MsgVersionShort = "Print version information"
	MsgVersionLong  = "Print detailed version information including commit hash and build date"
	MsgListShort    = "List the dependencies declared in the manifest"
	MsgCopyShort    = "Copy dependencies into a destination directory"
	MsgLinkShort    = "Link dependencies from a destination directory"
	MsgConfigShort  = "Print the effective configuration"
	MsgConfigLong   = "Print the configuration deplink would use, after every file, environment variable and flag has been applied."

	// Version output
	MsgVersionFormat = "deplink version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"

	// Error messages
	MsgErrLoadConfig  = "failed to load configuration: %w"
	MsgErrRender      = "failed to render output: %w"
	MsgErrBatchFailed = "%d of %d dependencies failed"
	MsgErrPruneFailed = "%d stale entries could not be pruned"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot       = "Directory holding package.json (default: current directory)"
	MsgFlagConfigFile = "Project configuration file to use instead of .deplink.toml"
	MsgFlagFormat     = "Output format: auto, term, text, json or yaml"
	MsgFlagWholeTree  = "Copy the whole package directory instead of its primary file"
	MsgFlagKind       = "Link kind: default, symlink or junction"
	MsgFlagPrune      = "Remove destination entries that are not dependencies (--prune=false keeps them)"
	MsgFlagJobs       = "Maximum dependencies processed at once (0 = no limit)"
	MsgFlagTimeout    = "Stop waiting after this long, e.g. 30s (0 = wait for all)"
	MsgFlagResolve    = "Resolve each dependency to its installed location"
	MsgFlagDefaults   = "Print the commented default configuration instead"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/copy-long.txt
	msgCopyLongRaw string
	MsgCopyLong    = strings.TrimSpace(msgCopyLongRaw)

	//go:embed msgs/copy-example.txt
	msgCopyExampleRaw string
	MsgCopyExample    = strings.TrimRight(msgCopyExampleRaw, "\n")

	//go:embed msgs/link-long.txt
	msgLinkLongRaw string
	MsgLinkLong    = strings.TrimSpace(msgLinkLongRaw)

	//go:embed msgs/link-example.txt
	msgLinkExampleRaw string
	MsgLinkExample    = strings.TrimRight(msgLinkExampleRaw, "\n")

	//go:embed msgs/list-example.txt
	msgListExampleRaw string
	MsgListExample    = strings.TrimRight(msgListExampleRaw, "\n")
)
