package deplink

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/deplink/pkg/config"
	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/filesystem"
	"github.com/arthur-debert/deplink/pkg/logging"
	"github.com/arthur-debert/deplink/pkg/manifest"
	"github.com/arthur-debert/deplink/pkg/materialize"
	"github.com/arthur-debert/deplink/pkg/paths"
	"github.com/arthur-debert/deplink/pkg/resolver"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Option customizes a Linker
type Option func(*Linker)

// WithFS replaces the OS filesystem
func WithFS(fsys types.FS) Option {
	return func(l *Linker) {
		l.fs = fsys
	}
}

// WithResolver replaces the node_modules resolver
func WithResolver(r resolver.Resolver) Option {
	return func(l *Linker) {
		l.resolver = r
	}
}

// WithLogger replaces the "deplink" component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Linker) {
		l.logger = logger
	}
}

// Linker materializes the dependencies of one project
type Linker struct {
	cfg      config.Config
	fs       types.FS
	resolver resolver.Resolver
	logger   zerolog.Logger
}

// New creates a Linker for the project at cfg.Manifest.Root
func New(cfg config.Config, opts ...Option) *Linker {
	if cfg.Manifest.Root == "" {
		cfg.Manifest.Root = "."
	}
	l := &Linker{
		cfg:    cfg,
		logger: logging.GetLogger("deplink"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fs == nil {
		l.fs = filesystem.NewOS()
	}
	if l.resolver == nil {
		l.resolver = resolver.NewNodeResolver(l.fs, cfg.Manifest.Root)
	}
	return l
}

// ListDependencies reads the manifest in manifestRoot and returns its
// dependency names, sorted
func ListDependencies(manifestRoot string, opts ...Option) ([]string, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	cfg.Manifest.Root = manifestRoot
	return New(*cfg, opts...).ListDependencies()
}

// Root returns the manifest root
func (l *Linker) Root() string {
	return l.cfg.Manifest.Root
}

// Manifest reads the project manifest
func (l *Linker) Manifest() (*manifest.Manifest, error) {
	return manifest.Read(l.fs, l.cfg.Manifest.Root, l.cfg.Manifest.File)
}

// ListDependencies returns the names of the selected dependency sets
func (l *Linker) ListDependencies() ([]string, error) {
	return manifest.ListDependencies(l.fs, l.cfg.Manifest.Root, l.cfg.Manifest.File, l.selection())
}

// Resolve lists and resolves the dependencies. Unresolved names are returned
// per name; the error is reserved for manifest failures.
func (l *Linker) Resolve() ([]types.Dependency, map[string]error, error) {
	names, err := l.ListDependencies()
	if err != nil {
		return nil, nil, err
	}
	deps, failures := resolver.ResolveAll(l.resolver, names)

	for name, err := range failures {
		l.logger.Debug().Str("name", name).Err(err).Msg("Dependency unresolved")
	}
	l.logger.Debug().
		Int("resolved", len(deps)).
		Int("unresolved", len(failures)).
		Msg("Resolved dependencies")
	return deps, failures, nil
}

// MaterializeOptions controls MaterializeDependencies
type MaterializeOptions struct {
	Mode        types.Mode
	WholeTree   bool
	LinkKind    types.LinkKind
	Concurrency int
	Timeout     time.Duration
	Prune       bool
}

// DefaultOptions returns the materialize section of the configuration
func (l *Linker) DefaultOptions() (MaterializeOptions, error) {
	mode, err := l.cfg.Mode()
	if err != nil {
		return MaterializeOptions{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid materialize.mode")
	}
	kind, err := l.cfg.LinkKind()
	if err != nil {
		return MaterializeOptions{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid materialize.link_kind")
	}
	m := l.cfg.Materialize
	return MaterializeOptions{
		Mode:        mode,
		WholeTree:   m.WholeTree,
		LinkKind:    kind,
		Concurrency: m.Concurrency,
		Timeout:     m.Timeout,
		Prune:       m.Prune,
	}, nil
}

// MaterializeDependencies places every manifest dependency under dest.
//
// An empty dest is ErrInvalidDestination before the manifest is read.
// Manifest errors are returned as is. A name that cannot be resolved is
// reported as an ErrDependencyUnresolved entry of the result and does not
// stop the others. The returned error is only set for failures of the whole
// run, including a timeout; per-entry failures are found on the result.
func (l *Linker) MaterializeDependencies(ctx context.Context, dest string, opts MaterializeOptions) (*materialize.BatchResult, error) {
	defer logging.LogOperationStart(l.logger, "materialize")()

	if dest == "" {
		return nil, errors.New(errors.ErrInvalidDestination, "destination must be a non-empty path")
	}
	if opts.Prune {
		if err := l.checkPruneTarget(dest); err != nil {
			return nil, err
		}
	}

	deps, failures, err := l.Resolve()
	if err != nil {
		return nil, err
	}

	result, err := materialize.New(materialize.Config{FS: l.fs, Logger: &l.logger}).
		Materialize(ctx, deps, dest, materialize.Options{
			Mode:        opts.Mode,
			WholeTree:   opts.WholeTree,
			LinkKind:    opts.LinkKind,
			Concurrency: opts.Concurrency,
			Timeout:     opts.Timeout,
			Prune:       opts.Prune,
			Keep:        lo.Keys(failures),
		})
	if result == nil {
		return nil, err
	}

	unresolved := make([]materialize.EntryOutcome, 0, len(failures))
	for name, failure := range failures {
		unresolved = append(unresolved, materialize.EntryOutcome{
			Name: name,
			Path: paths.EntryPath(result.Destination, name),
			Err:  failure,
		})
	}
	result.Merge(unresolved...)
	return result, err
}

// CopyDependenciesTo copies every dependency into dest: the whole installed
// directory when wholeTree is set, otherwise its primary file
func (l *Linker) CopyDependenciesTo(ctx context.Context, dest string, wholeTree bool) (*materialize.BatchResult, error) {
	opts, err := l.DefaultOptions()
	if err != nil {
		return nil, err
	}
	opts.Mode = types.ModeCopy
	opts.WholeTree = wholeTree
	return l.MaterializeDependencies(ctx, dest, opts)
}

// LinkDependenciesTo links every dependency from dest to its installed location
func (l *Linker) LinkDependenciesTo(ctx context.Context, dest string, kind types.LinkKind) (*materialize.BatchResult, error) {
	opts, err := l.DefaultOptions()
	if err != nil {
		return nil, err
	}
	opts.Mode = types.ModeLink
	opts.LinkKind = kind
	return l.MaterializeDependencies(ctx, dest, opts)
}

func (l *Linker) selection() manifest.Selection {
	return manifest.Selection{
		IncludeDev:      l.cfg.Manifest.IncludeDev,
		IncludeOptional: l.cfg.Manifest.IncludeOptional,
	}
}

// checkPruneTarget refuses to prune a destination that holds the project
// itself, which would delete the manifest and its sources
func (l *Linker) checkPruneTarget(dest string) error {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidDestination, "cannot resolve destination %s", dest)
	}
	absRoot, err := filepath.Abs(l.cfg.Manifest.Root)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidDestination, "cannot resolve manifest root %s", l.cfg.Manifest.Root)
	}

	rel, err := filepath.Rel(absDest, absRoot)
	if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
		return errors.Newf(errors.ErrInvalidDestination,
			"refusing to prune %s: it contains the project at %s", dest, l.cfg.Manifest.Root).
			WithDetail("destination", absDest).
			WithDetail("root", absRoot)
	}
	return nil
}
