package materialize

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/filesystem"
	"github.com/arthur-debert/deplink/pkg/logging"
	"github.com/arthur-debert/deplink/pkg/paths"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Config contains the collaborators of an Engine
type Config struct {
	// FS defaults to the OS filesystem
	FS types.FS

	// Logger defaults to the "materialize" component logger
	Logger *zerolog.Logger
}

// Options controls a single Materialize call
type Options struct {
	Mode types.Mode

	// WholeTree copies the source directory instead of its primary file
	WholeTree bool

	LinkKind types.LinkKind

	// Concurrency bounds the pipelines running at once; 0 means no bound
	Concurrency int

	// Timeout stops waiting for pipelines after the given duration; 0 means
	// wait for all of them
	Timeout time.Duration

	// Prune removes destination entries that are not part of the batch
	Prune bool

	// Keep lists names outside the batch that Prune must leave alone
	Keep []string
}

// Engine materializes dependencies. It holds no state between calls.
type Engine struct {
	fs     types.FS
	logger zerolog.Logger
}

// New creates an engine
func New(cfg Config) *Engine {
	logger := logging.GetLogger("materialize")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	fs := cfg.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	return &Engine{fs: fs, logger: logger}
}

// EnsureDirectory creates path and any missing parents. An existing
// directory is fine; anything else at path is ErrDestinationUnwritable.
func (e *Engine) EnsureDirectory(path string) error {
	if err := e.fs.MkdirAll(path, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot create destination %s", path).
			WithDetail("path", path)
	}
	info, err := e.fs.Stat(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot stat destination %s", path).
			WithDetail("path", path)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrDestinationUnwritable, "destination %s is not a directory", path).
			WithDetail("path", path)
	}
	return nil
}

// Materialize places every dependency under destRoot.
//
// Invalid input fails before anything is touched: an empty destRoot is
// ErrInvalidDestination, bad or duplicate names and unknown modes are
// ErrInvalidInput. A destination root that cannot be created is
// ErrDestinationUnwritable. Every other failure is recorded on the entry it
// belongs to and the returned error is nil.
//
// When ctx ends or opts.Timeout elapses first, Materialize returns what has
// finished so far together with an ErrTimeout error. Entries still running
// are marked ErrTimeout in the result and are left to complete on their own.
func (e *Engine) Materialize(ctx context.Context, deps []types.Dependency, destRoot string, opts Options) (*BatchResult, error) {
	start := time.Now()
	if err := validate(deps, destRoot, opts); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = types.ModeCopy
	}
	destRoot = filepath.Clean(destRoot)

	e.logger.Debug().
		Str("destination", destRoot).
		Str("mode", string(opts.Mode)).
		Bool("whole_tree", opts.WholeTree).
		Str("link_kind", opts.LinkKind.String()).
		Int("entries", len(deps)).
		Msg("Materializing dependencies")

	if err := e.EnsureDirectory(destRoot); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Destination: destRoot,
		Mode:        opts.Mode,
		PruneErrors: make(map[string]error),
	}

	if opts.Prune {
		wanted := lo.SliceToMap(deps, func(d types.Dependency) (string, struct{}) {
			return d.Name, struct{}{}
		})
		for _, name := range opts.Keep {
			wanted[name] = struct{}{}
		}
		result.Pruned, result.PruneErrors = e.prune(destRoot, wanted)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rec := newRecorder(deps, destRoot)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// pipelines report through the recorder, never through the group,
		// so one failure cannot cancel its siblings
		var g errgroup.Group
		if opts.Concurrency > 0 {
			g.SetLimit(opts.Concurrency)
		}
		for i, dep := range deps {
			i, dep := i, dep // per-iteration copies (pre-go1.22 loop semantics)
			g.Go(func() error {
				rec.record(i, e.materializeEntry(dep, destRoot, opts))
				return nil
			})
		}
		_ = g.Wait()
	}()

	var batchErr error
	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		default:
			pending := rec.pending()
			batchErr = errors.Wrapf(ctx.Err(), errors.ErrTimeout,
				"gave up waiting for %d of %d entries", pending, len(deps)).
				WithDetail("destination", destRoot)
			e.logger.Warn().
				Str("destination", destRoot).
				Int("pending", pending).
				Msg("Materialization timed out, leaving pending entries running")
		}
	}

	result.Entries = rec.snapshot()
	sortOutcomes(result.Entries)
	result.Duration = time.Since(start)

	e.logger.Info().
		Str("destination", destRoot).
		Int("succeeded", len(result.Succeeded())).
		Int("failed", len(result.Failed())).
		Int("pruned", len(result.Pruned)).
		Dur("duration", result.Duration).
		Msg("Materialization finished")

	return result, batchErr
}

func validate(deps []types.Dependency, destRoot string, opts Options) error {
	if destRoot == "" {
		return errors.New(errors.ErrInvalidDestination, "destination must be a non-empty path")
	}

	switch opts.Mode {
	case "", types.ModeCopy, types.ModeLink:
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown mode %q", string(opts.Mode))
	}

	if opts.Concurrency < 0 {
		return errors.Newf(errors.ErrInvalidInput, "concurrency must not be negative, got %d", opts.Concurrency)
	}

	for _, dep := range deps {
		if err := paths.ValidateName(dep.Name); err != nil {
			return errors.Wrapf(err, errors.ErrInvalidInput, "invalid dependency %q", dep.Name).
				WithDetail("name", dep.Name)
		}
	}

	dups := lo.FindDuplicatesBy(deps, func(d types.Dependency) string { return d.Name })
	if len(dups) > 0 {
		return errors.Newf(errors.ErrInvalidInput, "dependency %q is listed more than once", dups[0].Name).
			WithDetail("name", dups[0].Name)
	}
	return nil
}

// recorder holds the outcome slots of one run. Slots are written by the
// pipelines and read once by Materialize.
type recorder struct {
	mu       sync.Mutex
	outcomes []EntryOutcome
	finished []bool
}

func newRecorder(deps []types.Dependency, destRoot string) *recorder {
	outcomes := make([]EntryOutcome, len(deps))
	for i, dep := range deps {
		outcomes[i] = EntryOutcome{
			Name:   dep.Name,
			Source: dep.Source,
			Path:   paths.EntryPath(destRoot, dep.Name),
		}
	}
	return &recorder{outcomes: outcomes, finished: make([]bool, len(deps))}
}

func (r *recorder) record(i int, outcome EntryOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[i] = outcome
	r.finished[i] = true
}

func (r *recorder) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Count(r.finished, false)
}

// snapshot copies the outcomes; unfinished entries get ErrTimeout
func (r *recorder) snapshot() []EntryOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EntryOutcome, len(r.outcomes))
	copy(out, r.outcomes)
	for i := range out {
		if !r.finished[i] {
			out[i].Err = errors.Newf(errors.ErrTimeout, "%s did not finish in time", out[i].Name).
				WithDetail("name", out[i].Name)
		}
	}
	return out
}

// withName attaches the entry name to a structured error
func withName(err error, name string) error {
	var de *errors.DeplinkError
	if stderrors.As(err, &de) {
		de.WithDetail("name", name)
	}
	return err
}
