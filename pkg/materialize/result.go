package materialize

import (
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/samber/lo"
)

// EntryKind describes what was created for an entry
type EntryKind string

const (
	KindCopy     EntryKind = "copy"
	KindSymlink  EntryKind = "symlink"
	KindJunction EntryKind = "junction"
)

// kindForLink maps the link kind actually created to an entry kind
func kindForLink(kind types.LinkKind) EntryKind {
	if kind == types.LinkJunction {
		return KindJunction
	}
	return KindSymlink
}

// EntryOutcome is the result of one dependency's pipeline
type EntryOutcome struct {
	Name   string
	Source types.Source

	// Path is destination/<name>
	Path string

	// Kind is empty when nothing was created
	Kind EntryKind

	// Replaced is true when a previous entry was removed first
	Replaced bool

	Err error
}

// OK reports whether the entry was materialized
func (o EntryOutcome) OK() bool {
	return o.Err == nil
}

// BatchResult collects the outcome of every entry of one run
type BatchResult struct {
	Destination string
	Mode        types.Mode

	// Entries are sorted by name
	Entries []EntryOutcome

	// Pruned lists entries removed because they are no longer wanted
	Pruned      []string
	PruneErrors map[string]error

	Duration time.Duration
}

// Succeeded returns the entries that were materialized
func (r *BatchResult) Succeeded() []EntryOutcome {
	return lo.Filter(r.Entries, func(o EntryOutcome, _ int) bool { return o.OK() })
}

// Failed returns the entries that carry an error
func (r *BatchResult) Failed() []EntryOutcome {
	return lo.Filter(r.Entries, func(o EntryOutcome, _ int) bool { return !o.OK() })
}

// Outcome looks up the entry for name
func (r *BatchResult) Outcome(name string) (EntryOutcome, bool) {
	return lo.Find(r.Entries, func(o EntryOutcome) bool { return o.Name == name })
}

// OK reports whether every entry succeeded and pruning had no failures
func (r *BatchResult) OK() bool {
	return len(r.Failed()) == 0 && len(r.PruneErrors) == 0
}

// Err joins every entry and prune failure, prefixed with the entry name.
// It returns nil when OK is true.
func (r *BatchResult) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", o.Name, o.Err))
	}
	for _, name := range lo.Keys(r.PruneErrors) {
		errs = append(errs, fmt.Errorf("prune %s: %w", name, r.PruneErrors[name]))
	}
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return stderrors.Join(errs...)
}

// Merge adds outcomes produced outside the engine, such as dependencies
// that could not be resolved, keeping entries sorted by name
func (r *BatchResult) Merge(outcomes ...EntryOutcome) {
	r.Entries = append(r.Entries, outcomes...)
	sortOutcomes(r.Entries)
}

func sortOutcomes(entries []EntryOutcome) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}
