// Package view holds the serializable shapes rendered by every output
// format. Errors are flattened to their code and message.
package view

import (
	"sort"
	"time"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/materialize"
)

// Entry statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one materialized dependency
type Entry struct {
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Path     string `json:"path" yaml:"path"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Replaced bool   `json:"replaced" yaml:"replaced"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Batch is a whole materialization run
type Batch struct {
	Destination string            `json:"destination" yaml:"destination"`
	Mode        string            `json:"mode" yaml:"mode"`
	Entries     []Entry           `json:"entries" yaml:"entries"`
	Pruned      []string          `json:"pruned,omitempty" yaml:"pruned,omitempty"`
	PruneErrors map[string]string `json:"prune_errors,omitempty" yaml:"prune_errors,omitempty"`
	Succeeded   int               `json:"succeeded" yaml:"succeeded"`
	Failed      int               `json:"failed" yaml:"failed"`
	Duration    string            `json:"duration" yaml:"duration"`

	// Error is set when the run as a whole failed, e.g. on timeout
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether nothing failed
func (b *Batch) OK() bool {
	return b.Failed == 0 && len(b.PruneErrors) == 0 && b.Error == ""
}

// FromBatch converts an engine result. runErr is the error returned next to
// the result, if any.
func FromBatch(result *materialize.BatchResult, runErr error) *Batch {
	b := &Batch{
		Destination: result.Destination,
		Mode:        string(result.Mode),
		Entries:     make([]Entry, 0, len(result.Entries)),
		Pruned:      result.Pruned,
		Duration:    result.Duration.Round(time.Millisecond).String(),
	}
	if runErr != nil {
		b.Error = runErr.Error()
	}

	for _, o := range result.Entries {
		e := Entry{
			Name:     o.Name,
			Status:   StatusOK,
			Kind:     string(o.Kind),
			Path:     o.Path,
			Source:   o.Source.Path,
			Replaced: o.Replaced,
		}
		if o.Err != nil {
			e.Status = StatusFailed
			e.Code = string(errors.GetErrorCode(o.Err))
			e.Error = o.Err.Error()
			b.Failed++
		} else {
			b.Succeeded++
		}
		b.Entries = append(b.Entries, e)
	}

	if len(result.PruneErrors) > 0 {
		b.PruneErrors = make(map[string]string, len(result.PruneErrors))
		for name, err := range result.PruneErrors {
			b.PruneErrors[name] = err.Error()
		}
	}
	return b
}

// Dependency is one manifest dependency, optionally resolved
type Dependency struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Main    string `json:"main,omitempty" yaml:"main,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Dependencies is the listing of one manifest
type Dependencies struct {
	Manifest     string       `json:"manifest" yaml:"manifest"`
	Resolved     bool         `json:"resolved" yaml:"resolved"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
}

// Sort orders dependencies by name
func (d *Dependencies) Sort() {
	sort.Slice(d.Dependencies, func(i, j int) bool {
		return d.Dependencies[i].Name < d.Dependencies[j].Name
	})
}
