// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/arthur-debert/deplink/pkg/ui/view"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderResult renders any result type as plain text
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *view.Batch:
		return r.renderBatch(v)
	case *view.Dependencies:
		return r.renderDependencies(v)
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, err2 := fmt.Fprintf(r.output, "Error: %v\n", err)
	return err2
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

func (r *Renderer) renderBatch(b *view.Batch) error {
	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	for _, e := range b.Entries {
		if e.Status == view.StatusOK {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Status, e.Name, e.Kind, e.Path)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Status, e.Name, e.Code, e.Error)
		}
	}
	for _, name := range b.Pruned {
		fmt.Fprintf(tw, "pruned\t%s\t\t\n", name)
	}
	names := make([]string, 0, len(b.PruneErrors))
	for name := range b.PruneErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(tw, "failed\t%s\tprune\t%s\n", name, b.PruneErrors[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(r.output, "%d succeeded, %d failed (%s mode, %s) in %s\n",
		b.Succeeded, b.Failed, b.Mode, b.Destination, b.Duration)
	if err == nil && b.Error != "" {
		_, err = fmt.Fprintf(r.output, "Error: %s\n", b.Error)
	}
	return err
}

func (r *Renderer) renderDependencies(d *view.Dependencies) error {
	if len(d.Dependencies) == 0 {
		_, err := fmt.Fprintf(r.output, "No dependencies declared in %s\n", d.Manifest)
		return err
	}

	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	for _, dep := range d.Dependencies {
		switch {
		case !d.Resolved:
			fmt.Fprintf(tw, "%s\t%s\n", dep.Name, dep.Version)
		case dep.Error != "":
			fmt.Fprintf(tw, "%s\t%s\t%s\n", dep.Name, dep.Version, dep.Error)
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", dep.Name, dep.Version, dep.Path)
		}
	}
	return tw.Flush()
}
