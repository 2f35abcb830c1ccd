// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"sort"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/ui/styles"
	"github.com/arthur-debert/deplink/pkg/ui/view"
	"github.com/pterm/pterm"
)

// Renderer provides rich terminal output using lipgloss styles and pterm tables
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	return &Renderer{output: w}, nil
}

// RenderResult renders any result type with rich terminal formatting
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

// RenderError renders an error with its code highlighted
func (r *Renderer) RenderError(err error) error {
	code := errors.GetErrorCode(err)
	_, werr := fmt.Fprintf(r.output, "%s %s\n",
		styles.Render("ErrorBadge", string(code)),
		styles.Render("Error", err.Error()))
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

func (r *Renderer) renderBatch(b *view.Batch) error {
	header := fmt.Sprintf("%s dependencies into %s",
		modeVerb(b.Mode), styles.Render("FilePath", b.Destination))
	if _, err := fmt.Fprintln(r.output, styles.Render("Header", header)); err != nil {
		return err
	}

	for _, e := range b.Entries {
		var line string
		if e.Status == view.StatusOK {
			note := ""
			if e.Replaced {
				note = styles.Render("MutedItalic", " (replaced)")
			}
			line = fmt.Sprintf("  %s %s%s%s%s",
				styles.Render("Success", "✓"),
				styles.Render("Name", e.Name),
				styles.Render("Kind", e.Kind),
				styles.Render("Muted", e.Path),
				note)
		} else {
			line = fmt.Sprintf("  %s %s%s %s",
				styles.Render("Error", "✗"),
				styles.Render("Name", e.Name),
				styles.Render("Code", e.Code),
				styles.Render("Error", e.Error))
		}
		if _, err := fmt.Fprintln(r.output, line); err != nil {
			return err
		}
	}

	for _, name := range b.Pruned {
		if _, err := fmt.Fprintf(r.output, "  %s %s\n", styles.Render("Muted", "-"), styles.Render("Muted", name)); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(b.PruneErrors))
	for name := range b.PruneErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(r.output, "  %s %s %s\n",
			styles.Render("Warning", "!"), styles.Render("Name", name),
			styles.Render("Warning", b.PruneErrors[name])); err != nil {
			return err
		}
	}

	badge := styles.Render("SuccessBadge", "OK")
	if !b.OK() {
		badge = styles.Render("ErrorBadge", "FAILED")
	}
	summary := fmt.Sprintf("%s %d succeeded, %d failed in %s", badge, b.Succeeded, b.Failed, b.Duration)
	if _, err := fmt.Fprintln(r.output, styles.Render("Summary", summary)); err != nil {
		return err
	}
	if b.Error != "" {
		_, err := fmt.Fprintln(r.output, styles.Render("Error", b.Error))
		return err
	}
	return nil
}

func (r *Renderer) renderDependencies(d *view.Dependencies) error {
	if len(d.Dependencies) == 0 {
		_, err := fmt.Fprintln(r.output, styles.Render("MutedItalic", "No dependencies declared in "+d.Manifest))
		return err
	}

	data := pterm.TableData{{"Name", "Version"}}
	if d.Resolved {
		data[0] = append(data[0], "Installed at")
	}
	for _, dep := range d.Dependencies {
		row := []string{dep.Name, dep.Version}
		if d.Resolved {
			if dep.Error != "" {
				row = append(row, styles.Render("Error", "unresolved"))
			} else {
				row = append(row, dep.Path)
			}
		}
		data = append(data, row)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.output, table)
	return err
}

func modeVerb(mode string) string {
	if mode == "link" {
		return "Linked"
	}
	return "Copied"
}
