// Package ui renders deplink results in the format the user asked for.
// It supports terminal (rich), text (plain), JSON and YAML output.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/deplink/pkg/ui/json"
	"github.com/arthur-debert/deplink/pkg/ui/terminal"
	"github.com/arthur-debert/deplink/pkg/ui/text"
	"github.com/arthur-debert/deplink/pkg/ui/yaml"
)

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderResult renders a view.Batch or view.Dependencies
	RenderResult(result interface{}) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a new renderer based on the specified format.
// It automatically detects terminal capabilities when format is Auto.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		// not a terminal we can inspect
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return terminal.New(output)
	case FormatText:
		return text.New(output)
	case FormatJSON:
		return json.New(output)
	case FormatYAML:
		return yaml.New(output)
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}
