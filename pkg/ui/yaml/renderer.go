// Package yaml provides machine-readable YAML output
package yaml

import (
	"io"

	"github.com/arthur-debert/deplink/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Renderer writes each result as its own YAML document
type Renderer struct {
	output io.Writer
}

// New creates a new YAML renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderResult renders any result type as YAML
func (r *Renderer) RenderResult(result interface{}) error {
	return r.encode(result)
}

// RenderError renders an error with its code as YAML
func (r *Renderer) RenderError(err error) error {
	return r.encode(map[string]string{
		"code":  string(errors.GetErrorCode(err)),
		"error": err.Error(),
	})
}

// RenderMessage renders a simple message as YAML
func (r *Renderer) RenderMessage(msg string) error {
	return r.encode(map[string]string{"message": msg})
}

// encode uses a fresh encoder per document so each one is flushed
func (r *Renderer) encode(v interface{}) error {
	encoder := yaml.NewEncoder(r.output)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
