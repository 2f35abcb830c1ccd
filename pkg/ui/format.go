package ui

import (
	"os"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format selects how results are written
type Format int

const (
	FormatAuto Format = iota // term on a color terminal, text otherwise
	FormatTerminal
	FormatText
	FormatJSON
	FormatYAML
)

var formatNames = [...]string{
	FormatAuto:     "auto",
	FormatTerminal: "term",
	FormatText:     "text",
	FormatJSON:     "json",
	FormatYAML:     "yaml",
}

// accepted by ParseFormat next to the names above
var formatAliases = map[string]Format{
	"":         FormatAuto,
	"terminal": FormatTerminal,
	"plain":    FormatText,
	"yml":      FormatYAML,
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// ParseFormat reads the output.format setting, ignoring case
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if f, ok := formatAliases[name]; ok {
		return f, nil
	}
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return FormatAuto, errors.Newf(errors.ErrInvalidInput, "unknown format: %s", s).
		WithDetail("format", s)
}

// DetectFormat resolves FormatAuto for output. Pipes, files, NO_COLOR and
// terminals without color all get plain text.
func DetectFormat(output *os.File) Format {
	if os.Getenv("NO_COLOR") != "" {
		return FormatText
	}
	fd := output.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return FormatText
	}
	if termenv.NewOutput(output).ColorProfile() == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}
