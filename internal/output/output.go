// Package output renders command results on stdout as YAML or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format selects the rendering for command results.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// active is set once by the root command's --output flag.
var active = FormatYAML

// SetFormat selects the process-wide output format. Unknown values fall
// back to YAML.
func SetFormat(format string) {
	switch format {
	case "json":
		active = FormatJSON
	default:
		active = FormatYAML
	}
}

// ActiveFormat returns the current output format.
func ActiveFormat() Format {
	return active
}

// Print writes data to stdout in the active format.
func Print(data any) error {
	return Fprint(os.Stdout, active, data)
}

// Fprint writes data to w in the given format.
func Fprint(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
