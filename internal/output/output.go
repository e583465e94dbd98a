// Package output renders batch reports for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caqueta-electoral/divipola/internal/census"
)

// Supported report formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted --format values.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q, expected one of %s", s, strings.Join(Formats, ", "))
}

// Write renders v as JSON or YAML, or calls text for the plain format.
func Write(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return text(w)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// ExitError carries a process exit status through cobra's error return.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Table writes aligned "label: value" lines.
func Table(w io.Writer, rows [][2]string) error {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width+1, r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}

// Issues lists rejected and failed census rows under the summary.
func Issues(w io.Writer, invalid, failed []census.RowIssue) error {
	for _, group := range []struct {
		label string
		rows  []census.RowIssue
	}{{"invalid", invalid}, {"failed", failed}} {
		for _, row := range group.rows {
			if _, err := fmt.Fprintf(w, "  %s line %d %s: %s\n", group.label, row.Line, row.Key, row.Reason); err != nil {
				return err
			}
		}
	}
	return nil
}
