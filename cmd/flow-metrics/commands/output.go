package commands

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// render writes payload as indented JSON, followed by every non-empty chart
// when Mermaid output is enabled.
func render(w io.Writer, payload any, mermaid bool, charts ...string) error {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(out)); err != nil {
		return err
	}
	if !mermaid {
		return nil
	}
	for _, c := range charts {
		if c == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", c); err != nil {
			return err
		}
	}
	return nil
}
