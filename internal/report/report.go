package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// Render converts Markdown source into an HTML fragment suitable for
// embedding in the dashboard or feeding to the PDF export step.
func Render(markdownSource string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdownSource), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Compose builds a single Markdown report out of one or more page
// conversions, in the order given.
func Compose(title string, sections map[string]string, order []string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", title)
	for _, key := range order {
		body, ok := sections[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "## %s\n\n%s\n\n", key, body)
	}
	return buf.String()
}
