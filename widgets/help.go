package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeySection groups related key bindings under a title
type KeySection struct {
	Title string
	Keys  []key.Binding
}

// RenderKeyHelp formats key bindings as an aligned two-column list.
// Disabled bindings are skipped.
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		var rows []string
		for _, k := range sec.Keys {
			if !k.Enabled() {
				continue
			}
			h := k.Help()
			rows = append(rows, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
		}
		if len(rows) == 0 {
			continue
		}
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		lines = append(lines, rows...)
	}
	return strings.Join(lines, "\n")
}
