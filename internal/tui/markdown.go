package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/Makepad-fr/tada/internal/ui"
)

var (
	mdMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle queries the terminal and
	// can block, so the style is fixed.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownStyle() string {
	if ui.Current().Name == "mono" {
		return styles.NoTTYStyle
	}
	return styles.DarkStyle
}

// renderMarkdown renders a description for the detail dialog. It falls back
// to the raw text if glamour cannot render it.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = r
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
