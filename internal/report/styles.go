package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	successColor = lipgloss.Color("#8BC34A")
	failureColor = lipgloss.Color("#e53935")
)

type styles struct {
	enabled  bool
	complete lipgloss.Style
	failed   lipgloss.Style
}

func newStyles(w io.Writer, mode string) styles {
	enabled := false
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorNever:
	default:
		enabled = isTerminal(w)
	}

	r := lipgloss.NewRenderer(w)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		enabled:  enabled,
		complete: r.NewStyle().Bold(true).Foreground(successColor),
		failed:   r.NewStyle().Bold(true).Foreground(failureColor),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
