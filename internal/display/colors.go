package display

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorSystem applies terminal colors when the output supports them
type ColorSystem struct {
	supported bool
	profile   termenv.Profile

	success *color.Color
	failure *color.Color
	warning *color.Color
	header  *color.Color
	muted   *color.Color
}

// NewColorSystem creates a color system with terminal detection.
// noColor forces plain output regardless of the terminal.
func NewColorSystem(noColor bool) *ColorSystem {
	cs := &ColorSystem{
		supported: !noColor && detectColorSupport(),
		profile:   termenv.ColorProfile(),
		success:   color.New(color.FgGreen),
		failure:   color.New(color.FgRed, color.Bold),
		warning:   color.New(color.FgYellow),
		header:    color.New(color.FgCyan, color.Bold),
		muted:     color.New(color.FgHiBlack),
	}
	if !cs.supported {
		color.NoColor = true
	}
	return cs
}

func detectColorSupport() bool {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// Supported reports whether colored output is active
func (cs *ColorSystem) Supported() bool {
	return cs.supported
}

// Success colors text for successful outcomes
func (cs *ColorSystem) Success(text string) string {
	if !cs.supported {
		return text
	}
	return cs.success.Sprint(text)
}

// Failure colors text for failed outcomes
func (cs *ColorSystem) Failure(text string) string {
	if !cs.supported {
		return text
	}
	return cs.failure.Sprint(text)
}

// Warning colors text for partial results
func (cs *ColorSystem) Warning(text string) string {
	if !cs.supported {
		return text
	}
	return cs.warning.Sprint(text)
}

// Header colors section headings
func (cs *ColorSystem) Header(text string) string {
	if !cs.supported {
		return text
	}
	return cs.header.Sprint(text)
}

// Muted colors secondary detail text
func (cs *ColorSystem) Muted(text string) string {
	if !cs.supported {
		return text
	}
	return cs.muted.Sprint(text)
}
