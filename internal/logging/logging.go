package logging

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Format selects how log records are rendered.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Setup installs a charmbracelet/log backed slog logger as the process default.
// With FormatAuto, colored text is used on a terminal and JSON otherwise.
func Setup(verbose bool, format Format) {
	slog.SetDefault(New(os.Stderr, verbose, format))
}

// New builds a slog logger writing to w.
func New(w io.Writer, verbose bool, format Format) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "prwright",
	})

	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	switch format {
	case FormatJSON:
		handler.SetFormatter(charmlog.JSONFormatter)
	case FormatText:
		handler.SetFormatter(charmlog.TextFormatter)
	default:
		if !isTerminal(w) {
			handler.SetFormatter(charmlog.JSONFormatter)
		}
	}

	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
