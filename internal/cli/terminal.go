package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Terminal describes where diagnostics are written
type Terminal struct {
	IsTerminal bool
	UseColor   bool
}

// NewTerminal inspects w. Only files attached to a terminal get color,
// unless NO_COLOR is set.
func NewTerminal(w io.Writer) *Terminal {
	f, ok := w.(*os.File)
	isTerminal := ok && term.IsTerminal(int(f.Fd()))
	return &Terminal{
		IsTerminal: isTerminal,
		UseColor:   isTerminal && os.Getenv("NO_COLOR") == "",
	}
}

// newLogger creates the console logger commands write diagnostics to
func newLogger(w io.Writer, level string, color bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), err
	}

	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.TimeOnly,
	}

	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger(), nil
}
