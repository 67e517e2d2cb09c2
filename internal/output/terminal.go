package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal. Anything that is not an
// *os.File (buffers, pipes wrapped in writers) is treated as a non-terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShouldDisableColor combines the --no-color flag with terminal detection.
func ShouldDisableColor(noColor bool, w io.Writer) bool {
	return noColor || !IsTerminal(w)
}
