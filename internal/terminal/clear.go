// Package terminal provides small terminal helpers: TTY detection, hidden
// input and clearing previously printed prompt lines.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal on f, or 80 when unknown.
func Width(f *os.File) int {
	if f != nil {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

// ReadSecret prints prompt to w and reads a line from in without echo.
func ReadSecret(w io.Writer, in *os.File, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

// LinesUsed returns how many terminal rows textLength characters occupy at
// the given width, plus the empty row left after Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	lines := int(math.Ceil(float64(textLength) / float64(width)))
	if lines < 1 {
		lines = 1
	}
	return lines + 1
}

// ClearPreviousLines erases the rows used by a prompt of textLength
// characters, leaving the cursor at the start of the topmost one.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	n := LinesUsed(textLength, width)
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
