package terminal

import (
	"os"

	"golang.org/x/term"
)

// Width returns the column width of the terminal attached to stdout,
// or 80 if stdout is not a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
