//go:build !unix

package diag

import (
	"golang.org/x/term"
)

// terminalWidth returns the column count of the terminal on fd, or 0.
func terminalWidth(fd int) int {
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
