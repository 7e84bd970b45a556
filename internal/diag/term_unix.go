//go:build unix

package diag

import (
	"golang.org/x/sys/unix"
)

// terminalWidth returns the column count of the terminal on fd, or 0.
func terminalWidth(fd int) int {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0
	}
	return int(ws.Col)
}
