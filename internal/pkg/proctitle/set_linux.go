//go:build linux

package proctitle

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// the kernel keeps 15 bytes plus the terminator
const commMax = 15

// Set names the process so ps and top show title instead of the binary name.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	comm := make([]byte, commMax+1)
	copy(comm[:commMax], title)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&comm[0])), 0, 0, 0)
}
