//go:build linux

package media

import "golang.org/x/sys/unix"

// Valid reports whether FD is an open descriptor in this process.
func (d DMABuf) Valid() bool {
	if d.FD < 0 {
		return false
	}
	_, err := unix.FcntlInt(uintptr(d.FD), unix.F_GETFD, 0)
	return err == nil
}
