//go:build linux

package power

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ExecReset replaces the running process with a fresh copy of itself, which
// starts over from main.
func ExecReset() error {
	path, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := unix.Exec(path, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
