//go:build !linux

package power

import "errors"

// ExecReset is not available on non-Linux platforms.
func ExecReset() error {
	return errors.New("power: reset not supported on this platform (requires Linux)")
}
