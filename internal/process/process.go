// Package process tears down browser process trees that outlive their
// automation connection.
package process

import "errors"

// ErrInvalidPID guards against signalling pid 0 or negative ids, which
// would target the caller's own process group.
var ErrInvalidPID = errors.New("process: invalid pid")

// KillTree force-kills pid and every process it spawned. Errors are
// informational: the process may already be gone.
func KillTree(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	return killTree(pid)
}
