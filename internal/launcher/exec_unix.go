//go:build unix

package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Exec replaces the current process image with argv. The environment is
// passed through unchanged and, on success, this function never returns: the
// launcher's exit status becomes the tool's own.
func Exec(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command line")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("failed to locate %s: %w", argv[0], err)
	}

	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("failed to exec %s: %w", path, err)
	}
	return nil
}
