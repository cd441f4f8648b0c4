//go:build !unix

package launcher

import "fmt"

// Exec is unix-only; other platforms run the tool supervised instead.
func Exec(argv []string) error {
	return fmt.Errorf("process replacement is not supported on this platform; enable supervise mode")
}
