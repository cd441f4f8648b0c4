// Package launcher assembles the external tool's command line and starts it,
// either by replacing the current process image (the container-entrypoint
// path) or as a supervised child. It performs no validation, no retries, and
// no rewriting of the tool's output: failures belong to the tool.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
)

// SplitArgs splits a raw pass-through argument string on whitespace. This
// mirrors unquoted $ARGS expansion: runs of spaces and tabs separate words
// and there is no quote grouping.
func SplitArgs(args string) []string {
	return strings.Fields(args)
}

// Argv builds the full command line: the tool, the connection URI, then the
// pass-through arguments in order.
func Argv(tool, uri, args string) []string {
	argv := []string{tool, uri}
	return append(argv, SplitArgs(args)...)
}

// Supervise runs argv as a child process with inherited stdio and
// environment, forwarding SIGINT and SIGTERM, and returns the child's exit
// code once it finishes. onStart is called with the child's PID after a
// successful start; a nil onStart is fine.
func Supervise(ctx context.Context, logger *slog.Logger, argv []string, onStart func(pid int)) (int, error) {
	if len(argv) == 0 {
		return -1, fmt.Errorf("empty command line")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	if onStart != nil {
		onStart(cmd.Process.Pid)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigCh:
			logger.Info("forwarding signal to child", "signal", sig.String(), "pid", cmd.Process.Pid)
			if err := cmd.Process.Signal(sig); err != nil {
				logger.Error("failed to forward signal", "error", err)
			}
		case err := <-done:
			if err == nil {
				return 0, nil
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return exitErr.ExitCode(), nil
			}
			return -1, fmt.Errorf("failed to wait for %s: %w", argv[0], err)
		}
	}
}
