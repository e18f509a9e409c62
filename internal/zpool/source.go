package zpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Source produces the current pool status. An empty pool list means all
// pools.
type Source interface {
	Status(ctx context.Context, pools []string) (*Status, error)
}

// CommandError describes a failed status command.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Argv, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// CommandSource runs `<prefix> status -j [pools...]`. The prefix is usually
// just "zpool" but may wrap it, e.g. "chroot /host zpool".
type CommandSource struct {
	prefix []string
}

// NewCommandSource creates a source that invokes the given command prefix.
func NewCommandSource(prefix []string) *CommandSource {
	if len(prefix) == 0 {
		prefix = []string{"zpool"}
	}
	return &CommandSource{prefix: prefix}
}

// Argv returns the full command line for the given pools.
func (s *CommandSource) Argv(pools []string) []string {
	argv := make([]string, 0, len(s.prefix)+2+len(pools))
	argv = append(argv, s.prefix...)
	argv = append(argv, "status", "-j")
	return append(argv, pools...)
}

func (s *CommandSource) Status(ctx context.Context, pools []string) (*Status, error) {
	argv := s.Argv(pools)
	slog.Debug("executing command", "argv", argv)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cerr := &CommandError{
			Argv:     argv,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		return nil, cerr
	}

	slog.Debug("command output", "stdout", stdout.String())
	return Decode(stdout.Bytes())
}
