package executil

import (
	"context"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir  string
	Cmd  string
	Args []string
}

// String returns the command as a single space-joined line.
func (c RecordedCommand) String() string {
	return strings.Join(append([]string{c.Cmd}, c.Args...), " ")
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values. Lookups
// try the full space-joined command line first (e.g. "git rev-parse HEAD"),
// then fall back to the bare command name (e.g. "git").
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand
	// Outputs maps command lines to their stdout.
	Outputs map[string][]byte
	// Errors maps command lines to their error.
	Errors map[string]error
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record("", cmd, args...)
}

// RunDir records the command with directory and returns configured output/error.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	return e.record(dir, cmd, args...)
}

func (e *RecordingExecutor) record(dir, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := RecordedCommand{
		Dir:  dir,
		Cmd:  cmd,
		Args: args,
	}
	e.Commands = append(e.Commands, rec)

	var out []byte
	var err error
	if e.Outputs != nil {
		var ok bool
		out, ok = e.Outputs[rec.String()]
		if !ok {
			out = e.Outputs[cmd]
		}
	}
	if e.Errors != nil {
		var ok bool
		err, ok = e.Errors[rec.String()]
		if !ok {
			err = e.Errors[cmd]
		}
	}
	return out, err
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
