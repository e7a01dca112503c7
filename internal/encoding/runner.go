package encoding

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Command is one external process invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
}

// CommandResult captures a finished process.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

// Run executes cmd and captures stdout, stderr and the exit code. ExitCode is
// -1 when the process could not be started or was killed by a signal.
func (ExecRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}
