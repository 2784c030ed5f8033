// Package executor runs external tools as subprocesses with a timeout.
//
// Standard output is drained concurrently with waiting for the process to
// exit. Tools such as yt-dlp write metadata documents far larger than a pipe
// buffer, and a child blocked on a full pipe never exits.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
)

const (
	// DefaultTimeout bounds a single invocation when Executor.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	// waitDelay bounds how long Wait keeps copying stderr after the process
	// exits, in case a descendant inherited the pipe.
	waitDelay = 2 * time.Second
)

// ErrTimeout means the process exceeded its time budget and was killed.
var ErrTimeout = errors.New("process timed out")

// Result is the output of a successful invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports that the tool itself failed: a non-zero exit status
// or output that is not valid UTF-8.
type CommandError struct {
	Path   string
	Code   int
	Stderr string
	// Msg describes failures other than the exit status.
	Msg string
}

func (e *CommandError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Path, e.Code, e.Stderr)
}

// Executor describes one invocation of an executable.
type Executor struct {
	Path    string
	Args    []string
	Timeout time.Duration
	// Env is appended to the current environment.
	Env    []string
	Logger logging.Logger
}

// Execute runs the process to completion. On timeout or cancellation the
// whole process tree is killed and reaped before Execute returns, and no
// partial output is returned.
func (e *Executor) Execute(ctx context.Context) (*Result, error) {
	logger := logging.OrNop(e.Logger)

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmd := exec.Command(e.Path, e.Args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.WaitDelay = waitDelay
	configureCommand(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stdout = stdoutW

	logger.Debug("executing", "path", e.Path, "args", e.Args, "timeout", timeout)

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("start %s: %w", e.Path, err)
	}
	// The child holds its own copy of the write end.
	stdoutW.Close()

	var stdout bytes.Buffer
	drained := make(chan error, 1)
	go func() {
		_, err := io.Copy(&stdout, stdoutR)
		drained <- err
	}()

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr, copyErr error
	for exited != nil || drained != nil {
		select {
		case waitErr = <-exited:
			exited = nil
		case copyErr = <-drained:
			drained = nil
		case <-timer.C:
			e.abort(cmd, stdoutR, exited, drained, logger)
			return nil, fmt.Errorf("%s: %w after %s", e.Path, ErrTimeout, timeout)
		case <-ctx.Done():
			e.abort(cmd, stdoutR, exited, drained, logger)
			return nil, fmt.Errorf("run %s: %w", e.Path, ctx.Err())
		}
	}
	stdoutR.Close()

	if copyErr != nil {
		return nil, fmt.Errorf("read stdout of %s: %w", e.Path, copyErr)
	}

	code := cmd.ProcessState.ExitCode()

	if !utf8.Valid(stdout.Bytes()) {
		return nil, &CommandError{Path: e.Path, Code: code, Msg: "stdout is not valid UTF-8"}
	}
	if !utf8.Valid(stderr.Bytes()) {
		return nil, &CommandError{Path: e.Path, Code: code, Msg: "stderr is not valid UTF-8"}
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		return nil, &CommandError{Path: e.Path, Code: exitErr.ExitCode(), Stderr: stderr.String()}
	case waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay):
		return nil, fmt.Errorf("wait for %s: %w", e.Path, waitErr)
	}

	logger.Debug("executed", "path", e.Path, "code", code, "stdout_bytes", stdout.Len())

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: code,
	}, nil
}

// abort kills the process tree, then waits for whichever of the drain and
// wait goroutines are still running so the child is reaped.
func (e *Executor) abort(cmd *exec.Cmd, stdoutR *os.File, exited, drained <-chan error, logger logging.Logger) {
	if err := killProcessTree(cmd.Process.Pid); err != nil {
		logger.Warn("kill process tree", "path", e.Path, "pid", cmd.Process.Pid, "error", err)
		// Fall back to the direct child at least.
		_ = cmd.Process.Kill()
	}

	stdoutR.Close()

	if exited != nil {
		<-exited
	}
	if drained != nil {
		<-drained
	}
}

// killTree kills pid and all of its descendants found through gopsutil.
// Descendants are collected before the parent dies, since they are
// reparented afterwards.
func killTree(pid int32) error {
	root, err := process.NewProcess(pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("find process %d: %w", pid, err)
	}

	descendants := collectDescendants(root)

	var errs []error
	if err := root.Kill(); err != nil {
		errs = append(errs, fmt.Errorf("kill %d: %w", pid, err))
	}
	for _, p := range descendants {
		if running, _ := p.IsRunning(); !running {
			continue
		}
		if err := p.Kill(); err != nil {
			errs = append(errs, fmt.Errorf("kill %d: %w", p.Pid, err))
		}
	}

	return errors.Join(errs...)
}

func collectDescendants(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}

	var all []*process.Process
	for _, child := range children {
		all = append(all, child)
		all = append(all, collectDescendants(child)...)
	}
	return all
}
