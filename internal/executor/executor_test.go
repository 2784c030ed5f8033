package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// TestHelperProcess is not a real test. It is re-executed as the child
// process by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "no helper mode")
		os.Exit(2)
	}

	switch args[0] {
	case "echo":
		fmt.Print(strings.Join(args[1:], " "))
		fmt.Fprint(os.Stderr, "note")
	case "big":
		n, _ := strconv.Atoi(args[1])
		_, _ = os.Stdout.Write(bytes.Repeat([]byte("a"), n))
	case "fail":
		fmt.Print("partial output")
		fmt.Fprint(os.Stderr, "ERROR: unsupported URL")
		os.Exit(3)
	case "sleep":
		writePID(args[1], os.Getpid())
		time.Sleep(time.Minute)
	case "spawn":
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "sleep", args[2])
		child.Env = os.Environ()
		if err := child.Start(); err != nil {
			os.Exit(4)
		}
		for i := 0; i < 200; i++ {
			if _, err := os.Stat(args[2]); err == nil {
				break
			}
			time.Sleep(25 * time.Millisecond)
		}
		writePID(args[1], os.Getpid())
		time.Sleep(time.Minute)
	case "orphan":
		// Leave a background descendant holding the output pipes and exit.
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "sleep", args[1])
		child.Env = os.Environ()
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			os.Exit(4)
		}
		for i := 0; i < 200; i++ {
			if _, err := os.Stat(args[1]); err == nil {
				break
			}
			time.Sleep(25 * time.Millisecond)
		}
		fmt.Print("started")
	case "badutf8":
		_, _ = os.Stdout.Write([]byte{0xff, 0xfe, 0xfd})
	case "badutf8-stderr":
		_, _ = os.Stderr.Write([]byte{0xff, 0xfe, 0xfd})
	case "env":
		fmt.Print(os.Getenv(args[1]))
	default:
		fmt.Fprintf(os.Stderr, "unknown helper mode %q", args[0])
		os.Exit(2)
	}
	os.Exit(0)
}

func writePID(path string, pid int) {
	tmp := path + ".tmp"
	_ = os.WriteFile(tmp, []byte(strconv.Itoa(pid)), 0644)
	_ = os.Rename(tmp, path)
}

func readPID(t *testing.T, path string) int32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("pid file %s missing: %v", path, err)
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		t.Fatalf("bad pid file: %v", err)
	}
	return int32(pid)
}

// assertGone waits for pid to disappear. An unreaped zombie counts as gone:
// it holds no resources and cannot run.
func assertGone(t *testing.T, pid int32) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		exists, err := process.PidExists(pid)
		if err == nil && !exists {
			return
		}
		if p, err := process.NewProcess(pid); err == nil {
			if status, err := p.Status(); err == nil && slices.Contains(status, process.Zombie) {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("process %d is still running", pid)
}

func helperExecutor(timeout time.Duration, args ...string) *Executor {
	return &Executor{
		Path:    os.Args[0],
		Args:    append([]string{"-test.run=TestHelperProcess", "--"}, args...),
		Timeout: timeout,
		Env:     []string{"GO_WANT_HELPER_PROCESS=1"},
	}
}

func TestExecute_Success(t *testing.T) {
	res, err := helperExecutor(10*time.Second, "echo", "hello", "world").Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Stdout != "hello world" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello world")
	}
	if res.Stderr != "note" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "note")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExecute_LargeOutput(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "larger_than_pipe_buffer", size: 512 * 1024},
		{name: "several_megabytes", size: 4 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := helperExecutor(30*time.Second, "big", strconv.Itoa(tt.size)).Execute(context.Background())
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(res.Stdout) != tt.size {
				t.Errorf("len(Stdout) = %d, want %d", len(res.Stdout), tt.size)
			}
		})
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	res, err := helperExecutor(10*time.Second, "fail").Execute(context.Background())
	if res != nil {
		t.Errorf("expected no result on failure, got %+v", res)
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	if cmdErr.Code != 3 {
		t.Errorf("Code = %d, want 3", cmdErr.Code)
	}
	if cmdErr.Stderr != "ERROR: unsupported URL" {
		t.Errorf("Stderr = %q", cmdErr.Stderr)
	}
	if !strings.Contains(cmdErr.Error(), "code 3") {
		t.Errorf("Error() = %q, want exit code", cmdErr.Error())
	}
}

func TestExecute_InvalidUTF8(t *testing.T) {
	for _, mode := range []string{"badutf8", "badutf8-stderr"} {
		t.Run(mode, func(t *testing.T) {
			_, err := helperExecutor(10*time.Second, mode).Execute(context.Background())

			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("error = %v, want *CommandError", err)
			}
			if !strings.Contains(cmdErr.Msg, "UTF-8") {
				t.Errorf("Msg = %q", cmdErr.Msg)
			}
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")

	start := time.Now()
	res, err := helperExecutor(1500*time.Millisecond, "sleep", pidFile).Execute(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
	if res != nil {
		t.Errorf("expected no result on timeout, got %+v", res)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Second {
		t.Errorf("Execute took %s, expected prompt return after timeout", elapsed)
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		t.Error("timeout must not be reported as a command failure")
	}

	assertGone(t, readPID(t, pidFile))
}

func TestExecute_TimeoutKillsProcessTree(t *testing.T) {
	dir := t.TempDir()
	childPID := filepath.Join(dir, "child.pid")
	grandchildPID := filepath.Join(dir, "grandchild.pid")

	_, err := helperExecutor(5*time.Second, "spawn", childPID, grandchildPID).Execute(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}

	assertGone(t, readPID(t, childPID))
	assertGone(t, readPID(t, grandchildPID))
}

func TestExecute_TimeoutKillsOrphanedDescendant(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are unix only")
	}

	pidFile := filepath.Join(t.TempDir(), "orphan.pid")

	timeout := 3 * time.Second
	start := time.Now()
	_, err := helperExecutor(timeout, "orphan", pidFile).Execute(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > timeout+waitDelay {
		t.Errorf("Execute took %s, expected return soon after the %s timeout", elapsed, timeout)
	}

	assertGone(t, readPID(t, pidFile))
}

func TestExecute_ContextCancel(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	_, err := helperExecutor(time.Minute, "sleep", pidFile).Execute(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Execute() error = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation must be distinguishable from the executor timeout")
	}

	assertGone(t, readPID(t, pidFile))
}

func TestExecute_Env(t *testing.T) {
	e := helperExecutor(10*time.Second, "env", "MEDIAFETCH_ENV_CHECK")
	e.Env = append(e.Env, "MEDIAFETCH_ENV_CHECK=from-env")

	res, err := e.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stdout != "from-env" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "from-env")
	}
}

func TestExecute_StartFailure(t *testing.T) {
	e := &Executor{Path: filepath.Join(t.TempDir(), "does-not-exist")}

	_, err := e.Execute(context.Background())
	if err == nil {
		t.Fatal("expected error for missing executable")
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		t.Error("start failure must not be reported as a command failure")
	}
}

func TestCommandError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "exit_status",
			err:  &CommandError{Path: "yt-dlp", Code: 1, Stderr: "ERROR: Video unavailable"},
			want: "yt-dlp exited with code 1: ERROR: Video unavailable",
		},
		{
			name: "message",
			err:  &CommandError{Path: "ffmpeg", Msg: "stdout is not valid UTF-8"},
			want: "ffmpeg: stdout is not valid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
