//go:build unix

package process

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func mustSpawn(t *testing.T, opts SpawnOptions) *Handle {
	t.Helper()
	h, err := Spawn(opts)
	if err != nil {
		t.Fatalf("Spawn(%v) failed: %v", opts.Command, err)
	}
	return h
}

func TestSpawnAndJoin(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"true"}})
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !status.Successful() {
		t.Errorf("status = %v, want success", status)
	}
	if !h.Joined() {
		t.Error("Joined() = false after Join")
	}
	if got, ok := h.ExitStatus(); !ok || got != status {
		t.Errorf("ExitStatus() = %v, %v, want %v, true", got, ok, status)
	}
}

func TestJoinNonzeroExit(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"sh", "-c", "exit 7"}})
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if status.Code != 7 || status.Signal != 0 {
		t.Errorf("status = %+v, want code 7", status)
	}
	var exitErr *ExitError
	if err := status.Check(); !errors.As(err, &exitErr) {
		t.Errorf("Check() = %v, want *ExitError", err)
	}
}

func TestStdoutPipe(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"echo", "Howdy"},
		Stdout:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got := string(out.Stdout); got != "Howdy\n" {
		t.Errorf("stdout = %q, want %q", got, "Howdy\n")
	}
	if len(out.Stderr) != 0 {
		t.Errorf("stderr = %q, want empty", out.Stderr)
	}
	if status, err := h.Join(); err != nil || !status.Successful() {
		t.Fatalf("Join = %v, %v", status, err)
	}
}

func TestStdinRoundTrip(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"cat"},
		Stdin:   Pipe(),
		Stdout:  Pipe(),
	})
	if !h.HasStdin() || !h.HasStdout() {
		t.Fatal("expected open stdin and stdout pipes")
	}
	if _, err := h.WriteInput([]byte("Hello!")); err != nil {
		t.Fatalf("WriteInput failed: %v", err)
	}
	if err := h.CloseStdin(); err != nil {
		t.Fatalf("CloseStdin failed: %v", err)
	}
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got := string(out.Stdout); got != "Hello!" {
		t.Errorf("round trip = %q, want %q", got, "Hello!")
	}
	if _, err := h.WriteInput([]byte("x")); !errors.Is(err, ErrStdinNotPiped) {
		t.Errorf("WriteInput after close = %v, want ErrStdinNotPiped", err)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestStderrCapture(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sh", "-c", "echo out; echo err >&2"},
		Stdout:  Pipe(),
		Stderr:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got := string(out.Stdout); got != "out\n" {
		t.Errorf("stdout = %q, want %q", got, "out\n")
	}
	if got := string(out.Stderr); got != "err\n" {
		t.Errorf("stderr = %q, want %q", got, "err\n")
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestMergeStderrIntoStdout(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sh", "-c", "echo out; echo err >&2"},
		Stdout:  Pipe(),
		Stderr:  MergeStdout(),
	})
	if h.HasStderr() {
		t.Fatal("merged stderr should not have its own pipe")
	}
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	merged := string(out.Stdout)
	if !strings.Contains(merged, "out\n") || !strings.Contains(merged, "err\n") {
		t.Errorf("merged output = %q, want both lines", merged)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestFileRedirect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("stale contents that must vanish"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"echo", "fresh"},
		Stdout:  File(path),
	})
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "fresh\n" {
		t.Errorf("file contents = %q, want truncated then %q", got, "fresh\n")
	}
}

func TestStdinFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("from a file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"cat"},
		Stdin:   File(path),
		Stdout:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got := string(out.Stdout); got != "from a file\n" {
		t.Errorf("stdout = %q", got)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestDiscardedStdinReadsEOF(t *testing.T) {
	// With stdin discarded, cat sees immediate EOF and exits cleanly
	// instead of hanging on the parent's terminal.
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"cat"},
		Stdout:  Discard(),
	})
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !status.Successful() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"pwd"},
		Dir:     dir,
		Stdout:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	got := strings.TrimSpace(string(out.Stdout))
	if got != dir && got != resolved {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestLaunchFailureIsSynchronous(t *testing.T) {
	_, err := Spawn(SpawnOptions{Command: []string{"definitely-not-a-real-program-xyz"}})
	if err == nil {
		t.Fatal("expected a launch error")
	}
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("error = %T, want *LaunchError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(err, fs.ErrNotExist) = false for %v", err)
	}
}

func TestLaunchFailurePathLookupDisabled(t *testing.T) {
	_, err := Spawn(SpawnOptions{
		Command:           []string{"true"},
		DisablePathLookup: true,
	})
	if err == nil {
		t.Fatal("expected a launch error for a bare name with lookup disabled")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(err, fs.ErrNotExist) = false for %v", err)
	}
}

func TestSignalTermination(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"sleep", "30"}})
	if !h.IsRunning() {
		t.Fatal("child should be running")
	}
	if err := h.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if status.Signal != syscall.SIGINT {
		t.Errorf("status = %v, want termination by SIGINT", status)
	}
	if status.Code != 0 {
		t.Errorf("code = %d, want 0 alongside a signal", status.Code)
	}
}

func TestKill(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"sleep", "30"}})
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if status.Signal != syscall.SIGKILL {
		t.Errorf("status = %v, want termination by SIGKILL", status)
	}
}

func TestIsRunningPreservesStatus(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"true"}})
	// Give the child time to exit, then peek repeatedly. The peek may
	// reap the child internally but the status must survive for Join.
	deadline := time.Now().Add(5 * time.Second)
	for h.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("child never exited")
		}
		time.Sleep(time.Millisecond)
	}
	if h.IsRunning() {
		t.Error("second peek should still report not running")
	}
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join after peek failed: %v", err)
	}
	if !status.Successful() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestTryJoin(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"cat"},
		Stdin:   Pipe(),
	})
	if _, done, err := h.TryJoin(); err != nil || done {
		t.Fatalf("TryJoin on a running child = done %v, err %v", done, err)
	}
	if err := h.CloseStdin(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, done, err := h.TryJoin()
		if err != nil {
			t.Fatalf("TryJoin failed: %v", err)
		}
		if done {
			if !status.Successful() {
				t.Errorf("status = %v, want success", status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("child never exited")
		}
		time.Sleep(time.Millisecond)
	}
	// A joined handle keeps answering with the recorded status.
	if status, done, err := h.TryJoin(); err != nil || !done || !status.Successful() {
		t.Errorf("TryJoin after join = %v, %v, %v", status, done, err)
	}
}

func TestDoubleJoinPanics(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"true"}})
	if _, err := h.Join(); err != nil {
		t.Fatalf("first Join failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("second Join did not panic")
		}
	}()
	h.Join()
}

func TestSignalAfterJoinPanics(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{Command: []string{"true"}})
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("Signal after Join did not panic")
		}
	}()
	h.Signal(syscall.SIGTERM)
}

func TestDetach(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sleep", "0.1"},
		Stdout:  Pipe(),
	})
	pid := h.Pid()
	h.Detach()
	if h.IsRunning() {
		t.Error("detached handle must report not running")
	}
	if h.HasStdout() {
		t.Error("detach must close pipe endpoints")
	}
	if pid <= 0 {
		t.Errorf("pid = %d", pid)
	}
	defer func() {
		if recover() == nil {
			t.Error("Join on a detached handle did not panic")
		}
	}()
	h.Join()
}

func TestReadOutputIntoTimeout(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sleep", "30"},
		Stdout:  Pipe(),
	})
	defer func() {
		h.Kill()
		h.Join()
	}()
	var out Output
	start := time.Now()
	if err := h.ReadOutputInto(&out, 50*time.Millisecond); err != nil {
		t.Fatalf("ReadOutputInto failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("bounded read took %v", elapsed)
	}
	if len(out.Stdout) != 0 {
		t.Errorf("stdout = %q, want nothing from a silent child", out.Stdout)
	}
}

func TestReadOutputIntoAppends(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sh", "-c", "printf alpha; printf beta"},
		Stdout:  Pipe(),
	})
	var out Output
	for h.HasStdout() {
		if err := h.ReadOutputInto(&out, -1); err != nil {
			t.Fatalf("ReadOutputInto failed: %v", err)
		}
	}
	if !bytes.Equal(out.Stdout, []byte("alphabeta")) {
		t.Errorf("accumulated stdout = %q, want %q", out.Stdout, "alphabeta")
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestLargeOutput(t *testing.T) {
	// Well past the pipe buffer, forcing interleaved multiplexed reads
	// while the child is still writing.
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sh", "-c", "i=0; while [ $i -lt 2000 ]; do echo 0123456789012345678901234567890123456789; i=$((i+1)); done"},
		Stdout:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got, want := len(out.Stdout), 2000*41; got != want {
		t.Errorf("stdout length = %d, want %d", got, want)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestNewProcessGroup(t *testing.T) {
	h := mustSpawn(t, SpawnOptions{
		Command:         []string{"sleep", "30"},
		NewProcessGroup: true,
	})
	// The child leads its own group, so its group id equals its pid and
	// a group-directed signal does not touch this test process.
	pgid, err := syscall.Getpgid(h.Pid())
	if err != nil {
		t.Fatalf("Getpgid failed: %v", err)
	}
	if pgid != h.Pid() {
		t.Errorf("pgid = %d, want %d", pgid, h.Pid())
	}
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		t.Fatalf("group kill failed: %v", err)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestPtySpawn(t *testing.T) {
	h, err := Spawn(SpawnOptions{
		Command: []string{"sh", "-c", "test -t 0 && test -t 1 && echo isatty"},
		Stdin:   Pipe(),
		Stdout:  Pipe(),
		Pty:     true,
	})
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if !strings.Contains(string(out.Stdout), "isatty") {
		t.Errorf("pty output = %q, want isatty marker", out.Stdout)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

func TestSpawnCommand(t *testing.T) {
	h, err := SpawnCommand("true")
	if err != nil {
		t.Fatalf("SpawnCommand failed: %v", err)
	}
	if status, err := h.Join(); err != nil || !status.Successful() {
		t.Fatalf("Join = %v, %v", status, err)
	}
}

func TestSpawnCommandWithArgs(t *testing.T) {
	h, err := SpawnCommand("sh", "-c", "exit 7")
	if err != nil {
		t.Fatalf("SpawnCommand failed: %v", err)
	}
	status, err := h.Join()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if status.Code != 7 {
		t.Errorf("exit code = %d, want 7", status.Code)
	}
}

func TestEnvMergedOverParent(t *testing.T) {
	t.Setenv("GOSPAWN_INHERITED", "from-parent")
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sh", "-c", `echo "$GOSPAWN_INHERITED:$GOSPAWN_INJECTED"`},
		Env:     map[string]string{"GOSPAWN_INJECTED": "injected"},
		Stdout:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got := string(out.Stdout); got != "from-parent:injected\n" {
		t.Errorf("child env = %q", got)
	}
	if status, err := h.Join(); err != nil || !status.Successful() {
		t.Fatalf("Join = %v, %v", status, err)
	}
}

func TestEnvOverridesParent(t *testing.T) {
	t.Setenv("GOSPAWN_SHADOWED", "parent-value")
	h := mustSpawn(t, SpawnOptions{
		Command: []string{"sh", "-c", `echo "$GOSPAWN_SHADOWED"`},
		Env:     map[string]string{"GOSPAWN_SHADOWED": "child-value"},
		Stdout:  Pipe(),
	})
	out, err := h.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if got := string(out.Stdout); got != "child-value\n" {
		t.Errorf("child env = %q", got)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}
