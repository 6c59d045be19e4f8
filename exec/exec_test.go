package exec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
}

func TestBasicExecution(t *testing.T) {
	result, err := New().Run(context.Background(), "echo", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.StdoutString(), "hello world") {
		t.Errorf("expected stdout to contain 'hello world', got: %s", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got: %d", result.ExitCode)
	}
}

func TestNoArguments(t *testing.T) {
	_, err := New().Run(context.Background())
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got: %T", err)
	}
	if execErr.ExitCode != -1 {
		t.Errorf("expected exit code -1, got: %d", execErr.ExitCode)
	}
}

func TestCommandFailure(t *testing.T) {
	result, err := New().Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got: %T", err)
	}
	if execErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got: %d", execErr.ExitCode)
	}
	if !strings.Contains(execErr.Error(), "oops") {
		t.Errorf("expected stderr in message, got: %s", execErr.Error())
	}
	if result == nil || result.ExitCode != 3 {
		t.Fatal("expected result even with error")
	}
}

func TestWithDir(t *testing.T) {
	dir := t.TempDir()
	result, err := New().WithDir(dir).Run(context.Background(), "pwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.StdoutString(), dir) {
		t.Errorf("expected stdout to contain %s, got: %s", dir, result.Stdout)
	}
}

func TestWithStdin(t *testing.T) {
	payload := "binary\x00safe\n"
	result, err := New().WithStdin(strings.NewReader(payload)).Run(context.Background(), "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != payload {
		t.Errorf("expected stdin echoed back, got: %q", result.Stdout)
	}
}

func TestEnvGlobalAndLocal(t *testing.T) {
	cmd := New(WithEnv(map[string]string{"A": "global", "B": "global"}))

	result, err := cmd.WithEnv(map[string]string{"B": "local"}).Run(context.Background(), "sh", "-c", "echo $A $B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(result.StdoutString()); got != "global local" {
		t.Errorf("expected local to override global, got: %s", got)
	}

	// Local settings do not carry over.
	result, err = cmd.Run(context.Background(), "sh", "-c", "echo $B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(result.StdoutString()); got != "global" {
		t.Errorf("expected global value after reset, got: %s", got)
	}
}

func TestWithTimeout(t *testing.T) {
	start := time.Now()
	_, err := New().WithTimeout(50*time.Millisecond).Run(context.Background(), "sleep", "5")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout was not applied")
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Run(ctx, "sleep", "5"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestClone(t *testing.T) {
	base := New(WithEnv(map[string]string{"X": "1"}))
	clone := base.Clone()
	clone.WithEnv(map[string]string{"X": "2"})

	result, err := base.Run(context.Background(), "sh", "-c", "echo $X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(result.StdoutString()); got != "1" {
		t.Errorf("clone configuration leaked into base, got: %s", got)
	}
}
