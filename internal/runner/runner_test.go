package runner

import (
	"context"
	"strings"
	"testing"
)

func TestRunCapturesStdoutAndStderr(t *testing.T) {
	t.Parallel()

	r := New("sh", nil)
	res := r.Run(context.Background(), []string{"-c", "echo out; echo err >&2"}, "")

	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "out\n" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	r := New("sh", nil)
	res := r.Run(context.Background(), []string{"-c", "exit 3"}, "")

	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Ok() {
		t.Fatalf("Ok() must be false for non-zero exit")
	}
}

func TestRunSpawnFailureIsFoldedIntoResult(t *testing.T) {
	t.Parallel()

	r := New("/nonexistent/definitely-not-a-binary", nil)
	res := r.Run(context.Background(), []string{"anything"}, "")

	if res.ExitCode != 1 {
		t.Fatalf("spawn failure must map to exit code 1, got %d", res.ExitCode)
	}
	if res.Stdout != "" {
		t.Fatalf("spawn failure must leave stdout empty, got %q", res.Stdout)
	}
	if res.Stderr == "" {
		t.Fatalf("spawn failure must describe itself in stderr")
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := New("sh", nil)
	res := r.Run(context.Background(), []string{"-c", "pwd"}, dir)

	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, dir) {
		t.Fatalf("pwd = %q, want it under %q", res.Stdout, dir)
	}
}

func TestRunExtraArgsArePrepended(t *testing.T) {
	t.Parallel()

	// With echo, extra args simply show up first on stdout.
	r := New("echo", []string{"pre"})
	res := r.Run(context.Background(), []string{"post"}, "")

	if res.Stdout != "pre post\n" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	r := New("nix", []string{"--extra-experimental-features", "nix-command flakes"})
	got := r.CommandString([]string{"build", ".#foo"})
	want := "nix --extra-experimental-features nix-command flakes build .#foo"
	if got != want {
		t.Fatalf("CommandString = %q, want %q", got, want)
	}
}
