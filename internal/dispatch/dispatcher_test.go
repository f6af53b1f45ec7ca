package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/mattjoyce/nixgw/internal/dispatch/mocks"
	"github.com/mattjoyce/nixgw/internal/format"
	"github.com/mattjoyce/nixgw/internal/logstore"
	"github.com/mattjoyce/nixgw/internal/nix"
	"github.com/mattjoyce/nixgw/internal/runner"
)

func newTestDispatcher(t *testing.T, r CommandRunner, j Journal) (*Dispatcher, *logstore.Store) {
	t.Helper()
	store := logstore.New(10)
	f := format.New(store, 50, 4000)
	return New(r, store, f, j, "/work"), store
}

func TestExecuteRunsDecodedCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mr := mocks.NewMockCommandRunner(ctrl)
	mj := mocks.NewMockJournal(ctrl)

	wantArgs := []string{"build", ".#foo", "--no-link"}
	mr.EXPECT().CommandString(wantArgs).Return("nix build .#foo --no-link")
	mr.EXPECT().Run(gomock.Any(), wantArgs, "/work").
		Return(runner.Result{Stdout: "built"})
	mj.EXPECT().Append(gomock.Any(), "nix_build", "nix build .#foo --no-link", 0, gomock.Any()).
		Return("rec-1", nil)

	d, _ := newTestDispatcher(t, mr, mj)
	out, err := d.Execute(context.Background(), "nix_build",
		json.RawMessage(`{"installable":".#foo","no_link":true}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "built" {
		t.Fatalf("output = %q", out)
	}
}

func TestExecuteFailedCommandIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mr := mocks.NewMockCommandRunner(ctrl)
	mr.EXPECT().CommandString(gomock.Any()).Return("nix flake check")
	mr.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(runner.Result{Stderr: "error: check failed", ExitCode: 1})

	d, _ := newTestDispatcher(t, mr, nil)
	out, err := d.Execute(context.Background(), "nix_flake_check", nil)
	if err != nil {
		t.Fatalf("a failed command must be a successful response, got %v", err)
	}
	if !strings.Contains(out, "error: check failed") || !strings.Contains(out, "[Exit code: 1]") {
		t.Fatalf("output = %q", out)
	}
}

func TestExecuteJournalFailureDoesNotFailOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mr := mocks.NewMockCommandRunner(ctrl)
	mj := mocks.NewMockJournal(ctrl)

	mr.EXPECT().CommandString(gomock.Any()).Return("nix build")
	mr.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(runner.Result{Stdout: "ok"})
	mj.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("disk full"))

	d, _ := newTestDispatcher(t, mr, mj)
	out, err := d.Execute(context.Background(), "nix_build", nil)
	if err != nil {
		t.Fatalf("journal failure must not surface: %v", err)
	}
	if out != "ok" {
		t.Fatalf("output = %q", out)
	}
}

func TestExecuteUnknownOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No runner expectations: an unknown op must fail before execution.
	mr := mocks.NewMockCommandRunner(ctrl)

	d, _ := newTestDispatcher(t, mr, nil)
	_, err := d.Execute(context.Background(), "nix_teleport", nil)
	if !errors.Is(err, nix.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestExecuteGetLogBypassesRunner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mr := mocks.NewMockCommandRunner(ctrl)

	d, store := newTestDispatcher(t, mr, nil)
	id := store.Put("nix build", runner.Result{Stdout: "archived body", ExitCode: 0})

	out, err := d.Execute(context.Background(), "nix_get_log",
		json.RawMessage(`{"id":"`+id+`"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "archived body") {
		t.Fatalf("output = %q", out)
	}
}

func TestExecuteGetLogMissingIDIsGuidance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, _ := newTestDispatcher(t, mocks.NewMockCommandRunner(ctrl), nil)
	out, err := d.Execute(context.Background(), "nix_get_log",
		json.RawMessage(`{"id":"999"}`))
	if err != nil {
		t.Fatalf("missing log must not be an error: %v", err)
	}
	if !strings.Contains(out, "not found") {
		t.Fatalf("output = %q", out)
	}
}

func TestExecuteGetLogBadGrepIsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, store := newTestDispatcher(t, mocks.NewMockCommandRunner(ctrl), nil)
	id := store.Put("cmd", runner.Result{Stdout: "x"})

	if _, err := d.Execute(context.Background(), "nix_get_log",
		json.RawMessage(`{"id":"`+id+`","grep":"("}`)); err == nil {
		t.Fatalf("malformed grep pattern must be an error")
	}
}

func TestExecuteListLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, store := newTestDispatcher(t, mocks.NewMockCommandRunner(ctrl), nil)

	out, err := d.Execute(context.Background(), "nix_list_logs", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "No logs available." {
		t.Fatalf("empty store output = %q", out)
	}

	store.Put("nix build .#foo", runner.Result{ExitCode: 1})
	out, err = d.Execute(context.Background(), "nix_list_logs", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "nix build .#foo") || !strings.Contains(out, "(exit: 1)") {
		t.Fatalf("output = %q", out)
	}
}

func TestExecuteRecoversPanics(t *testing.T) {
	d, _ := newTestDispatcher(t, panickyRunner{}, nil)

	_, err := d.Execute(context.Background(), "nix_build", nil)
	if err == nil || !strings.Contains(err.Error(), "internal error executing nix_build") {
		t.Fatalf("expected internal error, got %v", err)
	}
}

type panickyRunner struct{}

func (panickyRunner) Run(context.Context, []string, string) runner.Result {
	panic("runner exploded")
}

func (panickyRunner) CommandString([]string) string { return "nix build" }
