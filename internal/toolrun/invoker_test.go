package toolrun

import (
	"context"
	"testing"
)

func TestLocateNotFound(t *testing.T) {
	inv := New()
	_, err := inv.Locate("definitely-not-a-real-tool-xyz")
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
}

func TestRunMissingTool(t *testing.T) {
	inv := New()
	info := inv.Run(context.Background(), []string{"definitely-not-a-real-tool-xyz"}, Options{})
	if info.Class != ExitFail {
		t.Fatalf("expected ExitFail, got %v", info.Class)
	}
	if info.Err == nil {
		t.Fatal("expected non-nil Err")
	}
}

func TestRunOKAndCapturesOutput(t *testing.T) {
	var lines []string
	inv := New()
	info := inv.Run(context.Background(), []string{"sh", "-c", "echo hello; echo world 1>&2"}, Options{
		Handlers: []LineHandler{func(s Stream, line string) { lines = append(lines, line) }},
	})
	if info.Class != ExitOK {
		t.Fatalf("expected ExitOK, got %v (%v)", info.Class, info.Err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
}

func TestClassifyWarnExit(t *testing.T) {
	inv := New()
	info := inv.Run(context.Background(), []string{"sh", "-c", "echo oops 1>&2; exit 1"}, Options{ToolRole: "mkvmerge"})
	if info.Class != ExitWarn {
		t.Fatalf("expected ExitWarn for mkvmerge exit 1, got %v", info.Class)
	}
}

func TestClassifyFailExit(t *testing.T) {
	inv := New()
	info := inv.Run(context.Background(), []string{"sh", "-c", "exit 2"}, Options{ToolRole: "mkvmerge"})
	if info.Class != ExitFail {
		t.Fatalf("expected ExitFail for exit 2, got %v", info.Class)
	}
}
