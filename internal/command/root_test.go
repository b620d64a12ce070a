package command

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandVersion(t *testing.T) {
	cmd := NewRootCmd("test")

	output, err := executeCommand(cmd, "--version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(output, "storytime version test") {
		t.Fatalf("expected version output, got %q", output)
	}
}

func TestVersionSubcommand(t *testing.T) {
	output, err := executeCommand(NewRootCmd("1.2.3"), "version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.TrimSpace(output) != "storytime version 1.2.3" {
		t.Fatalf("unexpected version output %q", output)
	}
}

func TestRootCommandHelp(t *testing.T) {
	cmd := NewRootCmd("test")

	output, err := executeCommand(cmd, "--help")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(output, "1000 books before kindergarten") {
		t.Fatalf("expected help output, got %q", output)
	}
	for _, sub := range []string{"readers", "search", "log", "books", "stats", "remind", "optout", "rebuild"} {
		if !strings.Contains(output, sub) {
			t.Fatalf("expected %q in help output, got %q", sub, output)
		}
	}
}
