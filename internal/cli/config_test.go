package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gospawn.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLintSuccess(t *testing.T) {
	path := writeConfigFile(t, strings.Join([]string{
		"executor:",
		"  default_timeout: 5s",
		"audit:",
		"  enabled: false",
	}, "\n"))

	stdout, stderr, err := runCommand(t, "--config", path, "config", "lint")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if stdout != "" || stderr != "" {
		t.Errorf("unexpected output: stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestConfigLintRejectsBadConfig(t *testing.T) {
	path := writeConfigFile(t, "executor: [")

	_, stderr, err := runCommand(t, "--config", path, "config", "lint")
	if err == nil {
		t.Fatal("expected error for malformed config")
	}
	if stderr == "" {
		t.Error("expected error details on stderr")
	}
}

func TestConfigLintRequiresPath(t *testing.T) {
	if _, _, err := runCommand(t, "config", "lint"); err == nil {
		t.Fatal("expected error when no --config given")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	path := writeConfigFile(t, strings.Join([]string{
		"executor:",
		"  default_timeout: 7s",
		"audit:",
		"  enabled: false",
	}, "\n"))

	stdout, _, err := runCommand(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(stdout, "default_timeout: 7s") {
		t.Errorf("show output missing overridden timeout:\n%s", stdout)
	}
}
