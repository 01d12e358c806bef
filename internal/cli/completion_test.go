package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runRoot executes rootCmd with args and returns what it wrote to its output.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		completionInstall = false
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestCompletionCommand_DisablesDefault(t *testing.T) {
	if !rootCmd.CompletionOptions.DisableDefaultCmd {
		t.Error("expected Cobra default completion command to be disabled")
	}
}

func TestCompletionCommand_NoArgsShowsHelp(t *testing.T) {
	out, err := runRoot(t, "completion")
	if err != nil {
		t.Fatalf("completion with no args should show help, not error: %v", err)
	}
	if !strings.Contains(out, "Quick install") {
		t.Error("no-args output should show help with install instructions")
	}
}

func TestCompletionCommand_Output(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_mytasks"},
		{"zsh", "compdef"},
		{"fish", "complete -c mytasks"},
		{"powershell", "Register-ArgumentCompleter"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := runRoot(t, "completion", tt.shell)
			if err != nil {
				t.Fatalf("completion %s failed: %v", tt.shell, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("%s completion output should contain %q", tt.shell, tt.want)
			}
		})
	}
}

func TestCompletionCommand_UnsupportedShell(t *testing.T) {
	if _, err := runRoot(t, "completion", "nushell"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestCompletionCommand_Install(t *testing.T) {
	tests := []struct {
		shell string
		path  []string
		want  string
	}{
		{"bash", []string{".local", "share", "bash-completion", "completions", "mytasks"}, "__start_mytasks"},
		{"zsh", []string{".local", "share", "zsh", "site-functions", "_mytasks"}, "compdef"},
		{"fish", []string{".config", "fish", "completions", "mytasks.fish"}, "complete"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			tmpHome := t.TempDir()
			t.Setenv("HOME", tmpHome)
			t.Setenv("USERPROFILE", tmpHome)

			captureStdout(t, func() {
				if _, err := runRoot(t, "completion", tt.shell, "--install"); err != nil {
					t.Fatalf("completion %s --install failed: %v", tt.shell, err)
				}
			})

			target := filepath.Join(append([]string{tmpHome}, tt.path...)...)
			data, err := os.ReadFile(target)
			if err != nil {
				t.Fatalf("expected completion file at %s: %v", target, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("completion file should contain %q", tt.want)
			}
		})
	}
}

func TestCompletionCommand_InstallPowershellFails(t *testing.T) {
	_, err := runRoot(t, "completion", "powershell", "--install")
	if err == nil || !strings.Contains(err.Error(), "not supported for PowerShell") {
		t.Errorf("expected PowerShell install error, got %v", err)
	}
}

func TestCompletionTarget_UnknownShell(t *testing.T) {
	if _, err := completionTarget("tcsh", t.TempDir()); err == nil {
		t.Error("expected error for unknown shell")
	}
}
