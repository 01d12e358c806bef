package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for mytasks",
	Long: `Set up shell tab-completions for mytasks commands, flags and task IDs.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script to your user completion directory):

  mytasks completion bash --install
  mytasks completion zsh --install
  mytasks completion fish --install

Or print the completion script to stdout:

  mytasks completion bash`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your user completion directory")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell := args[0]

	if completionInstall {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
		target, err := completionTarget(shell, home)
		if err != nil {
			return err
		}
		if err := installCompletion(shell, target); err != nil {
			return err
		}
		fmt.Printf("%s completions installed to %s\n", shell, target)
		return nil
	}

	out := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	default:
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}
}

// completionTarget returns the user-local script path for shell.
func completionTarget(shell, home string) (string, error) {
	switch shell {
	case "bash":
		return filepath.Join(home, ".local", "share", "bash-completion", "completions", "mytasks"), nil
	case "zsh":
		return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_mytasks"), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "completions", "mytasks.fish"), nil
	case "powershell":
		return "", fmt.Errorf("automatic install is not supported for PowerShell; run 'mytasks completion powershell' and add the output to your profile")
	default:
		return "", fmt.Errorf("unsupported shell %q", shell)
	}
}

func installCompletion(shell, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	var writeErr error
	switch shell {
	case "bash":
		writeErr = rootCmd.GenBashCompletionV2(f, true)
	case "zsh":
		writeErr = rootCmd.GenZshCompletion(f)
	case "fish":
		writeErr = rootCmd.GenFishCompletion(f, true)
	}
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
