// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetkit.

Install instructions:
  Bash:       sheetkit completion bash > /etc/bash_completion.d/sheetkit
              echo 'source <(sheetkit completion bash)' >> ~/.bashrc
  Zsh:        sheetkit completion zsh > ~/.zsh/completions/_sheetkit
  Fish:       sheetkit completion fish > ~/.config/fish/completions/sheetkit.fish
  PowerShell: sheetkit completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.OutOrStdout(), rootCmd, args[0])
		},
	}
	return cmd
}

func generate(w io.Writer, rootCmd *cobra.Command, shell string) error {
	switch shell {
	case "bash":
		fmt.Fprintln(w, "# sheetkit bash completion")
		fmt.Fprintln(w, "# Install: sheetkit completion bash > /etc/bash_completion.d/sheetkit")
		fmt.Fprintln(w, "# Or:      echo 'source <(sheetkit completion bash)' >> ~/.bashrc")
		fmt.Fprintln(w)
		return rootCmd.GenBashCompletion(w)
	case "zsh":
		fmt.Fprintln(w, "# sheetkit zsh completion")
		fmt.Fprintln(w, "# Install: sheetkit completion zsh > ~/.zsh/completions/_sheetkit")
		fmt.Fprintln(w)
		return rootCmd.GenZshCompletion(w)
	case "fish":
		fmt.Fprintln(w, "# sheetkit fish completion")
		fmt.Fprintln(w, "# Install: sheetkit completion fish > ~/.config/fish/completions/sheetkit.fish")
		fmt.Fprintln(w)
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		fmt.Fprintln(w, "# sheetkit PowerShell completion")
		fmt.Fprintln(w, "# Install: sheetkit completion powershell >> $PROFILE")
		fmt.Fprintln(w)
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", shell)
	}
}
