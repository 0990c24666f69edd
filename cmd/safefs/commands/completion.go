package commands

import (
	"io"
	"slices"

	"github.com/spf13/cobra"
)

var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Generate a shell completion script",
	Long: `Generate a completion script for bash, zsh, fish or powershell.

  $ safefs completion bash > /etc/bash_completion.d/safefs
  $ safefs completion zsh > "${fpath[1]}/_safefs"
  $ safefs completion fish > ~/.config/fish/completions/safefs.fish
  PS> safefs completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             shellNames(),
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Annotations:           map[string]string{skipSetupAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionShells[args[0]](cmd.Root(), cmd.OutOrStdout())
	},
}

func shellNames() []string {
	names := make([]string, 0, len(completionShells))
	for name := range completionShells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
