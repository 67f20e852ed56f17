package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for awsasync.

To load completions:

Bash:
  $ awsasync completion bash > /etc/bash_completion.d/awsasync

Zsh:
  $ awsasync completion zsh > "${fpath[1]}/_awsasync"

Fish:
  $ awsasync completion fish > ~/.config/fish/completions/awsasync.fish

PowerShell:
  PS> awsasync completion powershell | Out-String | Invoke-Expression
`,
	Annotations:           map[string]string{cmdutil.AnnotationSkipRuntime: "true"},
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}
