package completion

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/birdayz/b64img/pkg/app"
)

// NewCommand returns the "b64img completion" command. It needs the root
// command to walk the full tree.
func NewCommand(root *cobra.Command, a *app.App) *cobra.Command {
	var noDescriptions bool

	cmd := &cobra.Command{
		Use:   "completion SHELL",
		Short: "Generate completion script for bash, zsh, fish or powershell",
		Long: `Print a shell completion script. Completions cover subcommands, media types
for --type, output formats for --output and config keys for "config set".

Bash:
  $ source <(b64img completion bash)
  $ b64img completion bash > /etc/bash_completion.d/b64img

Zsh:
  $ b64img completion zsh > "${fpath[1]}/_b64img"

Fish:
  $ b64img completion fish > ~/.config/fish/completions/b64img.fish

PowerShell:
  PS> b64img completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch args[0] {
			case "bash":
				err = root.GenBashCompletionV2(a.OutWriter, !noDescriptions)
			case "zsh":
				if noDescriptions {
					err = root.GenZshCompletionNoDesc(a.OutWriter)
				} else {
					err = root.GenZshCompletion(a.OutWriter)
				}
			case "fish":
				err = root.GenFishCompletion(a.OutWriter, !noDescriptions)
			case "powershell":
				if noDescriptions {
					err = root.GenPowerShellCompletion(a.OutWriter)
				} else {
					err = root.GenPowerShellCompletionWithDesc(a.OutWriter)
				}
			}
			if err != nil {
				return fmt.Errorf("failed to generate %s completion: %w", args[0], err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noDescriptions, "no-descriptions", false, "Leave out completion descriptions")
	return cmd
}
