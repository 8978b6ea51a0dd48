package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/util"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "completion bash|zsh|fish|powershell",
		Short:       "Generate shell completion scripts",
		Args:        cobra.ExactArgs(1),
		ValidArgs:   []string{"bash", "zsh", "fish", "powershell"},
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell %q", args[0])
			}
		},
	}
}

// completeAgents ranks agent names against the partial input.
func completeAgents(toComplete string) []string {
	return util.ScoreCompletions(toComplete, chat.Names(), 0)
}
