package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:
  $ source <(assetline completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ assetline completion bash > /etc/bash_completion.d/assetline
  # macOS:
  $ assetline completion bash > /usr/local/etc/bash_completion.d/assetline

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ assetline completion zsh > "${fpath[1]}/_assetline"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ assetline completion fish | source

  # To load completions for each session, execute once:
  $ assetline completion fish > ~/.config/fish/completions/assetline.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.ExactValidArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			fmt.Print(humanBashCompletion)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			rootCmd.GenPowerShellCompletion(os.Stdout)
		}
	},
}

// humanBashCompletion is a handcrafted, minimal bash completion script
// that avoids the robotic verbosity of auto-generated ones.
const humanBashCompletion = `
# assetline bash completion

_assetline_completion() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="run browse export policy config completion help"

    case "${prev}" in
        run)
            COMPREPLY=( $(compgen -W "--pipeline --workers --pick --help" -- ${cur}) )
            _filedir hcl 2>/dev/null
            return 0
            ;;
        browse)
            COMPREPLY=( $(compgen -W "--journal --ignore-file --help" -- ${cur}) )
            return 0
            ;;
        export)
            COMPREPLY=( $(compgen -W "--out --publish --help" -- ${cur}) )
            return 0
            ;;
        policy)
            COMPREPLY=( $(compgen -W "--rules --help" -- ${cur}) )
            return 0
            ;;
        config)
            COMPREPLY=( $(compgen -W "--init --help" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- ${cur}) )
            return 0
            ;;
        --journal|--rules|--ignore-file|--config)
            _filedir 2>/dev/null
            return 0
            ;;
        *)
            ;;
    esac

    # Global Flags
    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--help --version --journal --sink --rules --verbose" -- ${cur}) )
        return 0
    fi

    # Subcommands
    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
}

complete -F _assetline_completion assetline
`
