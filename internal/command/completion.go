package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/meta"
)

const bashCompletionScript = `# bash completion for locspoof
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_locspoof()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "list show map browse cache completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--color -c --filter -f --output -o --sort -s --titles -t --tldr --endpoint"

    case "$cmd" in
        list|show)
            local opts="$common"
            ;;
        map)
            local opts="--print -p --endpoint --tldr"
            ;;
        browse)
            local opts="--endpoint --tldr"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "info refresh purge clear --tldr" -- "$cur") )
                return 0
            fi
            case "${COMP_WORDS[2]}" in
                info)    local opts="--color -c --output -o" ;;
                refresh) local opts="--diff --color -c --endpoint" ;;
                purge)   local opts="--hours" ;;
                *)       local opts="" ;;
            esac
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    # Positional arguments are free text country names; only flags complete.
    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    fi
    return 0
}

complete -F _locspoof locspoof
`

const zshCompletionScript = `#compdef locspoof

_locspoof() {
  local -a cmds
  cmds=(
    'list:list countries'
    'show:show one country'
    'map:open a country in the map service'
    'browse:browse countries interactively'
    'cache:inspect and maintain the local caches'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs:(name code flag)'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--endpoint[country API endpoint]:url'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'locspoof commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    list|show)
      _arguments -C $common '*:country'
      ;;
    map)
      _arguments -C \
        '(-p --print)'{-p,--print}'[print the map URL]' \
        '--endpoint[country API endpoint]:url' \
        '--tldr[show tldr page]' \
        '*:country'
      ;;
    browse)
      _arguments -C \
        '--endpoint[country API endpoint]:url' \
        '--tldr[show tldr page]'
      ;;
    cache)
      if (( CURRENT == 3 )); then
        _values 'cache commands' info refresh purge clear
        return
      fi
      case $words[3] in
        info)
          _arguments '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)' \
            '(-c --color)'{-c,--color}'[enable colored text]'
          ;;
        refresh)
          _arguments '--diff[show changes]' '(-c --color)'{-c,--color}'[color diff]' \
            '--endpoint[country API endpoint]:url'
          ;;
        purge)
          _arguments '--hours[age in hours]:hours'
          ;;
      esac
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _locspoof locspoof
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	w := writer(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		return errors.New("usage: locspoof completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "locspoof completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
