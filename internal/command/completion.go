// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/showcase/internal/meta"
)

const bashCompletionScript = `# bash completion for showcase
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_showcase()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "list ls browse cache completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local conn="--space --env -e --content-type --store"
    local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --tldr --schema --examples"

    case "$cmd" in
        list|ls)
            local opts="$conn $common --refresh -r --strict"
            ;;
        browse)
            local opts="$conn --recheck --title --metrics-addr --tldr"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "show purge diff" -- "$cur") )
                return 0
            fi
            case "${COMP_WORDS[2]}" in
                show)  local opts="$conn $common" ;;
                purge) local opts="$conn --older-than" ;;
                diff)  local opts="$conn --color -c --output -o" ;;
            esac
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$conn $common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --store)
            COMPREPLY=( $(compgen -W "file redis s3 none" -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _showcase showcase
`

const zshCompletionScript = `#compdef showcase

_showcase() {
  local -a cmds
  cmds=(
    'list:list projects'
    'ls:list projects'
    'browse:browse projects interactively'
    'cache:inspect the cached project record'
    'completion:generate shell completion script'
  )

  local -a conn
  conn=(
  '--space[CMS space id]:space'
  '(-e --env)'{-e,--env}'[CMS environment]:env'
  '--content-type[content type]:type'
  '--store[durable store]:store:(file redis s3 none)'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--schema[dump schema]'
  '--examples[show usage examples]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'showcase commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    list|ls)
      _arguments -C \
        $conn \
        $common \
        '(-r --refresh)'{-r,--refresh}'[ignore the cached record]' \
        '--strict[fail when no projects can be fetched]'
      ;;
    browse)
      _arguments -C \
        $conn \
        '--recheck[stale check interval]:duration' \
        '--title[banner title]:title' \
        '--metrics-addr[serve Prometheus metrics]:addr' \
        '--tldr[show tldr page]'
      ;;
    cache)
      if (( CURRENT == 3 )); then
        _values 'cache commands' show purge diff
        return
      fi
      case $words[3] in
        show)
          _arguments -C $conn $common
          ;;
        purge)
          _arguments -C $conn '--older-than[hours]:hours'
          ;;
        diff)
          _arguments -C $conn \
            '(-c --color)'{-c,--color}'[enable colored text]' \
            '(-o --output)'{-o,--output}'[diff format]:format:(text json)'
          ;;
      esac
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $conn $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _showcase showcase
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := stdout(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(stderr(cmd), "usage: showcase completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "showcase completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
