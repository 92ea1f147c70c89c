// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/meta"
)

const bashCompletionScript = `# bash completion for foundryctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_foundryctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "aq lq tq ac tc as mq kq pq iq bp av completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --local --output -o --sort -s --titles -t --tldr --schema"
    local conn="--endpoint -e --api-version --tenant --device-code"
    local arm="--subscription --tenant --device-code"
    local safety="--dry-run --yes -y --archive --passphrase"
    local cutoff="--before-date --days"

    case "$cmd" in
        aq)
            local opts="$common $conn $cutoff --name -n --limit"
            ;;
        lq)
            local opts="$common $conn $cutoff"
            ;;
        tq)
            local opts="$common $conn $cutoff --skip-empty --stale"
            ;;
        ac)
            local opts="$common $conn $safety --agent-id --all --pick"
            ;;
        tc)
            local opts="$common $conn $safety $cutoff --skip-empty"
            ;;
        as)
            local opts="$common $conn --agent-name --instructions --model -m --thread-count --message-template --poll-interval"
            ;;
        mq)
            local opts="$common $arm --location -l --providers --skus"
            ;;
        kq)
            local opts="$common $arm --all-kinds --csv"
            ;;
        pq)
            local opts="$common $arm --resource-group -g --account --reserved-resource-type --reservation-state --csv"
            ;;
        iq)
            local opts="$common --lint"
            if [[ "$cur" != -* ]]; then
                COMPREPLY=( $(compgen -o dirnames -- "$cur") )
                return 0
            fi
            ;;
        bp)
            local opts="--policy -p --diff -d --color -c --tldr"
            if [[ "$prev" == "--policy" || "$prev" == "-p" || "$cur" != -* ]]; then
                COMPREPLY=( $(compgen -f -- "$cur") )
                return 0
            fi
            ;;
        av)
            local opts="$common --passphrase"
            if [[ "$cur" != -* ]]; then
                COMPREPLY=( $(compgen -f -X '!*.fca' -- "$cur") )
                return 0
            fi
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
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
    if [[ "$prev" == "--archive" || "$prev" == "--csv" ]]; then
        COMPREPLY=( $(compgen -f -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _foundryctl foundryctl
`

const zshCompletionScript = `#compdef foundryctl

_foundryctl() {
  local -a cmds
  cmds=(
    'aq:agent query'
    'lq:last completion query'
    'tq:thread query'
    'ac:agent cleanup'
    'tc:thread cleanup'
    'as:agent setup'
    'mq:model catalog query'
    'kq:capacity query'
    'pq:provisioned throughput query'
    'iq:infrastructure template query'
    'bp:body policy simulation'
    'av:archive view'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '--local[local timezone]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--schema[dump schema]'
  '--tldr[show tldr page]'
  )

  local -a conn
  conn=(
  '(-e --endpoint)'{-e,--endpoint}'[project endpoint]:endpoint'
  '--api-version[agents API version]:version'
  '--tenant[Entra tenant]:tenant'
  '--device-code[device code login]'
  )

  local -a arm
  arm=(
  '--subscription[subscription id]:subscription'
  '--tenant[Entra tenant]:tenant'
  '--device-code[device code login]'
  )

  local -a safety
  safety=(
  '--dry-run[do not delete]'
  '(-y --yes)'{-y,--yes}'[do not ask]'
  '--archive[archive target]:target:_files -/'
  '--passphrase[archive passphrase]:passphrase'
  )

  local -a cutoff
  cutoff=(
  '--before-date[ISO-8601 cutoff]:date'
  '--days[cutoff in days]:days'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'foundryctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    aq)
      _arguments -C $common $conn $cutoff \
        '(-n --name)'{-n,--name}'[agent name]:name' \
        '--limit[limit results]:limit'
      ;;
    lq)
      _arguments -C $common $conn $cutoff
      ;;
    tq)
      _arguments -C $common $conn $cutoff \
        '--skip-empty[ignore empty threads]' \
        '--stale[only stale threads]'
      ;;
    ac)
      _arguments -C $common $conn $safety \
        '*--agent-id[agent to delete]:agent' \
        '--all[every agent]' \
        '--pick[choose interactively]'
      ;;
    tc)
      _arguments -C $common $conn $safety $cutoff \
        '--skip-empty[ignore empty threads]'
      ;;
    as)
      _arguments -C $common $conn \
        '--agent-name[agent name]:name' \
        '--instructions[agent instructions]:instructions' \
        '(-m --model)'{-m,--model}'[model deployment]:model' \
        '--thread-count[threads to create]:count' \
        '--message-template[user message]:template' \
        '--poll-interval[run poll interval]:duration'
      ;;
    mq)
      _arguments -C $common $arm \
        '(-l --location)'{-l,--location}'[region]:location' \
        '--providers[only providers]' \
        '--skus[one row per SKU]'
      ;;
    kq)
      _arguments -C $common $arm \
        '--all-kinds[include AIServices]' \
        '--csv[CSV file]:file:_files'
      ;;
    pq)
      _arguments -C $common $arm \
        '(-g --resource-group)'{-g,--resource-group}'[resource group]:group' \
        '--account[account name]:account' \
        '--reserved-resource-type[reservation type]:type' \
        '--reservation-state[provisioning state]:state' \
        '--csv[CSV file]:file:_files'
      ;;
    iq)
      _arguments -C $common \
        '--lint[only hungarian names]' \
        '::dir:_directories'
      ;;
    bp)
      _arguments -C \
        '(-p --policy)'{-p,--policy}'[policy file]:file:_files' \
        '(-d --diff)'{-d,--diff}'[print the change]' \
        '(-c --color)'{-c,--color}'[colored diff]' \
        '::body:_files'
      ;;
    av)
      _arguments -C $common \
        '--passphrase[archive passphrase]:passphrase' \
        '1:archive:_files -g "*.fca"'
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
compdef _foundryctl foundryctl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := cmd.Args().First()
	if shell == "" {
		// Try to detect from SHELL.
		switch sh := os.Getenv("SHELL"); {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout, zshCompletionScript)
	default:
		return errors.New("usage: foundryctl completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "foundryctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
