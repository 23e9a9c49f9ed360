package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/arvis/pkg/domain"
)

type commandKind int

const (
	cmdType commandKind = iota
	cmdPress
	cmdPreview
	cmdBack
	cmdReset
	cmdLarge
	cmdList
	cmdReload
	cmdHistory
	cmdHelp
	cmdQuit
)

// command is one parsed input line.
type command struct {
	kind  commandKind
	index int
	mods  domain.Modifier
	text  string
}

const helpText = `Type to search. Commands:
  :press [N] [mods]    activate row N (default: selected) with modifiers, e.g. cmd+shift
  :preview N [mods]    show row N as it looks while mods are held
  :large [N]           show the large type of row N
  :back                leave the current mode
  :reset               clear the window
  :list                list installed extensions
  :reload              reload extensions
  :history             show recent inputs
  :quit                exit
An empty line presses the selected row. Start a line with "::" to type a literal ":".`

// parseLine maps a line read from the terminal to a command.
func parseLine(line string, selected int) (command, error) {
	if strings.HasPrefix(line, "::") {
		return command{kind: cmdType, text: line[1:]}, nil
	}
	if line == "" {
		return command{kind: cmdPress, index: selected}, nil
	}
	if !strings.HasPrefix(line, ":") {
		return command{kind: cmdType, text: line}, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "press", "p":
		return rowCommand(cmdPress, args, selected, true)
	case "preview", "v":
		return rowCommand(cmdPreview, args, selected, false)
	case "large", "l":
		return rowCommand(cmdLarge, args, selected, true)
	case "back", "b":
		return command{kind: cmdBack}, nil
	case "reset":
		return command{kind: cmdReset}, nil
	case "list":
		return command{kind: cmdList}, nil
	case "reload":
		return command{kind: cmdReload}, nil
	case "history":
		return command{kind: cmdHistory}, nil
	case "help", "h", "?":
		return command{kind: cmdHelp}, nil
	case "quit", "q", "exit":
		return command{kind: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q, try :help", fields[0])
}

// rowCommand parses "[N] [mods]". The index is required unless optional is set.
func rowCommand(kind commandKind, args []string, selected int, optional bool) (command, error) {
	c := command{kind: kind, index: selected}
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			c.index = n
			args = args[1:]
		} else if !optional {
			return command{}, fmt.Errorf("invalid row %q", args[0])
		}
	} else if !optional {
		return command{}, fmt.Errorf("a row number is required")
	}
	if len(args) > 1 {
		return command{}, fmt.Errorf("too many arguments")
	}
	if len(args) == 1 {
		c.mods = domain.ParseModifier(args[0])
	}
	return c, nil
}
