// Package console parses the controller's typed commands and applies them
// to a simulation.
package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"

	"taxi-simulator/internal/game/simulation"
	"taxi-simulator/pkg/types"
)

type Verb int

const (
	ADD Verb = iota
	TAXI
	BAR
	CLEAR
	REMOVE
)

var VerbStringMap = map[Verb]string{
	ADD:    "ADD",
	TAXI:   "TAXI",
	BAR:    "BAR",
	CLEAR:  "CLEAR",
	REMOVE: "REMOVE",
}

func (v Verb) String() string {
	if s, ok := VerbStringMap[v]; ok {
		return s
	}
	return "UNKNOWN"
}

var verbAliases = map[string]Verb{
	"ADD": ADD, "A": ADD,
	"TAXI": TAXI, "T": TAXI,
	"BAR": BAR, "B": BAR,
	"CLEAR": CLEAR, "C": CLEAR,
	"REMOVE": REMOVE, "R": REMOVE,
}

var (
	ErrEmpty          = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong number of arguments")
	ErrNoSelection    = errors.New("no aircraft selected")
)

var usage = map[Verb]string{
	ADD:    "ADD <callsign> <node>",
	TAXI:   "TAXI [<callsign>] <node>",
	BAR:    "BAR <node>",
	CLEAR:  "CLEAR <node>",
	REMOVE: "REMOVE <callsign>",
}

// Command is one parsed console line. Node ids keep their case; callsigns
// are normalized by the simulation.
type Command struct {
	Verb     Verb
	Callsign string
	Node     types.NodeID
}

// Parse reads a console line. selected stands in for the callsign of a
// TAXI command that names only the destination.
func Parse(line string, selected types.Callsign) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, ErrEmpty
	}

	verb, ok := verbAliases[strings.ToUpper(parts[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, parts[0])
	}
	args := parts[1:]
	cmd := Command{Verb: verb}

	switch verb {
	case ADD:
		if len(args) != 2 {
			return Command{}, fmt.Errorf("%w: %s", ErrUsage, usage[verb])
		}
		cmd.Callsign, cmd.Node = args[0], types.NodeID(args[1])
	case TAXI:
		switch len(args) {
		case 1:
			if selected == "" {
				return Command{}, ErrNoSelection
			}
			cmd.Callsign, cmd.Node = string(selected), types.NodeID(args[0])
		case 2:
			cmd.Callsign, cmd.Node = args[0], types.NodeID(args[1])
		default:
			return Command{}, fmt.Errorf("%w: %s", ErrUsage, usage[verb])
		}
	case BAR, CLEAR:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: %s", ErrUsage, usage[verb])
		}
		cmd.Node = types.NodeID(args[0])
	case REMOVE:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: %s", ErrUsage, usage[verb])
		}
		cmd.Callsign = args[0]
	}
	return cmd, nil
}

// Execute applies the command and returns a one-line acknowledgement for
// the console.
func (c Command) Execute(sim *simulation.Simulation) (string, error) {
	switch c.Verb {
	case ADD:
		ac, err := sim.AddAircraft(c.Callsign, c.Node)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s added at %s", ac.Callsign, ac.Node), nil
	case TAXI:
		if err := sim.Taxi(c.Callsign, c.Node); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s taxi to %s", types.NormalizeCallsign(c.Callsign), c.Node), nil
	case BAR:
		on, err := sim.ToggleStopBar(c.Node)
		if err != nil {
			return "", err
		}
		if on {
			return fmt.Sprintf("stop bar %s lit", c.Node), nil
		}
		return fmt.Sprintf("stop bar %s off", c.Node), nil
	case CLEAR:
		if err := sim.ClearStopBar(c.Node); err != nil {
			return "", err
		}
		return fmt.Sprintf("stop bar %s off", c.Node), nil
	case REMOVE:
		if err := sim.RemoveAircraft(c.Callsign); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s removed", types.NormalizeCallsign(c.Callsign)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, c.Verb)
}

// Run parses and executes a line, logging the outcome.
func Run(sim *simulation.Simulation, line string, selected types.Callsign) (string, error) {
	cmd, err := Parse(line, selected)
	if err != nil {
		log.Warnf("%q: %v", line, err)
		return "", err
	}
	msg, err := cmd.Execute(sim)
	if err != nil {
		log.Warnf("%s: %v", cmd.Verb, err)
		return "", err
	}
	log.Infof("%s", msg)
	return msg, nil
}
