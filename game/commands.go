package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm-cable/springsoup/components"
)

// Command names accepted by ParseCommand.
const (
	CmdToggleRain       = "toggle_rain"
	CmdToggleGravity    = "toggle_gravity"
	CmdToggleWalls      = "toggle_walls"
	CmdToggleDrawWall   = "toggle_draw_wall"
	CmdToggle3D         = "toggle_3d"
	CmdToggleDragTool   = "toggle_drag_tool"
	CmdClear            = "clear"
	CmdDrawWith         = "draw_with"
	CmdRenderOption     = "render_option"
	CmdRenderResolution = "render_resolution"
)

var (
	// ErrUnknownCommand is returned for command names that do not exist.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadArgument is returned when a command argument does not parse.
	ErrBadArgument = errors.New("bad command argument")
	// ErrQueueFull is returned when too many commands are waiting.
	ErrQueueFull = errors.New("command queue full")
)

// Command is a world edit requested from outside the simulation goroutine.
// Commands are applied at the start of the next step.
type Command struct {
	Name string

	Kind       components.Kind // draw_with
	Resolution int             // render_resolution
}

func (c Command) String() string {
	switch c.Name {
	case CmdDrawWith:
		return c.Name + ":" + c.Kind.String()
	case CmdRenderResolution:
		return c.Name + ":" + strconv.Itoa(c.Resolution)
	}
	return c.Name
}

// ParseCommand parses "name" or "name:arg".
func ParseCommand(s string) (Command, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	cmd := Command{Name: name}

	switch name {
	case CmdToggleRain, CmdToggleGravity, CmdToggleWalls, CmdToggleDrawWall,
		CmdToggle3D, CmdToggleDragTool, CmdClear, CmdRenderOption:
		if hasArg {
			return Command{}, fmt.Errorf("%s takes no argument: %w", name, ErrBadArgument)
		}
	case CmdDrawWith:
		kind, err := components.ParseKind(arg)
		if err != nil || kind == components.Wall {
			return Command{}, fmt.Errorf("%s %q: %w", name, arg, ErrBadArgument)
		}
		cmd.Kind = kind
	case CmdRenderResolution:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("%s %q: %w", name, arg, ErrBadArgument)
		}
		cmd.Resolution = n
	default:
		return Command{}, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
	return cmd, nil
}

// Enqueue queues a command for the next step without blocking.
// It is safe to call from any goroutine.
func (w *World) Enqueue(cmd Command) error {
	select {
	case w.commands <- cmd:
		return nil
	default:
		w.metrics.ObserveCommand(false)
		return ErrQueueFull
	}
}

// drainCommands applies every queued command.
func (w *World) drainCommands() {
	for {
		select {
		case cmd := <-w.commands:
			w.Apply(cmd)
		default:
			return
		}
	}
}

// Apply executes a command immediately on the simulation goroutine.
func (w *World) Apply(cmd Command) {
	switch cmd.Name {
	case CmdToggleRain:
		w.ToggleRain()
	case CmdToggleGravity:
		w.ToggleGravity()
	case CmdToggleWalls:
		w.ToggleWalls()
	case CmdToggleDrawWall:
		w.ToggleDrawWall()
	case CmdToggle3D:
		w.Toggle3D()
	case CmdToggleDragTool:
		w.ToggleDragTool()
	case CmdClear:
		w.ClearWorld()
	case CmdDrawWith:
		w.DrawWith(cmd.Kind)
	case CmdRenderOption:
		w.CycleRenderOption()
	case CmdRenderResolution:
		w.SetRenderResolution(cmd.Resolution)
	default:
		w.log.Warn("ignoring unknown command", "command", cmd.Name)
		w.metrics.ObserveCommand(false)
		return
	}
	w.metrics.ObserveCommand(true)
}
