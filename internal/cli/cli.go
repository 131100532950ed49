package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandPlay    Command = "play"
	CommandAudioIn Command = "audioin"
	CommandCache   Command = "cache"
	CommandLights  Command = "lights"
	CommandStatus  Command = "status"
	CommandSkip    Command = "skip"
	CommandStop    Command = "stop"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandPlay:    {},
	CommandAudioIn: {},
	CommandCache:   {},
	CommandLights:  {},
	CommandStatus:  {},
	CommandSkip:    {},
	CommandStop:    {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// takesArgs lists commands whose trailing arguments are meaningful: song
// paths for play/cache, an optional state word for lights.
var takesArgs = map[Command]struct{}{
	CommandPlay:   {},
	CommandCache:  {},
	CommandLights: {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	DryRun     bool
	Args       []string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--dry-run":
			parsed.DryRun = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if _, ok := takesArgs[cmd]; !ok {
				if len(rest) > 0 {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
				return parsed, nil
			}
			parsed.Args = rest
			return validateArgs(parsed)
		}
	}

	return parsed, nil
}

// validateArgs enforces per-command argument arity.
func validateArgs(parsed Parsed) (Parsed, error) {
	switch parsed.Command {
	case CommandPlay, CommandCache:
		if len(parsed.Args) == 0 {
			return Parsed{}, fmt.Errorf("%s requires at least one song path", parsed.Command)
		}
	case CommandLights:
		if len(parsed.Args) > 1 {
			return Parsed{}, errors.New("lights takes at most one state (on, off, or flash)")
		}
		if len(parsed.Args) == 1 {
			switch parsed.Args[0] {
			case "on", "off", "flash":
			default:
				return Parsed{}, fmt.Errorf("unknown lights state %q; use on, off, or flash", parsed.Args[0])
			}
		}
	}
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--dry-run] <command> [args]

Commands:
  play SONG...    Run the show for the given songs, in order
  audioin         Drive the lights from the live capture device
  cache SONG...   Precompute and store song analyses without playing
  lights [STATE]  Drive all channels: on, off, or flash (default flash)
  status          Print the running show's state
  skip            Skip the running show's current song
  stop            Stop the running show
  devices         List available capture devices
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/lightshowpi/config.yaml)
  --dry-run       Run without touching GPIO or the speaker
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
