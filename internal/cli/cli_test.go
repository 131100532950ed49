package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParsePlayWithSongsAndConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/show.yaml", "play", "a.mp3", "b.wav"})
	require.NoError(t, err)
	require.Equal(t, CommandPlay, parsed.Command)
	require.Equal(t, "/tmp/show.yaml", parsed.ConfigPath)
	require.Equal(t, []string{"a.mp3", "b.wav"}, parsed.Args)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantHelp bool
		wantPath string
		wantArgs []string
		wantDry  bool
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "version flag",
			args:     []string{"--version"},
			wantCmd:  CommandVersion,
			wantHelp: false,
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after bare command",
			args:    []string{"doctor", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:    "play requires songs",
			args:    []string{"play"},
			wantErr: "at least one song path",
		},
		{
			name:    "cache requires songs",
			args:    []string{"cache"},
			wantErr: "at least one song path",
		},
		{
			name:     "dry run play",
			args:     []string{"--dry-run", "play", "a.mp3"},
			wantCmd:  CommandPlay,
			wantArgs: []string{"a.mp3"},
			wantDry:  true,
		},
		{
			name:     "lights default",
			args:     []string{"lights"},
			wantCmd:  CommandLights,
			wantArgs: []string{},
		},
		{
			name:     "lights with state",
			args:     []string{"lights", "on"},
			wantCmd:  CommandLights,
			wantArgs: []string{"on"},
		},
		{
			name:    "lights bad state",
			args:    []string{"lights", "sideways"},
			wantErr: "unknown lights state",
		},
		{
			name:    "lights too many args",
			args:    []string{"lights", "on", "off"},
			wantErr: "at most one state",
		},
		{
			name:     "valid skip command",
			args:     []string{"skip"},
			wantCmd:  CommandSkip,
			wantHelp: false,
		},
		{
			name:     "valid stop with config",
			args:     []string{"--config", "/tmp/cfg", "stop"},
			wantCmd:  CommandStop,
			wantHelp: false,
			wantPath: "/tmp/cfg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantDry, parsed.DryRun)
			if tc.wantArgs == nil {
				require.Empty(t, parsed.Args)
			} else {
				require.Equal(t, tc.wantArgs, parsed.Args)
			}
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("lightshowpi")
	require.Contains(t, text, "play SONG...")
	require.Contains(t, text, "audioin")
	require.Contains(t, text, "skip")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--config PATH")
	require.Contains(t, text, "--dry-run")
}
