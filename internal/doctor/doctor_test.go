package doctor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MattDietz/lightshowpi/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.TrimSpace(v) != "" },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckBandsDefaultConfig(t *testing.T) {
	check := checkBands(config.Default())
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "8 bands")
	require.Contains(t, check.Message, "8 channels")
}

func TestCheckBandsBadMapping(t *testing.T) {
	cfg := config.Default()
	cfg.AudioProcessing.CustomChannelMapping = []int{1, 2}

	check := checkBands(cfg)
	require.False(t, check.Pass)
}

func TestCheckPreshow(t *testing.T) {
	cfg := config.Default()

	cfg.Lightshow.Preshow = ""
	check := checkPreshow(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "no preshow")

	cfg.Lightshow.Preshow = "on:30,off:1"
	check = checkPreshow(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "2 steps")

	cfg.Lightshow.Preshow = "sideways:5"
	check = checkPreshow(cfg)
	require.False(t, check.Pass)
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio_in.device", check.Name)
}

func TestRunSurfacesConfigWarnings(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	loaded := config.Loaded{
		Path:     "/tmp/config.yaml",
		Config:   config.Default(),
		Warnings: []config.Warning{{Message: "chunk_size 1000 is not a power of two"}},
	}

	report := Run(loaded)
	require.NotEmpty(t, report.Checks)

	var sawWarning bool
	for _, check := range report.Checks {
		if check.Name == "config.warning" {
			sawWarning = true
			require.True(t, check.Pass)
			require.Contains(t, check.Message, "power of two")
		}
	}
	require.True(t, sawWarning)
}
