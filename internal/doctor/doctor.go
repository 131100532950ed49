// Package doctor runs runtime readiness diagnostics for config, GPIO, and audio.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/MattDietz/lightshowpi/internal/audio"
	"github.com/MattDietz/lightshowpi/internal/config"
	"github.com/MattDietz/lightshowpi/internal/preshow"
	"github.com/MattDietz/lightshowpi/internal/spectrum"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/hardware checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q (%d channels)", cfg.Path, cfg.Config.ChannelCount()),
	})
	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{Name: "config.warning", Pass: true, Message: warning.Message})
	}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for the control socket", "XDG_RUNTIME_DIR is empty"))

	checks = append(checks, checkBands(cfg.Config))
	checks = append(checks, checkPreshow(cfg.Config))
	checks = append(checks, checkGPIO(cfg.Config))
	checks = append(checks, checkAudioSelection(cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBands resolves the band table and channel mapping once, surfacing the
// cardinality errors a show start would hit.
func checkBands(cfg config.Config) Check {
	mapper, err := spectrum.NewMapper(cfg)
	if err != nil {
		return Check{Name: "spectrum.bands", Pass: false, Message: err.Error()}
	}
	bands := mapper.Bands()
	return Check{
		Name: "spectrum.bands",
		Pass: true,
		Message: fmt.Sprintf("%d bands over %.0f-%.0fHz for %d channels",
			len(bands), bands[0].Low, bands[len(bands)-1].High, mapper.Channels()),
	}
}

// checkPreshow parses the configured preshow script.
func checkPreshow(cfg config.Config) Check {
	script, err := preshow.ParseScript(cfg.Lightshow.Preshow)
	if err != nil {
		return Check{Name: "lightshow.preshow", Pass: false, Message: err.Error()}
	}
	if len(script) == 0 {
		return Check{Name: "lightshow.preshow", Pass: true, Message: "no preshow configured"}
	}
	return Check{
		Name:    "lightshow.preshow",
		Pass:    true,
		Message: fmt.Sprintf("%d steps, %s total", len(script), script.TotalDuration()),
	}
}

// checkGPIO verifies the host GPIO registry knows every configured pin. Pins
// are not claimed; a running show keeps working while doctor runs.
func checkGPIO(cfg config.Config) Check {
	if _, err := host.Init(); err != nil {
		return Check{Name: "hardware.gpio", Pass: false, Message: fmt.Sprintf("host init failed: %v", err)}
	}

	missing := []string{}
	for _, pin := range cfg.Hardware.GPIOPins {
		name := fmt.Sprintf("GPIO%d", pin)
		if gpioreg.ByName(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Check{
			Name:    "hardware.gpio",
			Pass:    false,
			Message: fmt.Sprintf("pins not present on this host: %s", strings.Join(missing, ", ")),
		}
	}
	return Check{
		Name:    "hardware.gpio",
		Pass:    true,
		Message: fmt.Sprintf("all %d pins resolvable", len(cfg.Hardware.GPIOPins)),
	}
}

// checkAudioSelection runs live device selection to surface capture issues.
// Only audio-in mode needs a capture device, so a failure here does not block
// playing decoded songs.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.AudioIn.Source, cfg.AudioIn.Fallback)
	if err != nil {
		return Check{Name: "audio_in.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio_in.device", Pass: true, Message: message}
}
