package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/MattDietz/lightshowpi/internal/audio"
	"github.com/MattDietz/lightshowpi/internal/cli"
	"github.com/MattDietz/lightshowpi/internal/config"
	"github.com/MattDietz/lightshowpi/internal/doctor"
	"github.com/MattDietz/lightshowpi/internal/hardware"
	"github.com/MattDietz/lightshowpi/internal/ipc"
	"github.com/MattDietz/lightshowpi/internal/logging"
	"github.com/MattDietz/lightshowpi/internal/pipeline"
	"github.com/MattDietz/lightshowpi/internal/preshow"
	"github.com/MattDietz/lightshowpi/internal/session"
	"github.com/MattDietz/lightshowpi/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("lightshowpi"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("lightshowpi"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"dry_run", parsed.DryRun,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandSkip:
		return r.forwardOrFail(ctx, "skip")
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandCache:
		return r.commandCache(cfgLoaded.Config, parsed.Args, logger)
	case cli.CommandLights:
		return r.commandLights(ctx, cfgLoaded.Config, parsed, logger)
	case cli.CommandPlay:
		return r.commandPlay(ctx, cfgLoaded, parsed, logger)
	case cli.CommandAudioIn:
		return r.commandAudioIn(ctx, cfgLoaded.Config, parsed, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		if resp.Song != "" {
			fmt.Fprintf(r.Stdout, "%s %s\n", resp.State, resp.Song)
		} else {
			fmt.Fprintln(r.Stdout, resp.State)
		}
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no running show\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandCache precomputes and stores per-song analyses without playing.
func (r Runner) commandCache(cfg config.Config, songs []string, logger *slog.Logger) int {
	analyzer, err := session.NewCachedAnalyzer(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	failed := 0
	for _, song := range songs {
		analysis, err := analyzer.Analyze(context.Background(), song)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %s: %v\n", song, err)
			failed++
			continue
		}
		fmt.Fprintf(r.Stdout, "cached %s (%d frames)\n", song, len(analysis.Levels))
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// commandLights drives every channel to a fixed state for hardware checkout.
func (r Runner) commandLights(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	state := "flash"
	if len(parsed.Args) == 1 {
		state = parsed.Args[0]
	}

	port, err := r.openPort(cfg, parsed.DryRun)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	bank := hardware.NewBank(port, logger)

	switch state {
	case "on":
		bank.SetAll(true)
		fmt.Fprintln(r.Stdout, "all channels on")
		return 0
	case "off":
		bank.AllOff()
		_ = port.Close()
		fmt.Fprintln(r.Stdout, "all channels off")
		return 0
	default:
		defer port.Close()
		for i := 0; i < 5; i++ {
			bank.SetAll(true)
			if !sleepCtx(ctx, 500*time.Millisecond) {
				break
			}
			bank.AllOff()
			if !sleepCtx(ctx, 500*time.Millisecond) {
				break
			}
		}
		bank.AllOff()
		fmt.Fprintln(r.Stdout, "flash complete")
		return 0
	}
}

// commandPlay owns the control socket and runs the playlist show.
func (r Runner) commandPlay(ctx context.Context, cfgLoaded config.Loaded, parsed cli.Parsed, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	port, err := r.openPort(cfgLoaded.Config, parsed.DryRun)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer port.Close()
	bank := hardware.NewBank(port, logger)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	holder := newConfigHolder(cfgLoaded.Config)
	if cfgLoaded.Exists {
		stopWatch, err := watchConfig(serverCtx, cfgLoaded.Path, holder, logger)
		if err != nil {
			logger.Warn("config watch unavailable", "error", err.Error())
		} else {
			defer stopWatch()
		}
	}

	var player session.SongPlayer = audio.Player{}
	if parsed.DryRun {
		player = session.DryRunPlayer{}
	}

	analyzer := session.AnalyzeFunc(func(ctx context.Context, path string) (*session.Analysis, error) {
		cached, err := session.NewCachedAnalyzer(holder.Load(), logger)
		if err != nil {
			return nil, err
		}
		return cached.Analyze(ctx, path)
	})

	preshowRunner := session.PreshowFunc(func(ctx context.Context) error {
		script, err := preshow.ParseScript(holder.Load().Lightshow.Preshow)
		if err != nil {
			return err
		}
		return preshow.NewSequencer(script).Run(ctx, bank)
	})

	factory := session.PipelineFactory(func() (session.FramePipeline, error) {
		return pipeline.Build(holder.Load(), bank, logger)
	})

	frameDelay := time.Duration(cfgLoaded.Config.Lightshow.LightDelaySeconds * float64(time.Second))
	controller := session.NewController(logger, player, analyzer, preshowRunner, factory, frameDelay)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx, parsed.Args)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logShowResult(logger, result)

	fmt.Fprintf(r.Stdout, "played %d of %d songs (%d skipped, %d frames, %d dropped)\n",
		result.SongsPlayed, len(parsed.Args), result.SongsSkipped,
		result.FramesProcessed, result.FramesDropped)

	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	return 0
}

// commandAudioIn owns the control socket and drives lights from live capture
// until stopped.
func (r Runner) commandAudioIn(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	port, err := r.openPort(cfg, parsed.DryRun)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer port.Close()
	bank := hardware.NewBank(port, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case "status":
			return ipc.Response{OK: true, State: "audioin", Message: "status"}
		case "stop":
			cancel()
			return ipc.Response{OK: true, State: "audioin", Message: "stop requested"}
		default:
			return ipc.Response{OK: false, State: "audioin", Error: fmt.Sprintf("unknown command: %s", req.Command)}
		}
	})

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(runCtx, listener, handler)
	}()

	selection, err := audio.SelectDevice(ctx, cfg.AudioIn.Source, cfg.AudioIn.Fallback)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if selection.Warning != "" {
		fmt.Fprintf(r.Stderr, "warning: %s\n", selection.Warning)
		logger.Warn("capture fallback", "warning", selection.Warning)
	}

	capture, err := audio.StartCapture(runCtx, selection.Device, cfg.AudioIn.SampleRate, cfg.AudioProcessing.ChunkSize)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer capture.Close()

	pl, err := pipeline.Build(session.AudioInPipelineConfig(cfg), bank, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	show, err := session.NewAudioInShow(cfg, pl, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("audio-in show started", "device", selection.Device.ID)
	runErr := show.Run(runCtx, capture.Chunks())
	cancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	fmt.Fprintln(r.Stdout, "audio-in show stopped")
	return 0
}

// openPort picks the hardware backend: real GPIO, or an in-memory port when
// dry-run keeps the relays out of the loop.
func (r Runner) openPort(cfg config.Config, dryRun bool) (hardware.Port, error) {
	if dryRun {
		return hardware.NewMemoryPort(cfg.ChannelCount()), nil
	}
	return hardware.OpenGPIO(cfg.Hardware.GPIOPins, cfg.Hardware.ActiveLowMode)
}

func logShowResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"songs_played", result.SongsPlayed,
		"songs_skipped", result.SongsSkipped,
		"frames_processed", result.FramesProcessed,
		"frames_dropped", result.FramesDropped,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}

	if result.Err != nil {
		logger.Error("show failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("show complete", fields...)
}

// sleepCtx sleeps unless the context ends first; false means interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
