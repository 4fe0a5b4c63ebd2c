package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/hal/headless"
	"github.com/kapitanov/chip8core/internal/hal/sdl2"
	"github.com/kapitanov/chip8core/internal/hal/terminal"
	"github.com/kapitanov/chip8core/internal/machine"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/spf13/cobra"
)

const (
	backendSDL      = "sdl"
	backendTerminal = "terminal"
	backendHeadless = "headless"
)

type options struct {
	verbose       bool
	backend       string
	ticksPerFrame int
	fps           int
	scale         int
	seed          uint64
	frames        int
	presses       []string
	wavPath       string
	snapshot      string
	logFile       string
}

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run a CHIP-8 program",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var opts options
	defaults := machine.DefaultConfig()

	flags := cmd.Flags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&opts.backend, "backend", "b", backendSDL, "backend: sdl, terminal or headless")
	flags.IntVar(&opts.ticksPerFrame, "ticks-per-frame", defaults.TicksPerFrame, "instructions executed per frame")
	flags.IntVar(&opts.fps, "fps", defaults.FPS, "frames per second")
	flags.IntVar(&opts.scale, "scale", 16, "sdl: window scale factor")
	flags.Uint64Var(&opts.seed, "seed", 0, "seed for the random number instruction (0 picks one)")
	flags.IntVar(&opts.frames, "frames", 600, "headless: number of frames to run")
	flags.StringArrayVar(&opts.presses, "press", nil, "headless: press KEY (hex) during FRAME, as FRAME:KEY")
	flags.StringVar(&opts.wavPath, "wav", "", "headless: write beeps to this WAV file")
	flags.StringVar(&opts.snapshot, "snapshot", "", "headless: write the final screen to this file")
	flags.StringVar(&opts.logFile, "log-file", "", "terminal: write logs to this file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging(opts)
		if err != nil {
			return err
		}
		defer closeLog()

		path := args[0]
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		cfg := machine.Config{
			TicksPerFrame: opts.ticksPerFrame,
			FPS:           opts.fps,
		}

		var vmOpts []vm.Option
		if opts.seed != 0 {
			vmOpts = append(vmOpts, vm.WithRand(rand.New(rand.NewPCG(opts.seed, opts.seed))))
		}

		m, err := machine.New(bs, cfg, vmOpts...)
		if err != nil {
			return err
		}

		h, err := newHAL(opts, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("unable to initialize hal: %w", err)
		}
		defer h.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return m.Run(ctx, h)
	}

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func setupLogging(opts options) (func(), error) {
	loggerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if opts.verbose {
		loggerOpts.Level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closer := func() {}

	// tcell owns the terminal, so logs go to a file or nowhere.
	if opts.backend == backendTerminal {
		w = io.Discard
		if opts.logFile != "" {
			f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("unable to open log file: %w", err)
			}
			w = f
			closer = func() { _ = f.Close() }
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, loggerOpts)))
	return closer, nil
}

func newHAL(opts options, title string) (hal.HAL, error) {
	switch opts.backend {
	case backendSDL:
		return sdl2.New(sdl2.Config{
			Title: "CHIP-8 - " + title,
			Scale: opts.scale,
			FPS:   opts.fps,
		})

	case backendTerminal:
		return terminal.New(terminal.Config{FPS: opts.fps})

	case backendHeadless:
		presses := make([]headless.Press, 0, len(opts.presses))
		for _, s := range opts.presses {
			p, err := headless.ParsePress(s)
			if err != nil {
				return nil, err
			}
			presses = append(presses, p)
		}

		return headless.New(headless.Config{
			Frames:   opts.frames,
			FPS:      opts.fps,
			Presses:  presses,
			WAVPath:  opts.wavPath,
			Snapshot: opts.snapshot,
		}), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", opts.backend)
	}
}
