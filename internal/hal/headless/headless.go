// Package headless runs a ROM for a fixed number of frames without a display,
// for batch runs and tests.
package headless

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/tone"
	"github.com/kapitanov/chip8core/internal/vm"
)

const beepDuration = 100 * time.Millisecond

// Press holds Key down for the single frame Frame.
type Press struct {
	Frame int
	Key   vm.Key
}

type Config struct {
	Frames   int
	FPS      int
	Presses  []Press
	WAVPath  string // Beep timeline, skipped if empty
	Snapshot string // Final frame as text, skipped if empty
}

type HAL struct {
	cfg Config

	frameCount int
	presses    map[int][]vm.Key
	held       []vm.Key
	last       vm.Frame
	beeps      []int

	samplesPerFrame int
	timeline        *audio.IntBuffer
	beepPCM         []int
	beepLeft        []int
}

var _ hal.HAL = (*HAL)(nil)

func New(cfg Config) *HAL {
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}

	h := &HAL{
		cfg:             cfg,
		presses:         make(map[int][]vm.Key),
		samplesPerFrame: tone.SampleRate / cfg.FPS,
	}

	for _, p := range cfg.Presses {
		h.presses[p.Frame] = append(h.presses[p.Frame], p.Key)
	}

	if cfg.WAVPath != "" {
		h.timeline = tone.Silence(tone.SampleRate, 0)
		h.beepPCM = tone.Beep(beepDuration).Data
	}

	slog.Info("running headless", "frames", cfg.Frames, "presses", len(cfg.Presses))
	return h
}

func (h *HAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	if h.frameCount >= h.cfg.Frames {
		slog.Info("headless execution completed", "frames", h.frameCount)
		return hal.ErrQuit
	}

	for _, key := range h.held {
		keyUp(key)
	}
	h.held = h.held[:0]

	for _, key := range h.presses[h.frameCount] {
		keyDown(key)
		h.held = append(h.held, key)
	}

	return nil
}

func (h *HAL) Draw(frame vm.Frame) error {
	h.last = frame
	return nil
}

func (h *HAL) Beep() error {
	h.beeps = append(h.beeps, h.frameCount)
	h.beepLeft = h.beepPCM
	return nil
}

// WaitForNextFrame does not sleep; it advances the frame counter and the
// audio timeline by one frame.
func (h *HAL) WaitForNextFrame() error {
	if h.timeline != nil {
		for i := 0; i < h.samplesPerFrame; i++ {
			s := 0
			if len(h.beepLeft) > 0 {
				s = h.beepLeft[0]
				h.beepLeft = h.beepLeft[1:]
			}
			h.timeline.Data = append(h.timeline.Data, s)
		}
	}

	h.frameCount++
	if h.frameCount%60 == 0 {
		slog.Debug("frame progress", "completed", h.frameCount, "total", h.cfg.Frames)
	}

	return nil
}

// Shutdown writes the configured outputs.
func (h *HAL) Shutdown() {
	if err := h.writeOutputs(); err != nil {
		slog.Error("headless: failed to write output", "err", err)
	}
}

func (h *HAL) writeOutputs() error {
	if h.cfg.Snapshot != "" {
		if err := os.WriteFile(h.cfg.Snapshot, []byte(h.last.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		slog.Info("snapshot saved", "path", h.cfg.Snapshot)
	}

	if h.timeline != nil {
		f, err := os.Create(h.cfg.WAVPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", h.cfg.WAVPath, err)
		}
		defer f.Close()

		if err := tone.WriteWAV(f, h.timeline); err != nil {
			return fmt.Errorf("failed to write %s: %w", h.cfg.WAVPath, err)
		}
		slog.Info("audio saved", "path", h.cfg.WAVPath, "beeps", len(h.beeps))
	}

	return nil
}

// Frames returns the number of frames run so far.
func (h *HAL) Frames() int {
	return h.frameCount
}

// LastFrame returns the most recently drawn frame.
func (h *HAL) LastFrame() vm.Frame {
	return h.last
}

// Beeps returns the frames in which a beep was signalled.
func (h *HAL) Beeps() []int {
	return h.beeps
}

// ParsePress parses FRAME:KEY, where KEY is a hex digit 0-F.
func ParsePress(s string) (Press, error) {
	frameStr, keyStr, ok := strings.Cut(s, ":")
	if !ok {
		return Press{}, fmt.Errorf("press %q: want FRAME:KEY", s)
	}

	frame, err := strconv.Atoi(frameStr)
	if err != nil || frame < 0 {
		return Press{}, fmt.Errorf("press %q: bad frame", s)
	}

	key, err := strconv.ParseUint(keyStr, 16, 8)
	if err != nil || !vm.Key(key).Valid() {
		return Press{}, fmt.Errorf("press %q: key must be 0-F", s)
	}

	return Press{Frame: frame, Key: vm.Key(key)}, nil
}
