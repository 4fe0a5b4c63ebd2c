// Package machine drives a vm.VM against a hal.HAL one frame at a time.
package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/vm"
)

type Config struct {
	// TicksPerFrame is the number of instructions executed between two
	// timer ticks.
	TicksPerFrame int
	FPS           int
}

func DefaultConfig() Config {
	return Config{
		TicksPerFrame: 10,
		FPS:           60,
	}
}

func (c Config) Validate() error {
	if c.TicksPerFrame <= 0 {
		return fmt.Errorf("ticks per frame must be positive, got %d", c.TicksPerFrame)
	}

	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}

	return nil
}

type Machine struct {
	vm  *vm.VM
	rom []byte
	cfg Config
}

func New(rom []byte, cfg Config, opts ...vm.Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m := &Machine{
		vm:  vm.New(opts...),
		rom: rom,
		cfg: cfg,
	}

	if err := m.boot(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Machine) VM() *vm.VM {
	return m.vm
}

func (m *Machine) boot() error {
	m.vm.Reset()

	if err := m.vm.LoadROM(m.rom); err != nil {
		return fmt.Errorf("unable to load rom: %w", err)
	}

	return nil
}

// Run executes frames until the HAL asks to quit, ctx is done or the ROM
// fails. Quitting is not an error.
func (m *Machine) Run(ctx context.Context, h hal.HAL) error {
	halted := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := m.runFrame(h)
		switch {
		case err == nil:
		case errors.Is(err, hal.ErrQuit):
			slog.Debug("machine: quit requested")
			return nil
		case errors.Is(err, hal.ErrReboot):
			slog.Info("machine: reboot")
			if err := m.boot(); err != nil {
				return err
			}
			halted = false
			continue
		default:
			return err
		}

		if m.vm.Idle() && !halted {
			slog.Info("program looped", "pc", fmt.Sprintf("0x%04x", m.vm.PC()))
		}
		halted = m.vm.Idle()
	}
}

func (m *Machine) runFrame(h hal.HAL) error {
	if err := h.ReadInput(m.keyDown, m.keyUp); err != nil {
		return err
	}

	for i := 0; i < m.cfg.TicksPerFrame && !m.vm.Idle(); i++ {
		if err := m.vm.Tick(); err != nil {
			return fmt.Errorf("program failed: %w", err)
		}
	}

	if m.vm.TickTimers() {
		if err := h.Beep(); err != nil {
			return err
		}
	}

	if err := h.Draw(m.vm.Display()); err != nil {
		return err
	}

	return h.WaitForNextFrame()
}

func (m *Machine) keyDown(key vm.Key) {
	if err := m.vm.KeyPress(key, true); err != nil {
		slog.Error("machine: key down", "key", key, "err", err)
	}
}

func (m *Machine) keyUp(key vm.Key) {
	if err := m.vm.KeyPress(key, false); err != nil {
		slog.Error("machine: key up", "key", key, "err", err)
	}
}
