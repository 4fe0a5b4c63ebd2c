// Package terminal renders the screen with half-block characters and reads
// the keypad from a tcell terminal.
package terminal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/vm"
)

const (
	// Each cell shows two pixel rows.
	cellRows = vm.ScreenHeight / 2

	// Terminals report key presses but never releases, so a key is
	// released once it has not repeated for this long.
	keyTimeout = 150 * time.Millisecond

	upperHalf = '▀'
	lowerHalf = '▄'
	fullBlock = '█'
)

type Config struct {
	FPS int
}

type HAL struct {
	screen  tcell.Screen
	style   tcell.Style
	limiter *hal.FrameLimiter

	pressedAt map[vm.Key]time.Time
	now       func() time.Time
}

var _ hal.HAL = (*HAL)(nil)

// New takes over the terminal.
func New(cfg Config) (*HAL, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	return NewWithScreen(screen, cfg)
}

// NewWithScreen uses an existing screen, such as a tcell.SimulationScreen.
func NewWithScreen(screen tcell.Screen, cfg Config) (*HAL, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	screen.SetStyle(style)
	screen.HideCursor()
	screen.Clear()

	return &HAL{
		screen:    screen,
		style:     style,
		limiter:   hal.NewFrameLimiter(cfg.FPS),
		pressedAt: make(map[vm.Key]time.Time),
		now:       time.Now,
	}, nil
}

func (t *HAL) Shutdown() {
	t.screen.Fini()
}

func (t *HAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if err := t.processKey(ev, now, keyDown); err != nil {
				return err
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	for key, at := range t.pressedAt {
		if now.Sub(at) >= keyTimeout {
			delete(t.pressedAt, key)
			slog.Debug("hal: key release", "key", key)
			keyUp(key)
		}
	}

	return nil
}

func (t *HAL) processKey(ev *tcell.EventKey, now time.Time, keyDown func(vm.Key)) error {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		slog.Debug("hal: exit requested")
		return hal.ErrQuit
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return hal.ErrReboot
	case tcell.KeyRune:
	default:
		return nil
	}

	key, ok := hal.KeyForRune(ev.Rune())
	if !ok {
		return nil
	}

	if _, held := t.pressedAt[key]; !held {
		slog.Debug("hal: key press", "key", key)
		keyDown(key)
	}
	t.pressedAt[key] = now
	return nil
}

func (t *HAL) Draw(frame vm.Frame) error {
	for row := 0; row < cellRows; row++ {
		for x := 0; x < vm.ScreenWidth; x++ {
			top := frame.At(x, 2*row)
			bottom := frame.At(x, 2*row+1)
			t.screen.SetContent(x, row, halfBlock(top, bottom), nil, t.style)
		}
	}

	t.screen.Show()
	return nil
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return fullBlock
	case top:
		return upperHalf
	case bottom:
		return lowerHalf
	default:
		return ' '
	}
}

func (t *HAL) Beep() error {
	if err := t.screen.Beep(); err != nil {
		slog.Debug("hal: beep failed", "err", err)
	}
	return nil
}

func (t *HAL) WaitForNextFrame() error {
	t.limiter.Wait()
	return nil
}
