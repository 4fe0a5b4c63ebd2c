// Package hal defines the hardware the machine loop drives: a screen, a
// 16-key keypad, a beeper and a frame clock.
package hal

import (
	"errors"

	"github.com/kapitanov/chip8core/internal/vm"
)

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

type HAL interface {
	// ReadInput drains pending input, reporting key transitions through
	// the callbacks. It returns ErrQuit or ErrReboot on those requests.
	ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error
	Draw(frame vm.Frame) error
	Beep() error
	WaitForNextFrame() error
	Shutdown()
}
