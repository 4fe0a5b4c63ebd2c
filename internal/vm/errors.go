package vm

import (
	"errors"
	"fmt"
)

var (
	ErrROMTooLarge       = errors.New("rom too large")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrInvalidOpcode     = errors.New("invalid opcode")
	ErrKeyOutOfRange     = errors.New("key out of range")
	ErrAddressOutOfRange = errors.New("address out of range")
)

// ExecError is returned by Tick when an instruction cannot be executed.
// Interpretation of the current ROM should stop.
type ExecError struct {
	PC     uint16 // Address of the failing instruction
	Opcode uint16
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec 0x%04X at 0x%04x: %v", e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
