package vm

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	// MaxROMSize is the space between ProgramStart and the end of memory.
	MaxROMSize = MemorySize - int(ProgramStart)
)

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack [StackSize]uint16 // Stack
	sp    uint16            // Stack pointer

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	gfx    Frame          // Graphics buffer
	keypad [KeyCount]bool // Keypad

	// Set while FX0A is waiting for a key press.
	awaitingKey bool

	idle bool

	rand *rand.Rand
}

type Option func(*VM)

// WithRand sets the source used by CXNN.
func WithRand(r *rand.Rand) Option {
	return func(vm *VM) {
		vm.rand = r
	}
}

func New(opts ...Option) *VM {
	vm := &VM{}
	for _, opt := range opts {
		opt(vm)
	}

	if vm.rand == nil {
		vm.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	vm.Reset()
	return vm
}

// Reset restores the state New returns. The random source is kept.
func (vm *VM) Reset() {
	vm.memory = [MemorySize]uint8{}
	vm.registers = [RegisterCount]uint8{}
	vm.stack = [StackSize]uint16{}
	vm.sp = 0
	vm.pc = ProgramStart
	vm.index = 0
	vm.delayTimer = 0
	vm.soundTimer = 0
	vm.gfx = Frame{}
	vm.keypad = [KeyCount]bool{}
	vm.awaitingKey = false
	vm.idle = false

	copy(vm.memory[fontStart:], chip8Font[:])
}

// LoadROM copies rom into memory at ProgramStart. Registers, stack and
// screen are left alone; call Reset first for a clean run.
func (vm *VM) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrROMTooLarge, len(rom), MaxROMSize)
	}

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(rom))
	copy(vm.memory[ProgramStart:], rom)
	return nil
}

func (vm *VM) KeyPress(key Key, pressed bool) error {
	if !key.Valid() {
		return fmt.Errorf("%w: 0x%02x", ErrKeyOutOfRange, uint8(key))
	}

	vm.keypad[key] = pressed
	return nil
}

// Display returns a copy of the framebuffer.
func (vm *VM) Display() Frame {
	return vm.gfx
}

// Tick runs a single fetch-decode-execute step.
func (vm *VM) Tick() error {
	at := vm.pc

	opcode, err := vm.fetchOpcode()
	if err != nil {
		return &ExecError{PC: at, Opcode: 0, Err: err}
	}

	if err := vm.executeOpcode(at, opcode); err != nil {
		return &ExecError{PC: at, Opcode: opcode, Err: err}
	}

	return nil
}

// TickTimers decrements both timers and reports whether the sound timer just
// finished its countdown. Call it once per frame.
func (vm *VM) TickTimers() bool {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	beep := false
	if vm.soundTimer > 0 {
		if vm.soundTimer == 1 {
			beep = true
		}
		vm.soundTimer--
	}

	return beep
}

func (vm *VM) fetchOpcode() (uint16, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: fetch at 0x%04x", ErrAddressOutOfRange, vm.pc)
	}

	hi := vm.memory[vm.pc]
	lo := vm.memory[vm.pc+1]
	vm.pc += InstructionSize

	opcode := uint16(hi)<<8 | uint16(lo) // Op code is two bytes
	return opcode, nil
}

func (vm *VM) push(addr uint16) error {
	if int(vm.sp) >= StackSize {
		return ErrStackOverflow
	}

	vm.sp++
	vm.stack[vm.sp-1] = addr
	return nil
}

func (vm *VM) pop() (uint16, error) {
	if vm.sp == 0 {
		return 0, ErrStackUnderflow
	}

	vm.sp--
	return vm.stack[vm.sp], nil
}

// memoryRange returns memory[addr:addr+n] or an error if it runs past the end.
func (vm *VM) memoryRange(addr uint16, n int) ([]uint8, error) {
	end := int(addr) + n
	if end > MemorySize {
		return nil, fmt.Errorf("%w: 0x%04x+%d", ErrAddressOutOfRange, addr, n)
	}

	return vm.memory[addr:end], nil
}

func (vm *VM) PC() uint16 {
	return vm.pc
}

func (vm *VM) Index() uint16 {
	return vm.index
}

func (vm *VM) SP() uint16 {
	return vm.sp
}

// Register returns Vi. It panics if i is not in 0..15.
func (vm *VM) Register(i int) uint8 {
	return vm.registers[i]
}

func (vm *VM) DelayTimer() uint8 {
	return vm.delayTimer
}

func (vm *VM) SoundTimer() uint8 {
	return vm.soundTimer
}

// AwaitingKey reports whether the VM is blocked on FX0A.
func (vm *VM) AwaitingKey() bool {
	return vm.awaitingKey
}

// Idle reports whether the last instruction was a jump to itself.
func (vm *VM) Idle() bool {
	return vm.idle
}
