package vm

import (
	"context"
	"fmt"
	"log/slog"
)

// pc has already been advanced past the instruction when Execute runs.
type instruction struct {
	Name    func(opcode uint16) string
	Execute func(vm *VM, opcode uint16) error
}

func (vm *VM) executeOpcode(at uint16, opcode uint16) error {
	instr := decode(opcode)

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", at),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", instr.Name(opcode),
		)
	}

	vm.idle = false
	return instr.Execute(vm, opcode)
}

func regX(opcode uint16) uint16 {
	return (opcode & 0x0F00) >> 8
}

func regY(opcode uint16) uint16 {
	return (opcode & 0x00F0) >> 4
}

func byteNN(opcode uint16) uint8 {
	return uint8(opcode & 0x00FF)
}

func addrNNN(opcode uint16) uint16 {
	return opcode & 0x0FFF
}

func decode(opcode uint16) instruction {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x0000:
			return nopInstruction

		case 0x00E0:
			// 00E0 - Clear screen
			return clsInstruction

		case 0x00EE:
			// 00EE - Return from subroutine
			return rtsInstruction
		}

	case 0x1000:
		// 1NNN - Jumps to address NNN
		return jmpInstruction

	case 0x2000:
		// 2NNN - Calls subroutine at NNN
		return jsrInstruction

	case 0x3000:
		// 3XNN - Skips the next instruction if VX equals NN
		return skeq1Instruction

	case 0x4000:
		// 4XNN - Skips the next instruction if VX does not equal NN
		return skne1Instruction

	case 0x5000:
		// 5XY0 - Skips the next instruction if VX equals VY
		if opcode&0x000F == 0 {
			return skeq2Instruction
		}

	case 0x6000:
		// 6XNN - Sets VX to NN
		return mov1Instruction

	case 0x7000:
		// 7XNN - Adds NN to VX, no carry
		return add1Instruction

	case 0x8000:
		// 8XY_
		switch opcode & 0x000F {
		case 0x0000:
			// 8XY0 - Sets VX to the value of VY
			return mov2Instruction

		case 0x0001:
			// 8XY1 - Sets VX to (VX OR VY)
			return orInstruction

		case 0x0002:
			// 8XY2 - Sets VX to (VX AND VY)
			return andInstruction

		case 0x0003:
			// 8XY3 - Sets VX to (VX XOR VY)
			return xorInstruction

		case 0x0004:
			// 8XY4 - Adds VY to VX. VF is set to 1 when there's a carry, and to 0 when there isn't.
			return add2Instruction

		case 0x0005:
			// 8XY5 - VY is subtracted from VX. VF is set to 0 when there's a borrow, and 1 when there isn't.
			return subInstruction

		case 0x0006:
			// 8XY6 - Shifts VX right by one. VF is set to the value of the least significant bit of VX before the shift.
			return shrInstruction

		case 0x0007:
			// 8XY7 - Sets VX to VY minus VX. VF is set to 0 when there's a borrow, and 1 when there isn't.
			return rsbInstruction

		case 0x000E:
			// 8XYE - Shifts VX left by one. VF is set to the value of the most significant bit of VX before the shift.
			return shlInstruction
		}

	case 0x9000:
		// 9XY0 - Skips the next instruction if VX doesn't equal VY
		if opcode&0x000F == 0 {
			return skne2Instruction
		}

	case 0xA000:
		// ANNN - Sets I to the address NNN
		return mviInstruction

	case 0xB000:
		// BNNN - Jumps to the address NNN plus V0
		return jmiInstruction

	case 0xC000:
		// CXNN - Sets VX to a random number, masked by NN
		return randInstruction

	case 0xD000:
		// DXYN - Draws an 8xN sprite read from I at (VX, VY).
		// VF is set to 1 if any pixel is flipped from set to unset.
		return spriteInstruction

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			// EX9E - Skips the next instruction if the key stored in VX is pressed
			return skprInstruction

		case 0x00A1:
			// EXA1 - Skips the next instruction if the key stored in VX isn't pressed
			return skupInstruction
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			// FX07 - Sets VX to the value of the delay timer
			return gdelayInstruction

		case 0x000A:
			// FX0A - A key press is awaited, and then stored in VX
			return keyInstruction

		case 0x0015:
			// FX15 - Sets the delay timer to VX
			return sdelayInstruction

		case 0x0018:
			// FX18 - Sets the sound timer to VX
			return ssoundInstruction

		case 0x001E:
			// FX1E - Adds VX to I
			return adiInstruction

		case 0x0029:
			// FX29 - Sets I to the location of the font glyph for the hex digit in VX
			return fontInstruction

		case 0x0033:
			// FX33 - Stores the BCD representation of VX at I, I+1 and I+2
			return bcdInstruction

		case 0x0055:
			// FX55 - Stores V0 to VX in memory starting at address I
			return strInstruction

		case 0x0065:
			// FX65 - Reads memory starting at address I into V0...VX
			return ldrInstruction
		}
	}

	return unknownInstruction
}

// skipIf advances past the next instruction when cond holds.
func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += InstructionSize
	}
}

// setFlag writes VF. Arithmetic instructions call it after storing the
// result so VF holds the flag even when X is F.
func (vm *VM) setFlag(set bool) {
	if set {
		vm.registers[0x0F] = 1
	} else {
		vm.registers[0x0F] = 0
	}
}

var (
	// 0000	nop
	nopInstruction = instruction{
		Name: func(opcode uint16) string {
			return "nop"
		},
		Execute: func(vm *VM, opcode uint16) error {
			return nil
		},
	}

	// 00E0	cls	Clear the screen
	clsInstruction = instruction{
		Name: func(opcode uint16) string {
			return "cls"
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.gfx = Frame{}
			return nil
		},
	}

	// 00EE	rts	return from subroutine call
	rtsInstruction = instruction{
		Name: func(opcode uint16) string {
			return "rts"
		},
		Execute: func(vm *VM, opcode uint16) error {
			pc, err := vm.pop()
			if err != nil {
				return err
			}
			vm.pc = pc
			return nil
		},
	}

	// 1xxx	jmp xxx	jump to address xxx
	jmpInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("jmp 0x%04x", addrNNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			pc := addrNNN(opcode)
			vm.idle = pc == vm.pc-InstructionSize
			vm.pc = pc
			return nil
		},
	}

	// 2xxx	jsr xxx	jump to subroutine at address xxx
	jsrInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("jsr 0x%04x", addrNNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			if err := vm.push(vm.pc); err != nil {
				return err
			}
			vm.pc = addrNNN(opcode)
			return nil
		},
	}

	// 3rxx	skeq vr,xx	skip if register r = constant
	skeq1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skeq v%x, %d", regX(opcode), byteNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.skipIf(vm.registers[regX(opcode)] == byteNN(opcode))
			return nil
		},
	}

	// 4rxx	skne vr,xx	skip if register r <> constant
	skne1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skne v%x, %d", regX(opcode), byteNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.skipIf(vm.registers[regX(opcode)] != byteNN(opcode))
			return nil
		},
	}

	// 5ry0	skeq vr,vy	skip if register r = register y
	skeq2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skeq v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.skipIf(vm.registers[regX(opcode)] == vm.registers[regY(opcode)])
			return nil
		},
	}

	// 6rxx	mov vr,xx	move constant to register r
	mov1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("mov v%x, %d", regX(opcode), byteNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = byteNN(opcode)
			return nil
		},
	}

	// 7rxx	add vr,xx	add constant to register r	No carry generated
	add1Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("add v%x, %d", regX(opcode), byteNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] += byteNN(opcode)
			return nil
		},
	}

	// 8ry0	mov vr,vy	move register vy into vr
	mov2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("mov v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry1	or rx,ry	or register vy into register vx
	orInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("or v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] |= vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry2	and rx,ry	and register vy into register vx
	andInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("and v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] &= vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry3	xor rx,ry	exclusive or register ry into register rx
	xorInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("xor v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] ^= vm.registers[regY(opcode)]
			return nil
		},
	}

	// 8ry4	add vr,vy	add register vy to vr, carry in vf
	add2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("add v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			sum := uint16(vm.registers[vX]) + uint16(vm.registers[regY(opcode)])

			vm.registers[vX] = uint8(sum)
			vm.setFlag(sum > 0xFF)
			return nil
		},
	}

	// 8ry5	sub vr,vy	subtract register vy from vr, vf set to 0 if borrows
	subInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("sub v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]
			y := vm.registers[regY(opcode)]

			vm.registers[vX] = x - y
			vm.setFlag(x >= y)
			return nil
		},
	}

	// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
	shrInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("shr v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]

			vm.registers[vX] = x >> 1
			vm.setFlag(x&0x1 != 0)
			return nil
		},
	}

	// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr, vf set to 0 if borrows
	rsbInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("rsb v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]
			y := vm.registers[regY(opcode)]

			vm.registers[vX] = y - x
			vm.setFlag(y >= x)
			return nil
		},
	}

	// 8r0e	shl vr	shift register vr left, bit 7 goes into register vf
	shlInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("shl v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)
			x := vm.registers[vX]

			vm.registers[vX] = x << 1
			vm.setFlag(x>>7 != 0)
			return nil
		},
	}

	// 9ry0	skne vr,vy	skip if register r <> register y
	skne2Instruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skne v%x, v%x", regX(opcode), regY(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.skipIf(vm.registers[regX(opcode)] != vm.registers[regY(opcode)])
			return nil
		},
	}

	// axxx	mvi xxx	Load index register with constant xxx
	mviInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("mvi 0x%04x", addrNNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.index = addrNNN(opcode)
			return nil
		},
	}

	// bxxx	jmi xxx	Jump to address xxx+register v0
	jmiInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("jmi 0x%04x", addrNNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.pc = addrNNN(opcode) + uint16(vm.registers[0])
			return nil
		},
	}

	// crxx	rand vr,xx	vr = random byte masked by xx
	randInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("rand v%x, 0x%02x", regX(opcode), byteNN(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			x := uint8(vm.rand.UintN(256))
			vm.registers[regX(opcode)] = x & byteNN(opcode)
			return nil
		},
	}

	// drys	sprite rx,ry,s	Draw sprite at screen location rx,ry height s
	// Sprites stored in memory at location in index register, 8 bits wide.
	// Wraps around the screen.
	// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
	// All drawing is xor drawing (e.g. it toggles the screen pixels)
	spriteInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", regX(opcode), regY(opcode), opcode&0x000F)
		},
		Execute: func(vm *VM, opcode uint16) error {
			height := int(opcode & 0x000F)

			rows, err := vm.memoryRange(vm.index, height)
			if err != nil {
				return err
			}

			xLocation := int(vm.registers[regX(opcode)])
			yLocation := int(vm.registers[regY(opcode)])

			hasCollision := false
			for y, pixel := range rows {
				const width = 8
				for x := 0; x < width; x++ {
					mask := uint8(0x80 >> x)
					if pixel&mask == 0 {
						continue
					}

					addr := screenAddr(x+xLocation, y+yLocation)
					if vm.gfx[addr] {
						hasCollision = true
					}

					vm.gfx[addr] = !vm.gfx[addr]
				}
			}

			vm.setFlag(hasCollision)
			return nil
		},
	}

	// ek9e	skpr k	skip if key (register rk) pressed
	skprInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skpr v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			pressed, err := vm.keyState(vm.registers[regX(opcode)])
			if err != nil {
				return err
			}

			vm.skipIf(pressed)
			return nil
		},
	}

	// eka1	skup k	skip if key (register rk) not pressed
	skupInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("skup v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			pressed, err := vm.keyState(vm.registers[regX(opcode)])
			if err != nil {
				return err
			}

			vm.skipIf(!pressed)
			return nil
		},
	}

	// fr07	gdelay vr	get delay timer into vr
	gdelayInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("gdelay v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.registers[regX(opcode)] = vm.delayTimer
			return nil
		},
	}

	// fr0a	key vr	wait for keypress, put key in register vr
	keyInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("key v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vX := regX(opcode)

			for i, pressed := range vm.keypad {
				if pressed {
					vm.registers[vX] = uint8(i)
					vm.awaitingKey = false
					return nil
				}
			}

			// Nothing pressed: stay on this instruction until the next tick.
			vm.awaitingKey = true
			vm.pc -= InstructionSize
			return nil
		},
	}

	// fr15	sdelay vr	set the delay timer to vr
	sdelayInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("sdelay v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.delayTimer = vm.registers[regX(opcode)]
			return nil
		},
	}

	// fr18	ssound vr	set the sound timer to vr
	ssoundInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("ssound v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.soundTimer = vm.registers[regX(opcode)]
			return nil
		},
	}

	// fr1e	adi vr	add register vr to the index register
	adiInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("adi v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			vm.index += uint16(vm.registers[regX(opcode)])
			return nil
		},
	}

	// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
	fontInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("font v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			x := uint16(vm.registers[regX(opcode)])
			vm.index = fontStart + x*fontGlyphSize
			return nil
		},
	}

	// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
	bcdInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("bcd v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			dst, err := vm.memoryRange(vm.index, 3)
			if err != nil {
				return err
			}

			x := vm.registers[regX(opcode)]
			dst[0] = x / 100
			dst[1] = (x / 10) % 10
			dst[2] = x % 10
			return nil
		},
	}

	// fr55	str v0-vr	store registers v0-vr at location I onwards	Doesn't change I
	strInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("str v0-v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			n := int(regX(opcode)) + 1

			dst, err := vm.memoryRange(vm.index, n)
			if err != nil {
				return err
			}

			copy(dst, vm.registers[:n])
			return nil
		},
	}

	// fr65	ldr v0-vr	load registers v0-vr from location I onwards	Doesn't change I
	ldrInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("ldr v0-v%x", regX(opcode))
		},
		Execute: func(vm *VM, opcode uint16) error {
			n := int(regX(opcode)) + 1

			src, err := vm.memoryRange(vm.index, n)
			if err != nil {
				return err
			}

			copy(vm.registers[:n], src)
			return nil
		},
	}

	unknownInstruction = instruction{
		Name: func(opcode uint16) string {
			return fmt.Sprintf("unknown 0x%04X", opcode)
		},
		Execute: func(vm *VM, opcode uint16) error {
			return ErrInvalidOpcode
		},
	}
)

func (vm *VM) keyState(key uint8) (bool, error) {
	if !Key(key).Valid() {
		return false, fmt.Errorf("%w: 0x%02x", ErrKeyOutOfRange, key)
	}

	return vm.keypad[key], nil
}
