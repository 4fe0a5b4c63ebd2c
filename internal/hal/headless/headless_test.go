package headless_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/hal/headless"
	"github.com/kapitanov/chip8core/internal/machine"
	"github.com/kapitanov/chip8core/internal/tone"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(program ...uint16) []byte {
	rom := make([]byte, 0, len(program)*2)
	for _, op := range program {
		rom = append(rom, byte(op>>8), byte(op))
	}
	return rom
}

func TestHAL_quitsAfterFrames(t *testing.T) {
	h := headless.New(headless.Config{Frames: 3})
	noop := func(vm.Key) {}

	for i := 0; i < 3; i++ {
		require.NoError(t, h.ReadInput(noop, noop))
		require.NoError(t, h.Draw(vm.Frame{}))
		require.NoError(t, h.WaitForNextFrame())
	}

	assert.ErrorIs(t, h.ReadInput(noop, noop), hal.ErrQuit)
	assert.Equal(t, 3, h.Frames())
}

func TestHAL_presses(t *testing.T) {
	h := headless.New(headless.Config{
		Frames:  5,
		Presses: []headless.Press{{Frame: 1, Key: vm.Key4}, {Frame: 1, Key: vm.KeyE}},
	})

	var events []string
	down := func(k vm.Key) { events = append(events, "+"+k.String()) }
	up := func(k vm.Key) { events = append(events, "-"+k.String()) }

	for i := 0; i < 3; i++ {
		require.NoError(t, h.ReadInput(down, up))
		require.NoError(t, h.WaitForNextFrame())
	}

	assert.Equal(t, []string{"+4", "+E", "-4", "-E"}, events)
}

func TestParsePress(t *testing.T) {
	testCases := []struct {
		in      string
		want    headless.Press
		wantErr bool
	}{
		{in: "10:5", want: headless.Press{Frame: 10, Key: vm.Key5}},
		{in: "0:f", want: headless.Press{Frame: 0, Key: vm.KeyF}},
		{in: "7:A", want: headless.Press{Frame: 7, Key: vm.KeyA}},
		{in: "7", wantErr: true},
		{in: "x:1", wantErr: true},
		{in: "-1:1", wantErr: true},
		{in: "1:10", wantErr: true},
		{in: "1:g", wantErr: true},
	}
	for _, tC := range testCases {
		t.Run(tC.in, func(t *testing.T) {
			got, err := headless.ParsePress(tC.in)
			if tC.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tC.want, got)
		})
	}
}

func TestHAL_runsMachine(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "frame.txt")
	wavPath := filepath.Join(dir, "beep.wav")

	rom := assemble(
		0xF10A, // key v1
		0xF129, // font v1
		0xD005, // sprite v0, v0, 5
		0x6202, // mov v2, 2
		0xF218, // ssound v2
		0x120A, // jmp 0x20A
	)

	m, err := machine.New(rom, machine.DefaultConfig())
	require.NoError(t, err)

	h := headless.New(headless.Config{
		Frames:   10,
		Presses:  []headless.Press{{Frame: 2, Key: vm.Key1}},
		WAVPath:  wavPath,
		Snapshot: snapshot,
	})
	require.NoError(t, m.Run(context.Background(), h))
	h.Shutdown()

	// ssound runs in frame 2 and the timer runs out in the next frame.
	assert.Equal(t, []int{3}, h.Beeps())
	assert.Equal(t, 10, h.Frames())

	// Glyph "1" is 0x20, 0x60, 0x20, 0x20, 0x70.
	text, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	lines := strings.Split(string(text), "\n")
	assert.Equal(t, "..#.....", lines[0][:8])
	assert.Equal(t, ".##.....", lines[1][:8])
	assert.Equal(t, ".###....", lines[4][:8])
	assert.Equal(t, h.LastFrame().String(), string(text))

	f, err := os.Open(wavPath)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	pcm, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	perFrame := tone.SampleRate / 60
	require.Len(t, pcm.Data, 10*perFrame)
	assert.Zero(t, pcm.Data[3*perFrame-1])
	assert.Equal(t, tone.Amplitude, pcm.Data[3*perFrame])
}
