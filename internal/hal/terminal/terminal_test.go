package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHAL(t *testing.T) (*HAL, tcell.SimulationScreen) {
	t.Helper()

	screen := tcell.NewSimulationScreen("")
	h, err := NewWithScreen(screen, Config{FPS: 60})
	require.NoError(t, err)
	t.Cleanup(h.Shutdown)

	screen.SetSize(80, 25)
	return h, screen
}

type recorder struct {
	down []vm.Key
	up   []vm.Key
}

func (r *recorder) keyDown(k vm.Key) { r.down = append(r.down, k) }
func (r *recorder) keyUp(k vm.Key)   { r.up = append(r.up, k) }

func TestHAL_Draw(t *testing.T) {
	h, screen := newTestHAL(t)

	var frame vm.Frame
	set := func(x, y int) { frame[x+y*vm.ScreenWidth] = true }
	set(0, 0)
	set(1, 1)
	set(2, 0)
	set(2, 1)
	set(63, 31)

	require.NoError(t, h.Draw(frame))

	cells, width, _ := screen.GetContents()
	runeAt := func(x, y int) rune {
		return cells[x+y*width].Runes[0]
	}

	assert.Equal(t, '▀', runeAt(0, 0))
	assert.Equal(t, '▄', runeAt(1, 0))
	assert.Equal(t, '█', runeAt(2, 0))
	assert.Equal(t, ' ', runeAt(3, 0))
	assert.Equal(t, '▄', runeAt(63, 15))
}

func TestHAL_ReadInput(t *testing.T) {
	t.Run("press and timed release", func(t *testing.T) {
		h, screen := newTestHAL(t)
		now := time.Unix(1000, 0)
		h.now = func() time.Time { return now }

		var rec recorder
		screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
		require.NoError(t, h.ReadInput(rec.keyDown, rec.keyUp))
		assert.Equal(t, []vm.Key{vm.Key5}, rec.down)
		assert.Empty(t, rec.up)

		// A repeat keeps the key held without a second press.
		now = now.Add(100 * time.Millisecond)
		screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
		require.NoError(t, h.ReadInput(rec.keyDown, rec.keyUp))
		assert.Len(t, rec.down, 1)
		assert.Empty(t, rec.up)

		now = now.Add(keyTimeout)
		require.NoError(t, h.ReadInput(rec.keyDown, rec.keyUp))
		assert.Equal(t, []vm.Key{vm.Key5}, rec.up)
	})

	t.Run("unmapped keys are ignored", func(t *testing.T) {
		h, screen := newTestHAL(t)

		var rec recorder
		screen.InjectKey(tcell.KeyRune, 'p', tcell.ModNone)
		screen.InjectKey(tcell.KeyF1, 0, tcell.ModNone)
		require.NoError(t, h.ReadInput(rec.keyDown, rec.keyUp))
		assert.Empty(t, rec.down)
	})

	t.Run("escape quits", func(t *testing.T) {
		h, screen := newTestHAL(t)

		var rec recorder
		screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
		assert.ErrorIs(t, h.ReadInput(rec.keyDown, rec.keyUp), hal.ErrQuit)
	})

	t.Run("backspace reboots", func(t *testing.T) {
		h, screen := newTestHAL(t)

		var rec recorder
		screen.InjectKey(tcell.KeyBackspace2, 0, tcell.ModNone)
		assert.ErrorIs(t, h.ReadInput(rec.keyDown, rec.keyUp), hal.ErrReboot)
	})
}

func TestHalfBlock(t *testing.T) {
	assert.Equal(t, ' ', halfBlock(false, false))
	assert.Equal(t, '▀', halfBlock(true, false))
	assert.Equal(t, '▄', halfBlock(false, true))
	assert.Equal(t, '█', halfBlock(true, true))
}
