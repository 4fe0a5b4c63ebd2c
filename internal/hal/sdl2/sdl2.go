// Package sdl2 is a window, keyboard and speaker HAL built on SDL2.
package sdl2

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/tone"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	bgColor = uint32(0x000000)
	fgColor = uint32(0xbea700)

	beepDuration = 100 * time.Millisecond
)

type Config struct {
	Title string
	Scale int
	FPS   int
}

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int

	audio   sdl.AudioDeviceID
	beepPCM []byte

	limiter *hal.FrameLimiter
}

var _ hal.HAL = (*HAL)(nil)

func New(cfg Config) (*HAL, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = 16
	}
	if cfg.Title == "" {
		cfg.Title = "CHIP-8"
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	width := int32(vm.ScreenWidth * cfg.Scale)
	height := int32(vm.ScreenHeight * cfg.Scale)

	window, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, width, height, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "width", width, "height", height)

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	if err := renderer.SetLogicalSize(width, height); err != nil {
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	h := &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: int(vm.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		limiter:         hal.NewFrameLimiter(cfg.FPS),
	}

	h.openAudio()

	return h, nil
}

// openAudio leaves the HAL silent if no audio device is available.
func (h *HAL) openAudio() {
	spec := &sdl.AudioSpec{
		Freq:     tone.SampleRate,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  1024,
	}

	var actual sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		slog.Warn("hal: audio disabled", "err", err)
		return
	}

	h.audio = id
	h.beepPCM = tone.PCM16(tone.Beep(beepDuration))
	sdl.PauseAudioDevice(id, false)
	slog.Debug("hal: open audio", "freq", actual.Freq)
}

func (h *HAL) Shutdown() {
	if h.audio != 0 {
		sdl.CloseAudioDevice(h.audio)
	}

	if err := h.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := h.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := h.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (h *HAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return hal.ErrQuit

		case sdl.KEYDOWN:
			if err := h.processKeyDown(e.(*sdl.KeyboardEvent), keyDown); err != nil {
				return err
			}

		case sdl.KEYUP:
			h.processKeyUp(e.(*sdl.KeyboardEvent), keyUp)
		}
	}

	return nil
}

func (h *HAL) processKeyDown(e *sdl.KeyboardEvent, callback func(vm.Key)) error {
	switch e.Keysym.Scancode {
	case sdl.SCANCODE_BACKSPACE:
		return hal.ErrReboot
	case sdl.SCANCODE_ESCAPE:
		return hal.ErrQuit
	}

	if e.Repeat != 0 {
		return nil
	}

	if key, ok := scancodeKeys[e.Keysym.Scancode]; ok {
		callback(key)
	}

	return nil
}

func (h *HAL) processKeyUp(e *sdl.KeyboardEvent, callback func(vm.Key)) {
	if key, ok := scancodeKeys[e.Keysym.Scancode]; ok {
		callback(key)
	}
}

// Same layout as hal.KeyForRune, by physical key position.
var scancodeKeys = map[sdl.Scancode]vm.Key{
	sdl.SCANCODE_X: vm.Key0,
	sdl.SCANCODE_1: vm.Key1,
	sdl.SCANCODE_2: vm.Key2,
	sdl.SCANCODE_3: vm.Key3,
	sdl.SCANCODE_Q: vm.Key4,
	sdl.SCANCODE_W: vm.Key5,
	sdl.SCANCODE_E: vm.Key6,
	sdl.SCANCODE_A: vm.Key7,
	sdl.SCANCODE_S: vm.Key8,
	sdl.SCANCODE_D: vm.Key9,
	sdl.SCANCODE_Z: vm.KeyA,
	sdl.SCANCODE_C: vm.KeyB,
	sdl.SCANCODE_4: vm.KeyC,
	sdl.SCANCODE_R: vm.KeyD,
	sdl.SCANCODE_F: vm.KeyE,
	sdl.SCANCODE_V: vm.KeyF,
}

func (h *HAL) Draw(frame vm.Frame) error {
	for i, on := range frame {
		color := bgColor
		if on {
			color = fgColor
		}

		h.backBuffer[i] = color
	}

	backBufferPtr := unsafe.Pointer(&h.backBuffer[0])
	if err := h.texture.Update(nil, backBufferPtr, h.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := h.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := h.renderer.Copy(h.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	h.renderer.Present()
	return nil
}

func (h *HAL) Beep() error {
	if h.audio == 0 {
		return nil
	}

	sdl.ClearQueuedAudio(h.audio)
	if err := sdl.QueueAudio(h.audio, h.beepPCM); err != nil {
		slog.Warn("hal: beep failed", "err", err)
	}

	return nil
}

func (h *HAL) WaitForNextFrame() error {
	h.limiter.Wait()
	return nil
}
