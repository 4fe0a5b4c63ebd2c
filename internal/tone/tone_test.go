package tone

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquare(t *testing.T) {
	buf := Square(1000, 8000, 10*time.Millisecond, 100)

	require.Len(t, buf.Data, 80)
	assert.Equal(t, 8000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)

	// 4 samples high, 4 samples low
	assert.Equal(t, []int{100, 100, 100, 100, -100, -100, -100, -100}, buf.Data[:8])
	assert.Equal(t, buf.Data[:8], buf.Data[8:16])
}

func TestSilence(t *testing.T) {
	buf := Silence(SampleRate, time.Second/60)

	assert.Len(t, buf.Data, 735)
	for _, s := range buf.Data {
		assert.Zero(t, s)
	}
}

func TestPCM16(t *testing.T) {
	buf := Silence(SampleRate, 0)
	buf.Data = []int{1, -1, 0x1234}

	assert.Equal(t, []byte{0x01, 0x00, 0xFF, 0xFF, 0x34, 0x12}, PCM16(buf))
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beep.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteWAV(f, Beep(100*time.Millisecond)))
	require.NoError(t, f.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	dec := wav.NewDecoder(r)
	require.True(t, dec.IsValidFile())

	pcm, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, SampleRate, pcm.Format.SampleRate)
	assert.Equal(t, 1, pcm.Format.NumChannels)
	assert.Len(t, pcm.Data, 4410)
	assert.Equal(t, Amplitude, pcm.Data[0])
}
