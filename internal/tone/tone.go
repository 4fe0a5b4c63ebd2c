// Package tone synthesizes the interpreter's beep as PCM audio.
package tone

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	SampleRate = 44100
	BitDepth   = 16
	Frequency  = 440

	// Amplitude keeps the square wave well below full scale.
	Amplitude = 8000

	// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
	wavFormatPCM = 1
)

func samples(sampleRate int, d time.Duration) int {
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

func newBuffer(sampleRate, n int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, n),
		SourceBitDepth: BitDepth,
	}
}

// Square returns a mono square wave of the given frequency and duration.
func Square(freq, sampleRate int, d time.Duration, amplitude int) *audio.IntBuffer {
	buf := newBuffer(sampleRate, samples(sampleRate, d))
	if freq <= 0 {
		return buf
	}

	half := sampleRate / (2 * freq)
	if half == 0 {
		half = 1
	}

	for i := range buf.Data {
		if (i/half)%2 == 0 {
			buf.Data[i] = amplitude
		} else {
			buf.Data[i] = -amplitude
		}
	}

	return buf
}

// Silence returns d worth of zero samples.
func Silence(sampleRate int, d time.Duration) *audio.IntBuffer {
	return newBuffer(sampleRate, samples(sampleRate, d))
}

// Beep is the default tone played when the sound timer runs out.
func Beep(d time.Duration) *audio.IntBuffer {
	return Square(Frequency, SampleRate, d, Amplitude)
}

// PCM16 encodes buf as signed 16-bit little-endian samples.
func PCM16(buf *audio.IntBuffer) []byte {
	out := make([]byte, 2*len(buf.Data))
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s)))
	}
	return out
}

// WriteWAV writes buf as a 16-bit PCM WAV file.
func WriteWAV(w io.WriteSeeker, buf *audio.IntBuffer) error {
	enc := wav.NewEncoder(w, buf.Format.SampleRate, BitDepth, buf.Format.NumChannels, wavFormatPCM)

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}
