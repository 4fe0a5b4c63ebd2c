package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrame_At(t *testing.T) {
	var f Frame
	f[5+3*ScreenWidth] = true

	assert.True(t, f.At(5, 3))
	assert.True(t, f.At(5+ScreenWidth, 3+ScreenHeight))
	assert.True(t, f.At(5-ScreenWidth, 3-ScreenHeight))
	assert.False(t, f.At(3, 5))
	assert.Equal(t, 1, f.Lit())
}

func TestFrame_String(t *testing.T) {
	var f Frame
	f[0] = true
	f[ScreenWidth*ScreenHeight-1] = true

	lines := strings.Split(strings.TrimSuffix(f.String(), "\n"), "\n")
	assert.Len(t, lines, ScreenHeight)
	assert.Equal(t, "#"+strings.Repeat(".", ScreenWidth-1), lines[0])
	assert.Equal(t, strings.Repeat(".", ScreenWidth-1)+"#", lines[ScreenHeight-1])
}
