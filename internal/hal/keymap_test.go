package hal

import (
	"testing"

	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/stretchr/testify/assert"
)

func TestKeyForRune(t *testing.T) {
	testCases := []struct {
		r    rune
		want vm.Key
		ok   bool
	}{
		{r: '1', want: vm.Key1, ok: true},
		{r: '4', want: vm.KeyC, ok: true},
		{r: 'x', want: vm.Key0, ok: true},
		{r: 'X', want: vm.Key0, ok: true},
		{r: 'v', want: vm.KeyF, ok: true},
		{r: 'f', want: vm.KeyE, ok: true},
		{r: 'p'},
		{r: '5'},
	}
	for _, tC := range testCases {
		t.Run(string(tC.r), func(t *testing.T) {
			key, ok := KeyForRune(tC.r)
			assert.Equal(t, tC.ok, ok)
			if tC.ok {
				assert.Equal(t, tC.want, key)
			}
		})
	}
}

func TestKeyForRune_coversKeypad(t *testing.T) {
	seen := map[vm.Key]bool{}
	for r := range runeKeys {
		key, ok := KeyForRune(r)
		assert.True(t, ok)
		seen[key] = true
	}
	assert.Len(t, seen, vm.KeyCount)
}
