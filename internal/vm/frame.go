package vm

import "strings"

// Frame is the monochrome screen, row-major: pixel (x, y) is at x + y*ScreenWidth.
type Frame [ScreenWidth * ScreenHeight]bool

// At reports whether pixel (x, y) is on. Coordinates wrap.
func (f Frame) At(x, y int) bool {
	return f[screenAddr(x, y)]
}

// Lit returns the number of pixels that are on.
func (f Frame) Lit() int {
	n := 0
	for _, p := range f {
		if p {
			n++
		}
	}
	return n
}

// String renders the frame as ScreenHeight lines of '#' and '.'.
func (f Frame) String() string {
	var sb strings.Builder
	sb.Grow((ScreenWidth + 1) * ScreenHeight)

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if f[x+y*ScreenWidth] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func screenAddr(x, y int) int {
	x %= ScreenWidth
	if x < 0 {
		x += ScreenWidth
	}

	y %= ScreenHeight
	if y < 0 {
		y += ScreenHeight
	}

	return ScreenWidth*y + x
}
