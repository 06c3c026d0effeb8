package tui

// brailleBuf is a canvas of 2x4 micro-pixels per terminal cell, rendered with the
// Unicode braille block.
type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell dot mask
}

// dotBits maps a micro-pixel's position inside its cell to the braille dot bit.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

func (b *brailleBuf) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBits[mx%2][my%4]
}

// drawLineMicro draws a Bresenham line. With dash > 0 only the first half of every
// dash-long run of pixels is set.
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1, dash int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for step := 0; ; step++ {
		if dash <= 0 || step%dash < (dash+1)/2 {
			b.setPixel(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// has reports whether any dot is set in cell (cx, cy).
func (b *brailleBuf) has(cx, cy int) bool {
	return cy >= 0 && cy < b.h && cx >= 0 && cx < b.w && b.m[cy][cx] != 0
}

func (b *brailleBuf) glyph(cx, cy int) string {
	return string(rune(0x2800 + int(b.m[cy][cx])))
}
