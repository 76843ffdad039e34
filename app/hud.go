package app

import (
	"image/color"
	"unicode/utf8"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"tempo/hal"
)

const (
	hudLineHeight = 10
	hudMargin     = 4
	hudCharWidth  = 6
)

var hudFG = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}

// hud renders text lines into an RGB565 framebuffer.
type hud struct {
	fb   hal.Framebuffer
	font tinyfont.Fonter
}

func newHUD(d hal.Display) *hud {
	if d == nil {
		return nil
	}
	fb := d.Framebuffer()
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	return &hud{fb: fb, font: &proggy.TinySZ8pt7b}
}

func (h *hud) draw(lines []string) error {
	h.fb.ClearRGB(0x10, 0x10, 0x18)
	d := fbDisplay{fb: h.fb}
	cols := int16((h.fb.Width() - 2*hudMargin) / hudCharWidth)
	y := int16(hudMargin + hudLineHeight)
	for _, line := range lines {
		if int(y) > h.fb.Height() {
			break
		}
		tinyfont.WriteLine(d, h.font, hudMargin, y, takeRunes(line, cols), hudFG)
		y += hudLineHeight
	}
	return h.fb.Present()
}

// fbDisplay adapts a Framebuffer to tinyfont.Displayer.
type fbDisplay struct {
	fb hal.Framebuffer
}

func (d fbDisplay) Size() (x, y int16) {
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	buf := d.fb.Buffer()
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	pixel := hal.RGB565(c.R, c.G, c.B)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d fbDisplay) Display() error { return nil }

// takeRunes returns at most n runes of s.
func takeRunes(s string, n int16) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= int(n) {
		return s
	}
	var count int16
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
