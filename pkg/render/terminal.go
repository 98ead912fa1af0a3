package render

import (
	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. Each cell shows two vertically stacked pixels, so the framebuffer
// height should be twice the number of rows in area.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	// ▀ (upper half block) with fg=top pixel and bg=bottom pixel
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1
		if topY >= fb.Height {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: UnpackARGB(fb.GetPixel(x, topY) | 0xFF000000),
					Bg: UnpackARGB(fb.GetPixel(x, botY) | 0xFF000000),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// TerminalFramebufferSize returns the framebuffer dimensions that fill a
// terminal of cols×rows cells with half-block pixels.
func TerminalFramebufferSize(cols, rows int) (width, height int) {
	return max(1, cols), max(2, rows*2)
}
