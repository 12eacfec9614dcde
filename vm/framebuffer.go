package vm

import (
	"io"

	tm "github.com/buger/goterm"
)

// Framebuffer geometry limits. The grid starts small and can grow up
// to a standard terminal.
const (
	DefaultCanvasWidth  = 40
	DefaultCanvasHeight = 12
	// ResizeCanvasHeight replaces a zero or negative height given to
	// an explicit resize.
	ResizeCanvasHeight = 10
	MaxCanvasWidth     = 80
	MaxCanvasHeight    = 24
)

type cell struct {
	ch     byte
	fg, bg int
}

// Framebuffer is a character-cell grid rendered with terminal escape
// sequences. It stays inactive until the first drawing call, so
// programs that never draw keep a plain console.
type Framebuffer struct {
	w, h   int
	fg, bg int
	cells  []cell
	active bool
	out    io.Writer
}

// NewFramebuffer creates an inactive framebuffer that renders to out.
func NewFramebuffer(out io.Writer) *Framebuffer {
	return &Framebuffer{
		w:   DefaultCanvasWidth,
		h:   DefaultCanvasHeight,
		fg:  tm.WHITE,
		bg:  tm.BLACK,
		out: out,
	}
}

// Active reports whether the grid has been brought up.
func (f *Framebuffer) Active() bool { return f.active }

// Size reports the current grid dimensions.
func (f *Framebuffer) Size() (int, int) { return f.w, f.h }

// Cell returns the character at a grid position, or zero outside it.
func (f *Framebuffer) Cell(x, y int) byte {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return 0
	}
	return f.cells[y*f.w+x].ch
}

func (f *Framebuffer) activate() {
	if f.active {
		return
	}
	f.active = true
	f.alloc()
}

func (f *Framebuffer) alloc() {
	f.cells = make([]cell, f.w*f.h)
	for i := range f.cells {
		f.cells[i] = cell{ch: ' ', fg: f.fg, bg: f.bg}
	}
}

func clampDim(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// Resize reconfigures and clears the grid, clamping out-of-range
// dimensions instead of rejecting them.
func (f *Framebuffer) Resize(w, h int) {
	f.w = clampDim(w, DefaultCanvasWidth, MaxCanvasWidth)
	f.h = clampDim(h, ResizeCanvasHeight, MaxCanvasHeight)
	f.activate()
	f.alloc()
	f.render()
}

// Clear erases every cell to the background color.
func (f *Framebuffer) Clear() {
	f.activate()
	f.alloc()
	f.render()
}

// SetColors selects the colors for subsequent drawing. Values outside
// the eight-color range are reduced into it. Like the drawing calls,
// setting colors brings the grid up.
func (f *Framebuffer) SetColors(fg, bg int) {
	f.activate()
	f.fg = fg & 7
	f.bg = bg & 7
}

// ResetColors restores the white-on-black default.
func (f *Framebuffer) ResetColors() {
	f.fg = tm.WHITE
	f.bg = tm.BLACK
}

func (f *Framebuffer) set(x, y int, ch byte) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.cells[y*f.w+x] = cell{ch: ch, fg: f.fg, bg: f.bg}
}

// Plot places one character, dropping out-of-grid coordinates.
func (f *Framebuffer) Plot(x, y int, ch byte) {
	f.activate()
	f.set(x, y, ch)
	f.render()
}

// Line draws a straight run of ch between two cells using integer
// error stepping. A zero character draws as '*'.
func (f *Framebuffer) Line(x0, y0, x1, y1 int, ch byte) {
	f.activate()
	if ch == 0 {
		ch = '*'
	}
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		f.set(x0, y0, ch)
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
	f.render()
}

// Box draws an outlined rectangle with line-drawing characters and
// blanks its interior.
func (f *Framebuffer) Box(x, y, w, h int) {
	f.activate()
	if w < 2 || h < 2 {
		f.set(x, y, '+')
		f.render()
		return
	}
	for i := 1; i < w-1; i++ {
		f.set(x+i, y, '-')
		f.set(x+i, y+h-1, '-')
	}
	for i := 1; i < h-1; i++ {
		f.set(x, y+i, '|')
		for j := 1; j < w-1; j++ {
			f.set(x+j, y+i, ' ')
		}
		f.set(x+w-1, y+i, '|')
	}
	f.set(x, y, '+')
	f.set(x+w-1, y, '+')
	f.set(x, y+h-1, '+')
	f.set(x+w-1, y+h-1, '+')
	f.render()
}

// Reset deactivates the grid and restores the normal console.
func (f *Framebuffer) Reset() {
	if !f.active {
		return
	}
	f.active = false
	f.cells = nil
	if f.out != nil {
		io.WriteString(f.out, "\033[0m\033[2J\033[H")
	}
}

// render repaints the whole grid. Each row is emitted as one colored
// string so the terminal sees a bounded number of writes.
func (f *Framebuffer) render() {
	if f.out == nil {
		return
	}
	io.WriteString(f.out, "\033[H")
	for y := 0; y < f.h; y++ {
		var row []byte
		for x := 0; x < f.w; x++ {
			c := f.cells[y*f.w+x]
			s := tm.Background(tm.Color(string(c.ch), c.fg), c.bg)
			row = append(row, s...)
		}
		row = append(row, '\n')
		f.out.Write(row)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
