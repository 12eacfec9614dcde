package cpu

// Console is line and character I/O for the print and input opcodes.
type Console interface {
	// WriteString prints text without a trailing newline.
	WriteString(s string) error
	// WriteRune prints a single character.
	WriteRune(r rune) error
	// ReadChar blocks for one character and returns it.
	ReadChar() (byte, error)
	// ReadLine blocks for an edited line and returns it without the
	// terminating newline.
	ReadLine() (string, error)
}

// Canvas is the character-cell framebuffer. Implementations activate
// lazily on the first drawing call.
type Canvas interface {
	// Resize reconfigures the grid. Implementations clamp rather
	// than reject out-of-range dimensions.
	Resize(w, h int)
	// Clear erases every cell to the background color.
	Clear()
	// SetColors selects the foreground and background for
	// subsequent drawing.
	SetColors(fg, bg int)
	// Plot places one character at a cell.
	Plot(x, y int, ch byte)
	// Line draws a straight run of one character between two cells.
	Line(x0, y0, x1, y1 int, ch byte)
	// Box draws an outlined rectangle.
	Box(x, y, w, h int)
	// ResetColors restores the default foreground and background.
	ResetColors()
}

// Store is the persistent file service behind the storage opcodes.
type Store interface {
	Create(name string) error
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Delete(name string) error
	Copy(src, dst string) error
	Move(src, dst string) error
	Exists(name string) bool
}

// Clock provides wall-clock services for the timing opcodes.
type Clock interface {
	// Sleep pauses for the given number of milliseconds.
	Sleep(ms uint64)
	// Ticks reports a monotonic millisecond counter.
	Ticks() uint64
}

// Rand yields pseudo-random numbers for the rnd opcode.
type Rand interface {
	// Next returns a value in [0, max). A max of zero yields zero.
	Next(max uint64) uint64
}

// Host bundles every privileged service the extended opcodes reach.
type Host interface {
	Console() Console
	Canvas() Canvas
	Store() Store
	Clock() Clock
	Rand() Rand
}
