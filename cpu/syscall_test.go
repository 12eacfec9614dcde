package cpu

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Host fakes shared by the dispatcher tests.

type fakeConsole struct {
	out   bytes.Buffer
	chars []byte
	lines []string
}

func (f *fakeConsole) WriteString(s string) error { f.out.WriteString(s); return nil }
func (f *fakeConsole) WriteRune(r rune) error     { f.out.WriteRune(r); return nil }

func (f *fakeConsole) ReadChar() (byte, error) {
	if len(f.chars) == 0 {
		return 0, errors.New("no input")
	}
	ch := f.chars[0]
	f.chars = f.chars[1:]
	return ch, nil
}

func (f *fakeConsole) ReadLine() (string, error) {
	if len(f.lines) == 0 {
		return "", errors.New("no input")
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

type fakeCanvas struct {
	calls []string
}

func (f *fakeCanvas) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeCanvas) Resize(w, h int)        { f.record("resize %d %d", w, h) }
func (f *fakeCanvas) Clear()                 { f.record("clear") }
func (f *fakeCanvas) SetColors(fg, bg int)   { f.record("setc %d %d", fg, bg) }
func (f *fakeCanvas) Plot(x, y int, ch byte) { f.record("plot %d %d %c", x, y, ch) }
func (f *fakeCanvas) Line(x0, y0, x1, y1 int, ch byte) {
	f.record("line %d %d %d %d %c", x0, y0, x1, y1, ch)
}
func (f *fakeCanvas) Box(x, y, w, h int) { f.record("box %d %d %d %d", x, y, w, h) }
func (f *fakeCanvas) ResetColors()       { f.record("reset") }

type fakeStore struct {
	files map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{files: map[string][]byte{}} }

func (f *fakeStore) Create(name string) error {
	if _, ok := f.files[name]; ok {
		return errors.New("exists")
	}
	f.files[name] = nil
	return nil
}

func (f *fakeStore) Write(name string, data []byte) error {
	f.files[name] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) Read(name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, errors.New("missing")
	}
	return data, nil
}

func (f *fakeStore) Delete(name string) error {
	if _, ok := f.files[name]; !ok {
		return errors.New("missing")
	}
	delete(f.files, name)
	return nil
}

func (f *fakeStore) Copy(src, dst string) error {
	data, ok := f.files[src]
	if !ok {
		return errors.New("missing")
	}
	f.files[dst] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) Move(src, dst string) error {
	if err := f.Copy(src, dst); err != nil {
		return err
	}
	delete(f.files, src)
	return nil
}

func (f *fakeStore) Exists(name string) bool {
	_, ok := f.files[name]
	return ok
}

type fakeClock struct {
	slept uint64
	ticks uint64
}

func (f *fakeClock) Sleep(ms uint64) { f.slept += ms }
func (f *fakeClock) Ticks() uint64   { return f.ticks }

type fakeRand struct{ next uint64 }

func (f *fakeRand) Next(max uint64) uint64 {
	if max == 0 {
		return 0
	}
	return f.next % max
}

type fakeHost struct {
	console fakeConsole
	canvas  fakeCanvas
	store   *fakeStore
	clock   fakeClock
	rand    fakeRand
}

func newFakeHost() *fakeHost { return &fakeHost{store: newFakeStore()} }

func (f *fakeHost) Console() Console { return &f.console }
func (f *fakeHost) Canvas() Canvas   { return &f.canvas }
func (f *fakeHost) Store() Store     { return f.store }
func (f *fakeHost) Clock() Clock     { return &f.clock }
func (f *fakeHost) Rand() Rand       { return &f.rand }

// hostCPU builds an engine with room for string data.
func hostCPU(host Host) *CPU {
	return New(make([]byte, 256), host)
}

func TestServicePrintChar(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	c.X[0] = 'H'
	c.service(SysPrintChar)
	c.X[0] = '\n'
	c.service(SysPrintChar)
	assert.Equal(t, "H\n", host.console.out.String())
	assert.Equal(t, Running, c.State)
}

func TestServicePrintNum(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	c.X[0] = 35
	c.service(SysPrintNum)
	c.X[0] = ^uint64(6) // -7 as two's complement
	c.service(SysPrintNum)
	assert.Equal(t, "35-7", host.console.out.String())
}

func TestServicePrintHex(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	c.X[0] = 0xBEEF
	c.service(SysPrintHex)
	// Lowercase, 0x-prefixed, low 32 bits only.
	c.X[0] = 0xAAAAAAAA_0000000F
	c.service(SysPrintHex)
	assert.Equal(t, "0xbeef0xf", host.console.out.String())
}

func TestServicePrintString(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	copy(c.Mem[64:], "hello\x00ignored")
	c.X[0] = 64
	c.service(SysPrint)
	assert.Equal(t, "hello", host.console.out.String())
}

func TestServiceInput(t *testing.T) {
	host := newFakeHost()
	host.console.chars = []byte{'A'}
	c := hostCPU(host)
	c.service(SysInput)
	assert.Equal(t, uint64('A'), c.X[0])
}

func TestServiceInputString(t *testing.T) {
	host := newFakeHost()
	host.console.lines = []string{"hello"}
	c := hostCPU(host)
	c.X[0] = 64
	c.X[1] = 16
	c.service(SysInputStr)
	assert.Equal(t, uint64(5), c.X[0])
	assert.Equal(t, []byte("hello\x00"), c.Mem[64:70])
}

func TestServiceInputStringTruncates(t *testing.T) {
	host := newFakeHost()
	host.console.lines = []string{"abcdefgh"}
	c := hostCPU(host)
	c.X[0] = 64
	c.X[1] = 4
	c.service(SysInputStr)
	assert.Equal(t, uint64(3), c.X[0])
	assert.Equal(t, []byte("abc\x00"), c.Mem[64:68])
}

// A zero capacity falls back to the 64-byte default rather than
// reading nothing.
func TestServiceInputStringZeroCapacity(t *testing.T) {
	host := newFakeHost()
	host.console.lines = []string{"hello"}
	c := hostCPU(host)
	c.X[0] = 64
	c.X[1] = 0
	c.service(SysInputStr)
	assert.Equal(t, uint64(5), c.X[0])
	assert.Equal(t, []byte("hello\x00"), c.Mem[64:70])
}

func TestServiceCanvasOps(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)

	c.service(SysClear)
	c.X[0], c.X[1] = 2, 0
	c.service(SysSetCol)
	c.X[0], c.X[1], c.X[2] = 3, 4, '*'
	c.service(SysPlot)
	// The line character rides in register 4, after the endpoints.
	c.X[0], c.X[1], c.X[2], c.X[3], c.X[4] = 0, 0, 9, 0, '-'
	c.service(SysLine)
	c.X[0], c.X[1], c.X[2], c.X[3] = 1, 1, 5, 3
	c.service(SysBox)
	c.service(SysReset)
	c.X[0], c.X[1] = 60, 20
	c.service(SysCanvas)

	assert.Equal(t, []string{
		"clear",
		"setc 2 0",
		"plot 3 4 *",
		"line 0 0 9 0 -",
		"box 1 1 5 3",
		"reset",
		"resize 60 20",
	}, host.canvas.calls)
}

// putName writes a zero-terminated file name into engine memory.
func putName(c *CPU, addr uint64, name string) uint64 {
	copy(c.Mem[addr:], name+"\x00")
	return addr
}

func TestServiceFileLifecycle(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	name := putName(c, 64, "notes.txt")

	c.X[0] = name
	c.service(SysFileCreate)
	assert.Equal(t, uint64(1), c.X[0])

	// Creating again fails with a zero status.
	c.X[0] = name
	c.service(SysFileCreate)
	assert.Equal(t, uint64(0), c.X[0])

	copy(c.Mem[128:], "payload")
	c.X[0], c.X[1], c.X[2] = name, 128, 7
	c.service(SysFileWrite)
	assert.Equal(t, uint64(7), c.X[0])

	c.X[0], c.X[1], c.X[2] = name, 160, 32
	c.service(SysFileRead)
	assert.Equal(t, uint64(7), c.X[0])
	assert.Equal(t, []byte("payload"), c.Mem[160:167])

	c.X[0] = name
	c.service(SysFileExists)
	assert.Equal(t, uint64(1), c.X[0])

	other := putName(c, 96, "copy.txt")
	c.X[0], c.X[1] = name, other
	c.service(SysFileCopy)
	assert.Equal(t, uint64(1), c.X[0])
	assert.True(t, host.store.Exists("copy.txt"))
	assert.True(t, host.store.Exists("notes.txt"))

	c.X[0], c.X[1] = other, putName(c, 112, "moved.txt")
	c.service(SysFileMove)
	assert.Equal(t, uint64(1), c.X[0])
	assert.False(t, host.store.Exists("copy.txt"))
	assert.True(t, host.store.Exists("moved.txt"))

	c.X[0] = name
	c.service(SysFileDelete)
	assert.Equal(t, uint64(1), c.X[0])
	c.X[0] = name
	c.service(SysFileExists)
	assert.Equal(t, uint64(0), c.X[0])
}

func TestServiceFileReadMissing(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	c.X[0] = putName(c, 64, "ghost")
	c.X[1], c.X[2] = 128, 16
	c.service(SysFileRead)
	assert.Equal(t, uint64(0), c.X[0])
}

func TestServiceFileWriteHugeLength(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)
	c.X[0] = putName(c, 64, "big")
	c.X[1], c.X[2] = 0, 1<<62

	c.service(SysFileWrite)

	assert.Equal(t, uint64(0), c.X[0])
	assert.False(t, host.store.Exists("big"))
	assert.Equal(t, Running, c.State)
}

func TestServiceFileReadHugeLength(t *testing.T) {
	host := newFakeHost()
	require.NoError(t, host.store.Write("f", []byte("abc")))
	c := hostCPU(host)
	c.X[0] = putName(c, 64, "f")
	c.X[1], c.X[2] = 128, ^uint64(0)

	c.service(SysFileRead)

	assert.Equal(t, uint64(0), c.X[0])
}

func TestServiceStringHelpers(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)

	copy(c.Mem[64:], "four\x00")
	c.X[0] = 64
	c.service(SysStrlen)
	assert.Equal(t, uint64(4), c.X[0])

	c.X[0], c.X[1], c.X[2] = 128, 64, 5
	c.service(SysMemcpy)
	assert.Equal(t, []byte("four\x00"), c.Mem[128:133])

	c.X[0], c.X[1], c.X[2] = 192, '!', 4
	c.service(SysMemset)
	assert.Equal(t, []byte("!!!!"), c.Mem[192:196])
}

// Counts past the edge of memory stop at the edge instead of spinning
// through the whole 64-bit range.
func TestServiceMemOpsBounded(t *testing.T) {
	host := newFakeHost()
	c := hostCPU(host)

	c.X[0], c.X[1], c.X[2] = 250, 'x', 1<<62
	c.service(SysMemset)
	assert.Equal(t, []byte("xxxxxx"), c.Mem[250:256])

	copy(c.Mem[0:], "ab")
	c.X[0], c.X[1], c.X[2] = 254, 0, 1<<62
	c.service(SysMemcpy)
	assert.Equal(t, []byte("ab"), c.Mem[254:256])
	assert.Equal(t, Running, c.State)
}

func TestServiceClockAndRand(t *testing.T) {
	host := newFakeHost()
	host.clock.ticks = 777
	host.rand.next = 12
	c := hostCPU(host)

	c.X[0] = 50
	c.service(SysSleep)
	assert.Equal(t, uint64(50), host.clock.slept)

	// Durations wider than 16 bits lose their high bits.
	c.X[0] = 0x30005
	c.service(SysSleep)
	assert.Equal(t, uint64(55), host.clock.slept)

	c.service(SysTick)
	assert.Equal(t, uint64(777), c.X[0])

	c.X[0] = 10
	c.service(SysRand)
	assert.Equal(t, uint64(2), c.X[0])
}

func TestServiceHalt(t *testing.T) {
	c := hostCPU(nil)
	c.service(SysHalt)
	assert.Equal(t, Halted, c.State)
}

func TestServiceUnknownFaults(t *testing.T) {
	c := hostCPU(nil)
	c.service(0x042)
	require.Equal(t, Faulted, c.State)
	assert.ErrorIs(t, c.Fault, ErrUnknownService)
}
