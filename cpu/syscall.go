package cpu

import "fmt"

// Extended opcode numbers carried in the supervisor-call immediate.
const (
	SysPrint     = 0x100
	SysPrintChar = 0x101
	SysPrintNum  = 0x102
	SysInput     = 0x103
	SysInputStr  = 0x104
	SysPrintHex  = 0x105

	SysClear  = 0x110
	SysSetCol = 0x111
	SysPlot   = 0x112
	SysLine   = 0x113
	SysBox    = 0x114
	SysReset  = 0x115
	SysCanvas = 0x116

	SysFileCreate = 0x120
	SysFileWrite  = 0x121
	SysFileRead   = 0x122
	SysFileDelete = 0x123
	SysFileCopy   = 0x124
	SysFileMove   = 0x125
	SysFileExists = 0x126

	SysStrlen = 0x130
	SysMemcpy = 0x131
	SysMemset = 0x132
	SysAbs    = 0x133

	SysSleep = 0x1F0
	SysRand  = 0x1F1
	SysTick  = 0x1F2
	SysHalt  = 0x1FF
)

// service dispatches one extended opcode. Unknown codes fault; host
// I/O failures fault; storage failures report through register 0.
func (c *CPU) service(code uint16) {
	switch code {
	case SysPrint:
		c.hostErr(c.Host.Console().WriteString(string(c.cstring(c.X[0]))))
	case SysPrintChar:
		c.hostErr(c.Host.Console().WriteRune(rune(c.X[0])))
	case SysPrintNum:
		c.hostErr(c.Host.Console().WriteString(fmt.Sprintf("%d", int64(c.X[0]))))
	case SysPrintHex:
		c.hostErr(c.Host.Console().WriteString(fmt.Sprintf("0x%x", uint32(c.X[0]))))
	case SysInput:
		ch, err := c.Host.Console().ReadChar()
		if err != nil {
			c.hostErr(err)
			return
		}
		c.X[0] = uint64(ch)
	case SysInputStr:
		c.inputString()

	case SysClear:
		c.Host.Canvas().Clear()
	case SysSetCol:
		c.Host.Canvas().SetColors(int(c.X[0]), int(c.X[1]))
	case SysPlot:
		c.Host.Canvas().Plot(int(c.X[0]), int(c.X[1]), byte(c.X[2]))
	case SysLine:
		c.Host.Canvas().Line(int(c.X[0]), int(c.X[1]), int(c.X[2]), int(c.X[3]), byte(c.X[4]))
	case SysBox:
		c.Host.Canvas().Box(int(c.X[0]), int(c.X[1]), int(c.X[2]), int(c.X[3]))
	case SysReset:
		c.Host.Canvas().ResetColors()
	case SysCanvas:
		c.Host.Canvas().Resize(int(c.X[0]), int(c.X[1]))

	case SysFileCreate:
		c.X[0] = status(c.Host.Store().Create(string(c.cstring(c.X[0]))))
	case SysFileWrite:
		c.fileWrite()
	case SysFileRead:
		c.fileRead()
	case SysFileDelete:
		c.X[0] = status(c.Host.Store().Delete(string(c.cstring(c.X[0]))))
	case SysFileCopy:
		c.X[0] = status(c.Host.Store().Copy(
			string(c.cstring(c.X[0])), string(c.cstring(c.X[1]))))
	case SysFileMove:
		c.X[0] = status(c.Host.Store().Move(
			string(c.cstring(c.X[0])), string(c.cstring(c.X[1]))))
	case SysFileExists:
		if c.Host.Store().Exists(string(c.cstring(c.X[0]))) {
			c.X[0] = 1
		} else {
			c.X[0] = 0
		}

	case SysStrlen:
		c.X[0] = uint64(len(c.cstring(c.X[0])))
	case SysMemcpy:
		c.memcpy()
	case SysMemset:
		c.memset()
	case SysAbs:
		if int64(c.X[0]) < 0 {
			c.X[0] = uint64(-int64(c.X[0]))
		}

	case SysSleep:
		// Capped at 16 bits so a program cannot suspend the host
		// indefinitely.
		c.Host.Clock().Sleep(c.X[0] & 0xFFFF)
	case SysRand:
		c.X[0] = c.Host.Rand().Next(c.X[0])
	case SysTick:
		c.X[0] = c.Host.Clock().Ticks()
	case SysHalt:
		c.State = Halted

	default:
		c.fault(0xD4000001|uint32(code)<<5, ErrUnknownService)
	}
}

// hostErr faults the engine when a console operation fails.
func (c *CPU) hostErr(err error) {
	if err != nil {
		c.fault(0, err)
	}
}

// status folds a storage error into the 1-success, 0-failure register
// convention.
func status(err error) uint64 {
	if err != nil {
		return 0
	}
	return 1
}

// Line-input buffer limits: a zero capacity reads as the default and
// anything larger than the maximum is reduced to it.
const (
	defaultInputMax = 64
	maxInputMax     = 256
)

// inputString reads an edited line into the buffer at register 0,
// truncated to the capacity in register 1, and reports the stored
// length back in register 0.
func (c *CPU) inputString() {
	line, err := c.Host.Console().ReadLine()
	if err != nil {
		c.hostErr(err)
		return
	}
	buf := c.X[0]
	max := c.X[1]
	if max == 0 {
		max = defaultInputMax
	}
	if max > maxInputMax {
		max = maxInputMax
	}
	if uint64(len(line)) > max-1 {
		line = line[:max-1]
	}
	for i := 0; i < len(line); i++ {
		c.storeN(buf+uint64(i), 1, uint64(line[i]))
	}
	c.storeN(buf+uint64(len(line)), 1, 0)
	c.X[0] = uint64(len(line))
}

// inWindow reports whether n bytes at addr fit inside memory, without
// wrapping.
func (c *CPU) inWindow(addr, n uint64) bool {
	return addr+n >= addr && addr+n <= uint64(len(c.Mem))
}

func (c *CPU) fileWrite() {
	name := string(c.cstring(c.X[0]))
	addr, n := c.X[1], c.X[2]
	if !c.inWindow(addr, n) {
		c.X[0] = 0
		return
	}
	data := append([]byte(nil), c.Mem[addr:addr+n]...)
	if c.Host.Store().Write(name, data) != nil {
		c.X[0] = 0
		return
	}
	c.X[0] = n
}

func (c *CPU) fileRead() {
	name := string(c.cstring(c.X[0]))
	addr, max := c.X[1], c.X[2]
	if !c.inWindow(addr, max) {
		c.X[0] = 0
		return
	}
	data, err := c.Host.Store().Read(name)
	if err != nil {
		c.X[0] = 0
		return
	}
	if uint64(len(data)) > max {
		data = data[:max]
	}
	copy(c.Mem[addr:], data)
	c.X[0] = uint64(len(data))
}

// memcpy copies byte by byte, stopping at the edge of memory so a
// huge count cannot spin the engine.
func (c *CPU) memcpy() {
	dst, src, n := c.X[0], c.X[1], c.X[2]
	for i := uint64(0); i < n; i++ {
		v, ok := c.loadN(src+i, 1)
		if !ok || !c.storeN(dst+i, 1, v) {
			break
		}
	}
}

func (c *CPU) memset() {
	dst, val, n := c.X[0], c.X[1], c.X[2]
	for i := uint64(0); i < n; i++ {
		if !c.storeN(dst+i, 1, val) {
			break
		}
	}
}
