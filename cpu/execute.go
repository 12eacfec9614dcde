package cpu

import "encoding/binary"

// Step fetches, decodes and executes a single instruction. Stepping a
// terminal engine is a no-op; running off the end of the buffer moves
// the engine to Halted.
func (c *CPU) Step() error {
	if c.State != Running {
		return c.Fault
	}
	if c.PC+4 > uint64(len(c.Mem)) || c.PC%4 != 0 {
		c.State = Halted
		return nil
	}
	w := binary.LittleEndian.Uint32(c.Mem[c.PC:])
	for i := range patterns {
		p := &patterns[i]
		if w&p.mask != p.value {
			continue
		}
		jumped := p.exec(c, w)
		c.Executed++
		if !jumped && c.State == Running {
			c.PC += 4
		}
		return c.Fault
	}
	c.fault(w, ErrUnknownInstruction)
	return c.Fault
}

// Run steps until the engine leaves the Running state or hits the
// instruction ceiling.
func (c *CPU) Run() error {
	for c.State == Running {
		if c.MaxInstructions > 0 && c.Executed >= c.MaxInstructions {
			c.fault(0, ErrInstructionLimit)
			break
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return c.Fault
}

func execHint(c *CPU, w uint32) bool { return false }

// execRet follows the return address. A zero target means there was
// no prior call, which ends the program cleanly.
func execRet(c *CPU, w uint32) bool {
	target := c.X[rn(w)]
	if target == 0 {
		c.State = Halted
		return true
	}
	c.PC = target
	return true
}

func execBr(c *CPU, w uint32) bool {
	c.PC = c.X[rn(w)]
	return true
}

func execBlr(c *CPU, w uint32) bool {
	c.X[30] = c.PC + 4
	c.PC = c.X[rn(w)]
	return true
}

func execSvc(c *CPU, w uint32) bool {
	c.service(uint16(w >> 5))
	return false
}

func execBranch(c *CPU, w uint32) bool {
	off := sext(w&0x3FFFFFF, 26) << 2
	if w>>31 != 0 { // bl
		c.X[30] = c.PC + 4
	}
	c.PC = uint64(int64(c.PC) + off)
	return true
}

func execBCond(c *CPU, w uint32) bool {
	if !c.EvalCond(w & 0xF) {
		return false
	}
	off := sext((w>>5)&0x7FFFF, 19) << 2
	c.PC = uint64(int64(c.PC) + off)
	return true
}

func execCompareBranch(c *CPU, w uint32) bool {
	v := c.Reg(rd(w))
	if w>>31 == 0 {
		v &= 0xFFFFFFFF
	}
	zero := v == 0
	if w>>24&1 == 1 { // cbnz
		zero = !zero
	}
	if !zero {
		return false
	}
	off := sext((w>>5)&0x7FFFF, 19) << 2
	c.PC = uint64(int64(c.PC) + off)
	return true
}

func execMoveWide(c *CPU, w uint32) bool {
	wide := w>>31 != 0
	imm := uint64(w>>5) & 0xFFFF
	shift := uint(w>>21&3) * 16
	var v uint64
	switch w >> 29 & 3 {
	case 0: // movn
		v = ^(imm << shift)
	case 2: // movz
		v = imm << shift
	case 3: // movk
		v = c.Reg(rd(w))&^(0xFFFF<<shift) | imm<<shift
	default:
		c.fault(w, ErrUnknownInstruction)
		return false
	}
	if !wide {
		v &= 0xFFFFFFFF
	}
	c.SetReg(rd(w), v)
	return false
}

// execAddSubImm covers add/sub and their flag-setting forms with a
// 12-bit immediate. Register 31 is the stack pointer here, so the
// plain forms use the raw register slot.
func execAddSubImm(c *CPU, w uint32) bool {
	wide := w>>31 != 0
	sub := w>>30&1 == 1
	setFlags := w>>29&1 == 1
	imm := uint64(w>>10) & 0xFFF
	if w>>22&1 == 1 {
		imm <<= 12
	}
	a := c.X[rn(w)]
	if !wide {
		a &= 0xFFFFFFFF
	}
	var r uint64
	if sub {
		r = a - imm
	} else {
		r = a + imm
	}
	if !wide {
		r &= 0xFFFFFFFF
	}
	if setFlags {
		if wide {
			if sub {
				c.setFlagsSub64(a, imm, r)
			} else {
				c.setFlagsAdd64(a, imm, r)
			}
		} else {
			if sub {
				c.setFlagsSub32(uint32(a), uint32(imm), uint32(r))
			} else {
				c.setFlagsAdd32(uint32(a), uint32(imm), uint32(r))
			}
		}
		c.SetReg(rd(w), r)
	} else {
		c.X[rd(w)] = r
	}
	return false
}

func execAddSubReg(c *CPU, w uint32) bool {
	wide := w>>31 != 0
	sub := w>>30&1 == 1
	setFlags := w>>29&1 == 1
	a := c.Reg(rn(w))
	b := shiftedReg(c.Reg(rm(w)), w, wide)
	if !wide {
		a &= 0xFFFFFFFF
		b &= 0xFFFFFFFF
	}
	var r uint64
	if sub {
		r = a - b
	} else {
		r = a + b
	}
	if !wide {
		r &= 0xFFFFFFFF
	}
	if setFlags {
		if wide {
			if sub {
				c.setFlagsSub64(a, b, r)
			} else {
				c.setFlagsAdd64(a, b, r)
			}
		} else {
			if sub {
				c.setFlagsSub32(uint32(a), uint32(b), uint32(r))
			} else {
				c.setFlagsAdd32(uint32(a), uint32(b), uint32(r))
			}
		}
	}
	c.SetReg(rd(w), r)
	return false
}

func execLogicReg(c *CPU, w uint32) bool {
	wide := w>>31 != 0
	a := c.Reg(rn(w))
	b := shiftedReg(c.Reg(rm(w)), w, wide)
	if w>>21&1 == 1 { // bic, orn, eon
		b = ^b
	}
	var r uint64
	opc := w >> 29 & 3
	switch opc {
	case 0, 3: // and, ands
		r = a & b
	case 1: // orr
		r = a | b
	case 2: // eor
		r = a ^ b
	}
	if !wide {
		r &= 0xFFFFFFFF
	}
	if opc == 3 {
		if wide {
			c.setFlagsLogic64(r)
		} else {
			c.setFlagsLogic32(uint32(r))
		}
	}
	c.SetReg(rd(w), r)
	return false
}

func execMulAdd(c *CPU, w uint32) bool {
	wide := w>>31 != 0
	ra := int(w>>10) & 31
	r := c.Reg(ra) + c.Reg(rn(w))*c.Reg(rm(w))
	if !wide {
		r &= 0xFFFFFFFF
	}
	c.SetReg(rd(w), r)
	return false
}

func execDivShift(c *CPU, w uint32) bool {
	wide := w>>31 != 0
	a := c.Reg(rn(w))
	b := c.Reg(rm(w))
	if !wide {
		a &= 0xFFFFFFFF
		b &= 0xFFFFFFFF
	}
	datasize := uint64(64)
	if !wide {
		datasize = 32
	}
	var r uint64
	switch w >> 10 & 0x3F {
	case 2: // udiv
		if b != 0 {
			r = a / b
		}
	case 3: // sdiv
		if b != 0 {
			if wide {
				r = uint64(int64(a) / int64(b))
			} else {
				r = uint64(uint32(int32(uint32(a)) / int32(uint32(b))))
			}
		}
	case 8: // lslv
		r = a << (b % datasize)
	case 9: // lsrv
		r = a >> (b % datasize)
	case 10: // asrv
		if wide {
			r = uint64(int64(a) >> (b % datasize))
		} else {
			r = uint64(uint32(int32(uint32(a)) >> (b % datasize)))
		}
	case 11: // rorv
		amt := b % datasize
		if amt == 0 {
			r = a
		} else if wide {
			r = a>>amt | a<<(64-amt)
		} else {
			u := uint32(a)
			r = uint64(u>>amt | u<<(32-amt))
		}
	default:
		c.fault(w, ErrUnknownInstruction)
		return false
	}
	if !wide {
		r &= 0xFFFFFFFF
	}
	c.SetReg(rd(w), r)
	return false
}

func execLoadLiteral(c *CPU, w uint32) bool {
	addr := uint64(int64(c.PC) + sext((w>>5)&0x7FFFF, 19)<<2)
	switch w >> 30 {
	case 0: // 32-bit
		if v, ok := c.loadN(addr, 4); ok {
			c.SetReg(rd(w), v)
		}
	case 1: // 64-bit
		if v, ok := c.loadN(addr, 8); ok {
			c.SetReg(rd(w), v)
		}
	case 2: // ldrsw
		if v, ok := c.loadN(addr, 4); ok {
			c.SetReg(rd(w), uint64(int64(int32(uint32(v)))))
		}
	}
	return false
}

// loadStoreAccess performs one scalar access of the unsigned-offset
// and indexed families. size is the log2 byte width and opc selects
// store, load or sign-extending load.
func (c *CPU) loadStoreAccess(w uint32, addr uint64, size, opc uint32) {
	n := 1 << size
	rt := rd(w)
	switch opc {
	case 0: // store
		c.storeN(addr, n, c.Reg(rt))
	case 1: // load, zero-extend
		if v, ok := c.loadN(addr, n); ok {
			c.SetReg(rt, v)
		}
	case 2, 3: // load, sign-extend to 64 or 32 bits
		v, ok := c.loadN(addr, n)
		if !ok {
			return
		}
		shift := 64 - 8*uint(n)
		s := uint64(int64(v<<shift) >> shift)
		if opc == 3 {
			s &= 0xFFFFFFFF
		}
		c.SetReg(rt, s)
	}
}

func execLoadStoreUnsigned(c *CPU, w uint32) bool {
	size := w >> 30
	opc := w >> 22 & 3
	addr := c.X[rn(w)] + uint64((w>>10)&0xFFF)<<size
	c.loadStoreAccess(w, addr, size, opc)
	return false
}

// execLoadStoreIndexed handles the pre- and post-index forms with a
// signed 9-bit displacement. The base register updates even when the
// access itself falls outside memory.
func execLoadStoreIndexed(c *CPU, w uint32) bool {
	size := w >> 30
	opc := w >> 22 & 3
	off := sext((w>>12)&0x1FF, 9)
	base := c.X[rn(w)]
	addr := base
	if w>>10&3 == 3 { // pre-index
		addr = uint64(int64(base) + off)
	}
	c.loadStoreAccess(w, addr, size, opc)
	c.X[rn(w)] = uint64(int64(base) + off)
	return false
}

func (c *CPU) execPair(w uint32, mode int) {
	size := 4
	if w>>30 == 2 {
		size = 8
	}
	scale := uint(2)
	if size == 8 {
		scale = 3
	}
	load := w>>22&1 == 1
	off := sext((w>>15)&0x7F, 7) << scale
	rt := rd(w)
	rt2 := int(w>>10) & 31
	base := c.X[rn(w)]
	addr := base
	if mode != 0 { // pre-index or signed offset
		addr = uint64(int64(base) + off)
	}
	if load {
		if v, ok := c.loadN(addr, size); ok {
			c.SetReg(rt, v)
		}
		if v, ok := c.loadN(addr+uint64(size), size); ok {
			c.SetReg(rt2, v)
		}
	} else {
		c.storeN(addr, size, c.Reg(rt))
		c.storeN(addr+uint64(size), size, c.Reg(rt2))
	}
	if mode != 2 { // pre- and post-index write the base back
		c.X[rn(w)] = uint64(int64(base) + off)
	}
}

func execPairPost(c *CPU, w uint32) bool {
	c.execPair(w, 0)
	return false
}

func execPairPre(c *CPU, w uint32) bool {
	c.execPair(w, 1)
	return false
}

func execPairSigned(c *CPU, w uint32) bool {
	c.execPair(w, 2)
	return false
}
