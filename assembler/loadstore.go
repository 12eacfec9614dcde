package assembler

// loadStoreForm captures the size and opc fields for one load/store
// mnemonic given the register width in use.
func loadStoreForm(mn Mnemonic, wide bool) (size, opc uint32) {
	switch mn {
	case MnLdr:
		if wide {
			return 3, 1
		}
		return 2, 1
	case MnStr:
		if wide {
			return 3, 0
		}
		return 2, 0
	case MnLdrb:
		return 0, 1
	case MnStrb:
		return 0, 0
	case MnLdrh:
		return 1, 1
	case MnStrh:
		return 1, 0
	case MnLdrsb:
		if wide {
			return 0, 2
		}
		return 0, 3
	case MnLdrsh:
		if wide {
			return 1, 2
		}
		return 1, 3
	case MnLdrsw:
		return 2, 2
	}
	return 0, 0
}

// encodeLoadStore handles the byte/halfword/word/doubleword load and
// store family: unsigned-scaled offset, pre-index and post-index
// addressing, plus the PC-relative literal form for label targets.
func (a *Assembler) encodeLoadStore(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 2 {
		a.failf("%s requires a register and a memory operand", n.Tok.Text)
		return 0, false
	}

	rt, wide, ok := a.reg(prog, n, 0)
	if !ok {
		a.failf("invalid register for %s", n.Tok.Text)
		return 0, false
	}

	// LDR with a label or immediate target is the PC-relative literal
	// form: ±1 MiB, word aligned.
	if t, _ := a.argKind(prog, n, 1); t == NodeLabelRef || t == NodeImmediate {
		if n.Mn != MnLdr {
			a.failf("%s does not support a literal operand", n.Tok.Text)
			return 0, false
		}
		offset, ok := a.branchTarget(prog, n, 1, -1048576, 1048572)
		if !ok {
			return 0, false
		}
		opc := uint32(0)
		if wide {
			opc = 1
		}
		imm19 := uint32(offset>>2) & 0x7FFFF
		return opc<<30 | 0x18000000 | imm19<<5 | uint32(rt), true
	}

	mem := prog.Node(n.Args[1])
	if mem == nil || mem.Type != NodeMemory {
		a.failf("expected memory operand")
		return 0, false
	}
	if mem.Mem.Index >= 0 {
		a.failf("register offset addressing not supported")
		return 0, false
	}

	size, opc := loadStoreForm(n.Mn, wide)
	base := uint32(mem.Mem.Base)
	offset := mem.Mem.Offset

	if mem.Mem.PreIndex || mem.Mem.PostIndex {
		if offset < -256 || offset > 255 {
			a.fail(ErrRange, "pre/post-index offset out of range: %d", offset)
			return 0, false
		}
		imm9 := uint32(offset) & 0x1FF
		idx := uint32(1) // post-index
		if mem.Mem.PreIndex {
			idx = 3
		}
		return size<<30 | 0x38000000 | opc<<22 | imm9<<12 | idx<<10 |
			base<<5 | uint32(rt), true
	}

	// Unsigned offset form scales the offset by the access size.
	if offset&(1<<size-1) != 0 {
		a.failf("offset not aligned to access size")
		return 0, false
	}
	scaled := offset >> size
	if scaled < 0 || scaled > 4095 {
		a.fail(ErrRange, "unsigned offset out of range: %d", offset)
		return 0, false
	}
	return size<<30 | 0x39000000 | opc<<22 | uint32(scaled)<<10 |
		base<<5 | uint32(rt), true
}

// encodeLoadStorePair handles ldp and stp with a 7-bit scaled signed
// offset in all three index forms.
func (a *Assembler) encodeLoadStorePair(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 3 {
		a.failf("%s requires two registers and a memory operand", n.Tok.Text)
		return 0, false
	}

	rt1, wide, ok := a.reg(prog, n, 0)
	if !ok {
		a.failf("invalid first register for %s", n.Tok.Text)
		return 0, false
	}
	rt2, _, ok := a.reg(prog, n, 1)
	if !ok {
		a.failf("invalid second register for %s", n.Tok.Text)
		return 0, false
	}

	mem := prog.Node(n.Args[2])
	if mem == nil || mem.Type != NodeMemory {
		a.failf("expected memory operand")
		return 0, false
	}

	scale := uint(2)
	if wide {
		scale = 3
	}
	offset := mem.Mem.Offset
	if offset&(1<<scale-1) != 0 {
		a.failf("offset not aligned to register size")
		return 0, false
	}
	scaled := offset >> scale
	if scaled < -64 || scaled > 63 {
		a.fail(ErrRange, "pair offset out of range: %d", offset)
		return 0, false
	}

	opc := uint32(0)
	if wide {
		opc = 2
	}
	l := uint32(0)
	if n.Mn == MnLdp {
		l = 1
	}
	imm7 := uint32(scaled) & 0x7F
	operands := opc<<30 | l<<22 | imm7<<15 | uint32(rt2)<<10 |
		uint32(mem.Mem.Base)<<5 | uint32(rt1)

	switch {
	case mem.Mem.PostIndex:
		return 0x28800000 | operands, true
	case mem.Mem.PreIndex:
		return 0x29800000 | operands, true
	default:
		return 0x29000000 | operands, true
	}
}
