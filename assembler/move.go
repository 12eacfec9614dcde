package assembler

// moveWindow finds the 16-bit shift window that exactly represents v,
// returning the half-word index and field value. Wide registers have
// four windows, narrow ones two.
func moveWindow(v uint64, wide bool) (hw uint32, imm16 uint32, ok bool) {
	limit := uint32(4)
	if !wide {
		limit = 2
	}
	for hw = 0; hw < limit; hw++ {
		if v&^(uint64(0xFFFF)<<(16*hw)) == 0 {
			return hw, uint32(v >> (16 * hw)), true
		}
	}
	return 0, 0, false
}

// encodeMove covers mov (register and immediate), movz, movn and movk.
// mov Rd, Rm is the ORR-with-zero-register alias; mov with an immediate
// selects the zero-extend (MOVZ) or one's-complement (MOVN) form based
// on sign.
func (a *Assembler) encodeMove(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 2 {
		a.failf("%s requires destination and source operands", n.Tok.Text)
		return 0, false
	}

	rd, wide, ok := a.reg(prog, n, 0)
	if !ok {
		a.failf("invalid destination register for %s", n.Tok.Text)
		return 0, false
	}

	sf := uint32(0)
	if wide {
		sf = 1 << 31
	}

	if t, _ := a.argKind(prog, n, 1); t == NodeRegister && n.Mn == MnMov {
		rm, _, _ := a.reg(prog, n, 1)
		// ORR Rd, XZR, Rm.
		return 0x2A0003E0 | sf | uint32(rm)<<16 | uint32(rd), true
	}

	imm, ok := a.imm(prog, n, 1)
	if !ok {
		a.failf("invalid source operand for %s", n.Tok.Text)
		return 0, false
	}

	switch {
	case n.Mn == MnMovk:
		return 0x72800000 | sf | uint32(imm&0xFFFF)<<5 | uint32(rd), true

	case n.Mn == MnMovz || (n.Mn == MnMov && imm >= 0):
		hw, imm16, ok := moveWindow(uint64(imm), wide)
		if !ok {
			a.fail(ErrRange, "immediate cannot be encoded in a single move: %#x", imm)
			return 0, false
		}
		return 0x52800000 | sf | hw<<21 | imm16<<5 | uint32(rd), true

	default: // MnMovn, or mov with a negative immediate
		not := ^uint64(imm)
		if !wide {
			not &= 0xFFFFFFFF
		}
		hw, imm16, ok := moveWindow(not, wide)
		if !ok {
			a.fail(ErrRange, "immediate cannot be encoded in a single move: %d", imm)
			return 0, false
		}
		return 0x12800000 | sf | hw<<21 | imm16<<5 | uint32(rd), true
	}
}
