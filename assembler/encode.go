package assembler

// encodeInstruction produces the 32-bit machine word for one
// instruction node. On failure it records the error and returns
// ok=false.
func (a *Assembler) encodeInstruction(prog *Program, n *Node) (uint32, bool) {
	switch n.Mn {
	case MnNop:
		return 0xD503201F, true

	case MnRet:
		// RET defaults to the link register.
		rn := 30
		if n.NArgs > 0 {
			if r, _, ok := a.reg(prog, n, 0); ok {
				rn = r
			}
		}
		return 0xD65F0000 | uint32(rn)<<5, true

	case MnBr, MnBlr:
		r, _, ok := a.reg(prog, n, 0)
		if !ok {
			a.failf("%s requires a register operand", n.Tok.Text)
			return 0, false
		}
		base := uint32(0xD61F0000)
		if n.Mn == MnBlr {
			base = 0xD63F0000
		}
		return base | uint32(r)<<5, true

	case MnB, MnBl:
		return a.encodeBranch(prog, n)
	case MnBCond:
		return a.encodeCondBranch(prog, n)
	case MnCbz, MnCbnz:
		return a.encodeCompareBranch(prog, n)

	case MnMov, MnMovz, MnMovn, MnMovk:
		return a.encodeMove(prog, n)

	case MnAdd, MnAdds, MnSub, MnSubs, MnCmp, MnCmn, MnTst,
		MnAnd, MnAnds, MnOrr, MnEor, MnBic, MnOrn, MnMvn, MnNeg,
		MnMul, MnUdiv, MnSdiv, MnLsl, MnLsr, MnAsr, MnRor:
		return a.encodeDataProc(prog, n)

	case MnLdr, MnLdrb, MnLdrh, MnLdrsb, MnLdrsh, MnLdrsw,
		MnStr, MnStrb, MnStrh:
		return a.encodeLoadStore(prog, n)
	case MnLdp, MnStp:
		return a.encodeLoadStorePair(prog, n)

	case MnWfi:
		return 0xD503207F, true
	case MnWfe:
		return 0xD503205F, true
	case MnSev:
		return 0xD503209F, true
	case MnSevl:
		return 0xD50320BF, true
	case MnDmb, MnDsb, MnIsb:
		return a.encodeBarrier(prog, n)

	case MnSvc, MnHvc, MnSmc:
		var imm16 int64
		if n.NArgs > 0 {
			imm16, _ = a.imm(prog, n, 0)
		}
		op := uint32(1)
		if n.Mn == MnHvc {
			op = 2
		} else if n.Mn == MnSmc {
			op = 3
		}
		return 0xD4000000 | op | uint32(imm16&0xFFFF)<<5, true

	case MnExtended:
		// Fixed supervisor-call encoding with the opcode number in imm16.
		return 0xD4000001 | uint32(n.Imm&0xFFFF)<<5, true
	}

	a.failf("unknown instruction: %s", n.Tok.Text)
	return 0, false
}

// encodeDataProc covers the register-form arithmetic, logic, multiply,
// divide and shift families plus their aliases (cmp/cmn/tst, neg/mvn,
// two-operand shorthand). Immediate last operands divert to the
// immediate form.
func (a *Assembler) encodeDataProc(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 2 {
		a.failf("%s requires at least 2 operands", n.Tok.Text)
		return 0, false
	}

	rd, wide, ok := a.reg(prog, n, 0)
	if !ok {
		a.failf("invalid destination register")
		return 0, false
	}

	rn, rm := -1, -1
	hasImm := false

	isImmOperand := func(i int) bool {
		t, ok := a.argKind(prog, n, i)
		return ok && (t == NodeImmediate || t == NodeLabelRef)
	}

	switch n.Mn {
	case MnCmp, MnCmn, MnTst:
		// First operand is really Rn; the destination is the zero register.
		rn = rd
		rd = 31
		if isImmOperand(1) {
			hasImm = true
		} else if rm, _, ok = a.reg(prog, n, 1); !ok {
			a.failf("invalid second operand for %s", n.Tok.Text)
			return 0, false
		}
	case MnNeg, MnMvn:
		rn = 31
		if rm, _, ok = a.reg(prog, n, 1); !ok {
			a.failf("invalid source register for %s", n.Tok.Text)
			return 0, false
		}
	default:
		if n.NArgs < 3 {
			// Two-operand shorthand: Rd, Rm means Rd, Rd, Rm.
			rn = rd
			if isImmOperand(1) {
				hasImm = true
			} else if rm, _, ok = a.reg(prog, n, 1); !ok {
				a.failf("invalid source register")
				return 0, false
			}
		} else {
			if rn, _, ok = a.reg(prog, n, 1); !ok {
				a.failf("invalid first source register")
				return 0, false
			}
			if isImmOperand(2) {
				hasImm = true
			} else if rm, _, ok = a.reg(prog, n, 2); !ok {
				a.failf("invalid second source register")
				return 0, false
			}
		}
	}

	if hasImm {
		return a.encodeDataProcImm(prog, n, rd, rn, wide)
	}

	sf := uint32(0)
	if wide {
		sf = 1 << 31
	}
	operands := sf | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)

	switch n.Mn {
	case MnAdd:
		return 0x0B000000 | operands, true
	case MnAdds, MnCmn:
		return 0x2B000000 | operands, true
	case MnSub, MnNeg:
		return 0x4B000000 | operands, true
	case MnSubs, MnCmp:
		return 0x6B000000 | operands, true
	case MnAnd:
		return 0x0A000000 | operands, true
	case MnAnds, MnTst:
		return 0x6A000000 | operands, true
	case MnOrr:
		return 0x2A000000 | operands, true
	case MnEor:
		return 0x4A000000 | operands, true
	case MnBic:
		return 0x0A200000 | operands, true
	case MnOrn, MnMvn:
		return 0x2A200000 | operands, true
	case MnMul:
		// MADD with the accumulator forced to the zero register.
		return 0x1B007C00 | operands, true
	case MnUdiv:
		return 0x1AC00800 | operands, true
	case MnSdiv:
		return 0x1AC00C00 | operands, true
	case MnLsl:
		return 0x1AC02000 | operands, true
	case MnLsr:
		return 0x1AC02400 | operands, true
	case MnAsr:
		return 0x1AC02800 | operands, true
	case MnRor:
		return 0x1AC02C00 | operands, true
	}

	a.failf("unsupported data processing instruction: %s", n.Tok.Text)
	return 0, false
}

// encodeDataProcImm encodes the add/sub immediate family. Immediates
// 0-4095 encode directly; multiples of 4096 up to 4095<<12 use the
// LSL #12 form. Anything else is a range error.
func (a *Assembler) encodeDataProcImm(prog *Program, n *Node, rd, rn int, wide bool) (uint32, bool) {
	imm, _ := a.imm(prog, n, n.NArgs-1)

	sf := uint32(0)
	if wide {
		sf = 1 << 31
	}

	shifted := uint32(0)
	if imm < 0 || imm > 4095 {
		if imm > 0 && imm&0xFFF == 0 && imm>>12 <= 4095 {
			imm >>= 12
			shifted = 1 << 22
		} else {
			a.fail(ErrRange, "immediate value out of range: %d", imm)
			return 0, false
		}
	}

	operands := sf | shifted | uint32(imm&0xFFF)<<10 | uint32(rn)<<5 | uint32(rd)

	switch n.Mn {
	case MnAdd:
		return 0x11000000 | operands, true
	case MnAdds, MnCmn:
		return 0x31000000 | operands, true
	case MnSub:
		return 0x51000000 | operands, true
	case MnSubs, MnCmp:
		return 0x71000000 | operands, true
	}

	a.failf("%s does not support an immediate form", n.Tok.Text)
	return 0, false
}

// encodeBarrier handles dmb/dsb/isb with an optional option immediate,
// defaulting to SY (full system).
func (a *Assembler) encodeBarrier(prog *Program, n *Node) (uint32, bool) {
	option := int64(0xF)
	if n.NArgs > 0 {
		if v, ok := a.imm(prog, n, 0); ok {
			option = v & 0xF
		}
	}
	var base uint32
	switch n.Mn {
	case MnDmb:
		base = 0xD50330BF
	case MnDsb:
		base = 0xD503309F
	default:
		base = 0xD50330DF
	}
	return base | uint32(option)<<8, true
}
