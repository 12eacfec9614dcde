package assembler

// branchTarget resolves a branch operand (label or immediate) to a
// byte displacement from the instruction being emitted, validating
// range and 4-byte alignment. Displacements are word-granular in the
// encodings.
func (a *Assembler) branchTarget(prog *Program, n *Node, i int, min, max int64) (int64, bool) {
	t, ok := a.argKind(prog, n, i)
	if !ok || (t != NodeLabelRef && t != NodeImmediate) {
		a.failf("invalid branch target")
		return 0, false
	}
	target, _ := a.imm(prog, n, i)
	offset := target - int64(a.off)

	if a.firstPass {
		// Labels may be unresolved; only the width matters now.
		return 0, true
	}
	if offset < min || offset > max {
		a.fail(ErrRange, "branch target out of range: %d", offset)
		return 0, false
	}
	if offset&3 != 0 {
		a.failf("branch target not word aligned")
		return 0, false
	}
	return offset, true
}

// encodeBranch handles b and bl: 26-bit word-granular displacement,
// ±128 MiB.
func (a *Assembler) encodeBranch(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 1 {
		a.failf("%s requires a target operand", n.Tok.Text)
		return 0, false
	}
	offset, ok := a.branchTarget(prog, n, 0, -134217728, 134217724)
	if !ok {
		return 0, false
	}
	imm26 := uint32(offset>>2) & 0x3FFFFFF
	if n.Mn == MnBl {
		return 0x94000000 | imm26, true
	}
	return 0x14000000 | imm26, true
}

// encodeCondBranch handles b.cond: 19-bit word-granular displacement,
// ±1 MiB.
func (a *Assembler) encodeCondBranch(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 1 {
		a.failf("conditional branch requires a target operand")
		return 0, false
	}
	offset, ok := a.branchTarget(prog, n, 0, -1048576, 1048572)
	if !ok {
		return 0, false
	}
	imm19 := uint32(offset>>2) & 0x7FFFF
	return 0x54000000 | imm19<<5 | uint32(n.Cond), true
}

// encodeCompareBranch handles cbz and cbnz.
func (a *Assembler) encodeCompareBranch(prog *Program, n *Node) (uint32, bool) {
	if n.NArgs < 2 {
		a.failf("%s requires a register and a target operand", n.Tok.Text)
		return 0, false
	}
	rt, wide, ok := a.reg(prog, n, 0)
	if !ok {
		a.failf("invalid register for %s", n.Tok.Text)
		return 0, false
	}
	offset, ok := a.branchTarget(prog, n, 1, -1048576, 1048572)
	if !ok {
		return 0, false
	}
	sf := uint32(0)
	if wide {
		sf = 1 << 31
	}
	op := uint32(0x34000000)
	if n.Mn == MnCbnz {
		op = 0x35000000
	}
	imm19 := uint32(offset>>2) & 0x7FFFF
	return sf | op | imm19<<5 | uint32(rt), true
}
