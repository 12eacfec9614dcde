package assembler

import "strings"

// directive emits or records one assembler directive. Section switches
// only move the marker; the buffer layout stays linear.
func (a *Assembler) directive(prog *Program, n *Node) {
	switch strings.ToLower(n.Tok.Text) {
	case "text":
		a.section = SectionText
	case "data":
		a.section = SectionData
	case "bss":
		a.section = SectionBSS

	case "global", "globl":
		if n.NArgs < 1 {
			return
		}
		op := prog.Node(n.Args[0])
		if op == nil {
			return
		}
		sym := a.symbols.lookup(op.Tok.Text)
		if sym == nil {
			sym = a.symbols.add(op.Tok.Text)
		}
		if sym != nil {
			sym.Global = true
		}

	case "align", "p2align":
		if v, ok := a.imm(prog, n, 0); ok && v >= 0 && v <= 12 {
			a.alignTo(int64(1) << v)
		}
	case "balign":
		if v, ok := a.imm(prog, n, 0); ok && v > 0 {
			a.alignTo(v)
		}

	case "byte":
		for i := 0; i < n.NArgs; i++ {
			v, _ := a.imm(prog, n, i)
			a.emitByte(byte(v))
		}
	case "hword":
		for i := 0; i < n.NArgs; i++ {
			v, _ := a.imm(prog, n, i)
			a.emitHalf(uint16(v))
		}
	case "word":
		for i := 0; i < n.NArgs; i++ {
			v, _ := a.imm(prog, n, i)
			a.emitWord(uint32(v))
		}
	case "quad":
		for i := 0; i < n.NArgs; i++ {
			v, _ := a.imm(prog, n, i)
			a.emitQuad(uint64(v))
		}

	case "space", "skip":
		size, ok := a.imm(prog, n, 0)
		if !ok {
			return
		}
		fill := byte(0)
		if v, ok := a.imm(prog, n, 1); ok {
			fill = byte(v)
		}
		for i := int64(0); i < size && a.err == nil; i++ {
			a.emitByte(fill)
		}

	case "ascii":
		a.emitString(prog, n, false)
	case "asciz", "string":
		a.emitString(prog, n, true)

	case "equ", "set":
		// Binds on pass 1 only; by pass 2 the symbol exists.
		if !a.firstPass || n.NArgs < 2 {
			return
		}
		name := prog.Node(n.Args[0])
		if name == nil {
			return
		}
		v, ok := a.imm(prog, n, 1)
		if !ok {
			a.failf(".%s requires a constant value", n.Tok.Text)
			return
		}
		full, dup := a.symbols.define(name.Tok.Text, uint64(v))
		if full {
			a.fail(ErrSymbolTableFull, "symbol table full (max %d)", MaxSymbols)
		} else if dup {
			a.fail(ErrDuplicateSymbol, "symbol already defined: %s", name.Tok.Text)
		}

	default:
		// Unknown directives are ignored.
	}
}

// emitString writes a string literal's bytes, processing the escapes
// \n \r \t \0 \\ \" and optionally appending a terminating zero.
func (a *Assembler) emitString(prog *Program, n *Node, zeroTerminate bool) {
	if n.NArgs < 1 {
		return
	}
	op := prog.Node(n.Args[0])
	if op == nil || op.Tok.Kind != String {
		a.failf(".%s requires a string literal", n.Tok.Text)
		return
	}
	s := op.Tok.Text
	// Strip the surrounding quotes kept by the lexer.
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case '0':
				c = 0
			case '\\':
				c = '\\'
			case '"':
				c = '"'
			default:
				c = s[i]
			}
		}
		a.emitByte(c)
	}
	if zeroTerminate {
		a.emitByte(0)
	}
}
