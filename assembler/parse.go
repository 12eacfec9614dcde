package assembler

// Parser turns a token stream into a Program. The first error aborts
// the parse; there is no recovery.
type Parser struct {
	lex  *Lexer
	prog *Program
	cur  Token
	err  *Error
}

// NewParser creates a parser over the given lexer.
func NewParser(lex *Lexer) *Parser {
	return &Parser{lex: lex}
}

// Parse consumes the whole input and returns the program.
func (p *Parser) Parse() (*Program, error) {
	p.prog = newProgram()
	p.advance()

	for p.err == nil && p.cur.Kind != EOF {
		if p.cur.Kind == Newline {
			p.advance()
			continue
		}
		stmt := p.statement()
		if p.err != nil {
			break
		}
		if len(p.prog.Statements) >= MaxStatements {
			p.errorf("too many statements (max %d)", MaxStatements)
			break
		}
		p.prog.Statements = append(p.prog.Statements, stmt)
		p.endOfStatement()
	}

	if p.err != nil {
		return nil, p.err
	}
	return p.prog, nil
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
	if p.cur.Kind == Illegal && p.err == nil {
		p.err = errAt(p.cur.Line, "%s", p.cur.Text)
	}
}

func (p *Parser) check(k Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(k Kind, what string) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	p.errorf("expected %s", what)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	if p.err == nil {
		p.err = errAt(p.cur.Line, format, args...)
	}
}

func (p *Parser) alloc(t NodeType, tok Token) NodeID {
	id := p.prog.alloc(t, tok)
	if id == 0 && p.err == nil {
		p.err = errWrap(tok.Line, ErrNodePoolFull, "node pool exhausted (max %d nodes)", MaxNodes)
	}
	return id
}

func (p *Parser) endOfStatement() {
	if p.err != nil {
		return
	}
	if p.check(Newline) {
		p.advance()
		return
	}
	if !p.check(EOF) {
		p.errorf("unexpected %s at end of statement", p.cur.Kind)
	}
}

// statement parses one label definition, instruction or directive.
func (p *Parser) statement() NodeID {
	if p.check(Dot) {
		return p.directive()
	}
	if !p.check(Identifier) {
		p.errorf("expected label, instruction, or directive")
		return 0
	}

	head := p.cur
	p.advance()

	if p.match(Colon) {
		return p.alloc(NodeLabel, head)
	}
	return p.instruction(head)
}

func (p *Parser) instruction(mnTok Token) NodeID {
	mn, cond, imm16, ok := LookupMnemonic(mnTok.Text)
	if !ok {
		p.errorf("unknown instruction: %s", mnTok.Text)
		return 0
	}

	id := p.alloc(NodeInstruction, mnTok)
	if id == 0 {
		return 0
	}
	n := p.prog.Node(id)
	n.Mn = mn
	n.Cond = cond
	n.Imm = int64(imm16)

	for p.err == nil && !p.check(Newline) && !p.check(EOF) {
		op := p.operand()
		if p.err != nil {
			return 0
		}
		if n.NArgs >= maxOperands {
			p.errorf("too many operands")
			return 0
		}
		n.Args[n.NArgs] = op
		n.NArgs++
		if !p.match(Comma) {
			break
		}
	}
	return id
}

func (p *Parser) directive() NodeID {
	p.advance() // '.'
	if !p.check(Identifier) {
		p.errorf("expected directive name after '.'")
		return 0
	}
	name := p.cur
	p.advance()

	id := p.alloc(NodeDirective, name)
	if id == 0 {
		return 0
	}

	for p.err == nil && !p.check(Newline) && !p.check(EOF) {
		var arg NodeID
		switch p.cur.Kind {
		case Identifier, String:
			arg = p.alloc(NodeLabelRef, p.cur)
			p.advance()
		case Number:
			arg = p.alloc(NodeImmediate, p.cur)
			if n := p.prog.Node(arg); n != nil {
				n.Imm = p.cur.Value
			}
			p.advance()
		case Hash:
			arg = p.immediate()
		case Minus:
			arg = p.negativeNumber()
		default:
			p.errorf("unexpected %s in directive argument", p.cur.Kind)
			return 0
		}
		if p.err != nil {
			return 0
		}
		n := p.prog.Node(id)
		if n.NArgs >= maxOperands {
			p.errorf("too many directive arguments")
			return 0
		}
		n.Args[n.NArgs] = arg
		n.NArgs++
		if !p.match(Comma) {
			break
		}
	}
	return id
}

// operand dispatches on the leading token: '[' memory, '#' immediate,
// register-shaped identifier, otherwise label reference. Bare numbers
// are tolerated as immediates.
func (p *Parser) operand() NodeID {
	switch p.cur.Kind {
	case LBracket:
		return p.memoryOperand()
	case Hash:
		return p.immediate()
	case Identifier:
		if _, _, ok := ParseRegister(p.cur.Text); ok {
			return p.register()
		}
		id := p.alloc(NodeLabelRef, p.cur)
		p.advance()
		return id
	case Minus:
		return p.negativeNumber()
	case Number:
		id := p.alloc(NodeImmediate, p.cur)
		if n := p.prog.Node(id); n != nil {
			n.Imm = p.cur.Value
		}
		p.advance()
		return id
	}
	p.errorf("expected operand")
	return 0
}

func (p *Parser) register() NodeID {
	num, wide, ok := ParseRegister(p.cur.Text)
	if !ok {
		p.errorf("invalid register name: %s", p.cur.Text)
		return 0
	}
	id := p.alloc(NodeRegister, p.cur)
	if n := p.prog.Node(id); n != nil {
		n.Reg = num
		n.Wide = wide
	}
	p.advance()
	return id
}

func (p *Parser) immediate() NodeID {
	p.advance() // '#'
	neg := p.match(Minus)

	switch p.cur.Kind {
	case Number:
		id := p.alloc(NodeImmediate, p.cur)
		if n := p.prog.Node(id); n != nil {
			n.Imm = p.cur.Value
			if neg {
				n.Imm = -n.Imm
			}
		}
		p.advance()
		return id
	case Identifier:
		// Symbolic immediate, resolved at generation time.
		id := p.alloc(NodeLabelRef, p.cur)
		p.advance()
		return id
	}
	p.errorf("expected number or symbol after '#'")
	return 0
}

func (p *Parser) negativeNumber() NodeID {
	p.advance() // '-'
	if !p.check(Number) {
		p.errorf("expected number after '-'")
		return 0
	}
	id := p.alloc(NodeImmediate, p.cur)
	if n := p.prog.Node(id); n != nil {
		n.Imm = -p.cur.Value
	}
	p.advance()
	return id
}

// memoryOperand parses [base], [base, #off], [base, Xm], with optional
// trailing '!' (pre-index) or ', #off' after ']' (post-index).
func (p *Parser) memoryOperand() NodeID {
	open := p.cur
	p.advance() // '['

	id := p.alloc(NodeMemory, open)
	if id == 0 {
		return 0
	}

	if !p.check(Identifier) {
		p.errorf("expected base register in memory operand")
		return 0
	}
	base, wide, ok := ParseRegister(p.cur.Text)
	if !ok {
		p.errorf("invalid base register: %s", p.cur.Text)
		return 0
	}
	n := p.prog.Node(id)
	n.Tok = p.cur
	n.Mem.Base = base
	n.Wide = wide
	p.advance()

	if p.match(Comma) {
		switch p.cur.Kind {
		case Hash:
			p.advance()
			neg := p.match(Minus)
			if !p.check(Number) {
				p.errorf("expected number after '#' in memory operand")
				return 0
			}
			n.Mem.Offset = p.cur.Value
			if neg {
				n.Mem.Offset = -n.Mem.Offset
			}
			p.advance()
		case Identifier:
			idx, _, ok := ParseRegister(p.cur.Text)
			if !ok {
				p.errorf("invalid index register: %s", p.cur.Text)
				return 0
			}
			n.Mem.Index = idx
			p.advance()
		case Number:
			n.Mem.Offset = p.cur.Value
			p.advance()
		case Minus:
			p.advance()
			if !p.check(Number) {
				p.errorf("expected number after '-'")
				return 0
			}
			n.Mem.Offset = -p.cur.Value
			p.advance()
		default:
			p.errorf("expected offset or index register")
			return 0
		}
	}

	if !p.expect(RBracket, "']' after memory operand") {
		return 0
	}

	if p.match(Bang) {
		n.Mem.PreIndex = true
		return id
	}

	// A comma after ']' introduces a post-index offset.
	if p.match(Comma) {
		n.Mem.PostIndex = true
		switch p.cur.Kind {
		case Hash:
			p.advance()
			neg := p.match(Minus)
			if !p.check(Number) {
				p.errorf("expected number for post-index offset")
				return 0
			}
			n.Mem.Offset = p.cur.Value
			if neg {
				n.Mem.Offset = -n.Mem.Offset
			}
			p.advance()
		case Number:
			n.Mem.Offset = p.cur.Value
			p.advance()
		case Minus:
			p.advance()
			if !p.check(Number) {
				p.errorf("expected number after '-'")
				return 0
			}
			n.Mem.Offset = -p.cur.Value
			p.advance()
		default:
			p.errorf("expected post-index offset")
			return 0
		}
	}
	return id
}
