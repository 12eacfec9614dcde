package assembler

// DefaultMemSize is the code buffer capacity: total addressable memory
// for the generated program, code followed by data.
const DefaultMemSize = 5 * 1024

// Section marks which part of the program is being emitted. The buffer
// layout stays linear; the marker only tracks source intent.
type Section int

const (
	// SectionText holds code.
	SectionText Section = iota
	// SectionData holds initialized data.
	SectionData
	// SectionBSS holds uninitialized data.
	SectionBSS
)

// Assembler holds the state for one assembly invocation: the symbol
// table and the bounded output buffer, driven over the AST in two
// passes.
type Assembler struct {
	symbols *symtab
	buf     []byte
	off     int
	section Section

	firstPass bool
	line      int
	err       *Error
}

// New creates an Assembler with the default buffer capacity.
func New() *Assembler {
	return NewSized(DefaultMemSize)
}

// NewSized creates an Assembler whose output buffer holds capacity bytes.
func NewSized(capacity int) *Assembler {
	return &Assembler{
		symbols: newSymtab(),
		buf:     make([]byte, capacity),
	}
}

// Assemble lexes, parses and generates machine code for src.
// Addresses start at 0.
func (a *Assembler) Assemble(src string) ([]byte, error) {
	prog, err := NewParser(NewLexer(src)).Parse()
	if err != nil {
		return nil, err
	}
	return a.Generate(prog)
}

// Generate runs the two passes over a parsed program. Pass 1 assigns
// addresses to labels by simulating emission; pass 2 emits real bytes
// with every label resolved.
func (a *Assembler) Generate(prog *Program) ([]byte, error) {
	a.symbols = newSymtab()
	a.err = nil

	a.firstPass = true
	a.off = 0
	a.section = SectionText
	a.walk(prog)
	if a.err != nil {
		return nil, a.err
	}

	a.firstPass = false
	a.off = 0
	a.section = SectionText
	a.walk(prog)
	if a.err != nil {
		return nil, a.err
	}

	out := make([]byte, a.off)
	copy(out, a.buf[:a.off])
	return out, nil
}

// Symbols returns the symbol table in definition order. Valid after a
// successful Generate.
func (a *Assembler) Symbols() []Symbol {
	return a.symbols.all()
}

func (a *Assembler) walk(prog *Program) {
	for _, id := range prog.Statements {
		if a.err != nil {
			return
		}
		n := prog.Node(id)
		if n == nil {
			continue
		}
		a.line = n.Tok.Line
		switch n.Type {
		case NodeLabel:
			if a.firstPass {
				full, dup := a.symbols.define(n.Tok.Text, uint64(a.off))
				if full {
					a.fail(ErrSymbolTableFull, "symbol table full (max %d)", MaxSymbols)
				} else if dup {
					a.fail(ErrDuplicateSymbol, "symbol already defined: %s", n.Tok.Text)
				}
			}
		case NodeDirective:
			a.directive(prog, n)
		case NodeInstruction:
			if w, ok := a.encodeInstruction(prog, n); ok {
				a.emitWord(w)
			}
		}
	}
}

func (a *Assembler) fail(sentinel error, format string, args ...any) {
	if a.err == nil {
		a.err = errWrap(a.line, sentinel, format, args...)
	}
}

func (a *Assembler) failf(format string, args ...any) {
	if a.err == nil {
		a.err = errAt(a.line, format, args...)
	}
}

// emitByte writes one byte. The first pass only advances the offset;
// the second writes, and overflow is a hard error.
func (a *Assembler) emitByte(b byte) {
	if a.firstPass {
		a.off++
		return
	}
	if a.off >= len(a.buf) {
		a.fail(ErrBufferFull, "code buffer overflow (%d bytes)", len(a.buf))
		return
	}
	a.buf[a.off] = b
	a.off++
}

func (a *Assembler) emitHalf(v uint16) {
	a.emitByte(byte(v))
	a.emitByte(byte(v >> 8))
}

func (a *Assembler) emitWord(v uint32) {
	a.emitByte(byte(v))
	a.emitByte(byte(v >> 8))
	a.emitByte(byte(v >> 16))
	a.emitByte(byte(v >> 24))
}

func (a *Assembler) emitQuad(v uint64) {
	a.emitWord(uint32(v))
	a.emitWord(uint32(v >> 32))
}

func (a *Assembler) alignTo(alignment int64) {
	if alignment <= 0 {
		return
	}
	for a.err == nil && int64(a.off)%alignment != 0 {
		a.emitByte(0)
	}
}

// Operand accessors shared by the directive and instruction encoders.

func (a *Assembler) reg(prog *Program, n *Node, i int) (num int, wide bool, ok bool) {
	if i >= n.NArgs {
		return -1, false, false
	}
	op := prog.Node(n.Args[i])
	if op == nil || op.Type != NodeRegister {
		return -1, false, false
	}
	return op.Reg, op.Wide, true
}

// imm resolves an immediate or symbolic operand to a value. Symbolic
// references resolve through the symbol table; unresolved symbols are
// an error on the second pass only.
func (a *Assembler) imm(prog *Program, n *Node, i int) (int64, bool) {
	if i >= n.NArgs {
		return 0, false
	}
	op := prog.Node(n.Args[i])
	if op == nil {
		return 0, false
	}
	switch op.Type {
	case NodeImmediate:
		return op.Imm, true
	case NodeLabelRef:
		return a.resolve(op), true
	}
	return 0, false
}

// resolve looks a label reference up. During the first pass the label
// may legitimately be undefined yet; 0 stands in and the second pass
// supplies the real address.
func (a *Assembler) resolve(op *Node) int64 {
	sym := a.symbols.lookup(op.Tok.Text)
	if sym == nil || !sym.Defined {
		if !a.firstPass {
			a.fail(ErrUndefinedSymbol, "undefined symbol: %s", op.Tok.Text)
		}
		return 0
	}
	return int64(sym.Addr)
}

func (a *Assembler) argKind(prog *Program, n *Node, i int) (NodeType, bool) {
	if i >= n.NArgs {
		return 0, false
	}
	op := prog.Node(n.Args[i])
	if op == nil {
		return 0, false
	}
	return op.Type, true
}
