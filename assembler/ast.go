package assembler

// NodeType defines the type of an assembly node.
type NodeType int

const (
	// NodeLabel is a label definition.
	NodeLabel NodeType = iota
	// NodeInstruction is a mnemonic with operands.
	NodeInstruction
	// NodeDirective is an assembler directive with arguments.
	NodeDirective
	// NodeRegister is a register operand.
	NodeRegister
	// NodeImmediate is an immediate operand.
	NodeImmediate
	// NodeLabelRef is a label reference operand.
	NodeLabelRef
	// NodeMemory is a memory operand.
	NodeMemory
)

// Fixed capacities for the node pool. Exhausting either is a parse
// error, not a panic.
const (
	MaxNodes      = 512
	MaxStatements = 256
	maxOperands   = 8
)

// NodeID indexes a node in the program's pool. The zero pool slot is
// never handed out, so 0 doubles as "no node".
type NodeID int32

// MemOperand describes one memory addressing operand. Exactly one of
// Index (>= 0) and Offset is meaningful; PreIndex and PostIndex are
// mutually exclusive.
type MemOperand struct {
	Base      int
	Index     int // -1 when absent
	Offset    int64
	PreIndex  bool
	PostIndex bool
}

// Node is one element of the parsed program. Which fields are
// meaningful depends on Type.
type Node struct {
	Type NodeType
	Tok  Token

	// Instruction and directive children (operand / argument handles).
	Args  [maxOperands]NodeID
	NArgs int

	Mn   Mnemonic // NodeInstruction
	Cond int      // condition code for conditional branch mnemonics

	Reg  int   // NodeRegister
	Wide bool  // NodeRegister: X (64-bit) vs W (32-bit)
	Imm  int64 // NodeImmediate

	Mem MemOperand // NodeMemory
}

// Program is the parse result: a fixed pool of nodes and the ordered
// statement list. Node handles are only valid for the Program that
// issued them.
type Program struct {
	pool       [MaxNodes]Node
	nodeCount  int
	Statements []NodeID
}

func newProgram() *Program {
	p := &Program{}
	p.nodeCount = 1 // slot 0 reserved as the nil handle
	p.Statements = make([]NodeID, 0, MaxStatements)
	return p
}

// Node resolves a handle. The nil handle resolves to nil.
func (p *Program) Node(id NodeID) *Node {
	if id <= 0 || int(id) >= p.nodeCount {
		return nil
	}
	return &p.pool[id]
}

// alloc reserves a pool slot, returning 0 when the pool is exhausted.
func (p *Program) alloc(t NodeType, tok Token) NodeID {
	if p.nodeCount >= MaxNodes {
		return 0
	}
	id := NodeID(p.nodeCount)
	p.nodeCount++
	n := &p.pool[id]
	*n = Node{Type: t, Tok: tok, Mem: MemOperand{Index: -1}}
	return id
}
