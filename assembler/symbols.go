package assembler

// MaxSymbols bounds the symbol table.
const MaxSymbols = 64

// Symbol is one entry in the assembler's symbol table.
type Symbol struct {
	Name    string
	Addr    uint64
	Defined bool
	Global  bool
}

type symtab struct {
	byName map[string]*Symbol
	order  []string
}

func newSymtab() *symtab {
	return &symtab{byName: make(map[string]*Symbol, MaxSymbols)}
}

func (st *symtab) lookup(name string) *Symbol {
	return st.byName[name]
}

// add inserts an undefined symbol, returning nil when the table is full.
func (st *symtab) add(name string) *Symbol {
	if len(st.order) >= MaxSymbols {
		return nil
	}
	s := &Symbol{Name: name}
	st.byName[name] = s
	st.order = append(st.order, name)
	return s
}

// define binds name to addr. Defining an already-defined symbol fails.
func (st *symtab) define(name string, addr uint64) (full, dup bool) {
	s := st.lookup(name)
	if s == nil {
		s = st.add(name)
		if s == nil {
			return true, false
		}
	} else if s.Defined {
		return false, true
	}
	s.Addr = addr
	s.Defined = true
	return false, false
}

// all returns the symbols in definition order.
func (st *symtab) all() []Symbol {
	out := make([]Symbol, 0, len(st.order))
	for _, name := range st.order {
		out = append(out, *st.byName[name])
	}
	return out
}
