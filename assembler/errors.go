package assembler

import (
	"errors"
	"fmt"
)

// Error is an assembly-time failure tied to a source line.
type Error struct {
	Line int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func errAt(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel failure causes, recognizable through errors.Is on *Error
// values.
var (
	// ErrBufferFull is the code buffer overflowing its fixed capacity.
	ErrBufferFull = errors.New("code buffer overflow")
	// ErrSymbolTableFull is the symbol table exceeding its capacity.
	ErrSymbolTableFull = errors.New("symbol table full")
	// ErrUndefinedSymbol is a reference to a symbol with no definition.
	ErrUndefinedSymbol = errors.New("undefined symbol")
	// ErrDuplicateSymbol is a second definition of an existing symbol.
	ErrDuplicateSymbol = errors.New("symbol already defined")
	// ErrRange is a displacement or immediate outside its encodable range.
	ErrRange = errors.New("value out of encodable range")
	// ErrNodePoolFull is the parser's fixed node pool running out.
	ErrNodePoolFull = errors.New("node pool exhausted")
)

func errWrap(line int, sentinel error, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...), Err: sentinel}
}
