package cpu

import (
	"errors"
	"fmt"
)

// Sentinel faults, wrapped into a Fault with the offending address.
var (
	ErrUnknownInstruction = errors.New("unrecognized instruction word")
	ErrUnknownService     = errors.New("unknown extended opcode")
	ErrInstructionLimit   = errors.New("instruction limit exceeded")
)

// Fault records where execution went wrong.
type Fault struct {
	PC   uint64
	Word uint32
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at %#x (word %#08x): %v", f.PC, f.Word, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// fault moves the engine into the terminal Faulted state.
func (c *CPU) fault(word uint32, err error) {
	c.State = Faulted
	c.Fault = &Fault{PC: c.PC, Word: word, Err: err}
}
