package vm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Console adapts a reader/writer pair to the engine's character I/O.
// Line input is cooked: the terminal handles echo, and backspaces in
// piped input are applied before the line is returned.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole wraps the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) WriteString(s string) error {
	_, err := io.WriteString(c.out, s)
	return err
}

func (c *Console) WriteRune(r rune) error {
	_, err := fmt.Fprintf(c.out, "%c", r)
	return err
}

// ReadChar returns the next input byte, skipping line terminators so
// a keypress followed by enter yields the keypress.
func (c *Console) ReadChar() (byte, error) {
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == '\n' || b == '\r' {
			continue
		}
		return b, nil
	}
}

// ReadLine returns one line without its terminator.
func (c *Console) ReadLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	return applyBackspaces(line), nil
}

// applyBackspaces folds literal backspace and delete characters into
// the edits they represent.
func applyBackspaces(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\b' || s[i] == 0x7F {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
