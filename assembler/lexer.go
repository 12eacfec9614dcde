package assembler

// Lexer produces one token per call from assembly source text.
// It never fails: lexical problems surface as Illegal tokens and
// scanning continues on the next call.
type Lexer struct {
	src   string
	pos   int
	start int
	line  int
}

// NewLexer creates a lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Line reports the current 1-based line number.
func (l *Lexer) Line() int { return l.line }

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) skipBlanks() {
	for !l.atEnd() {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *Lexer) token(k Kind) Token {
	return Token{Kind: k, Text: l.src[l.start:l.pos], Line: l.line}
}

func (l *Lexer) errorToken(msg string) Token {
	return Token{Kind: Illegal, Text: msg, Line: l.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Next returns the next token, advancing the lexer.
func (l *Lexer) Next() Token {
	l.skipBlanks()
	l.start = l.pos

	if l.atEnd() {
		return l.token(EOF)
	}

	c := l.advance()

	if c == ';' || (c == '/' && l.peek() == '/') {
		l.skipLineComment()
		l.start = l.pos
		if l.atEnd() {
			return l.token(EOF)
		}
		// Consume the newline that terminated the comment.
		l.pos++
		t := l.token(Newline)
		l.line++
		return t
	}

	if c == '\n' {
		t := l.token(Newline)
		l.line++
		return t
	}

	switch c {
	case ':':
		return l.token(Colon)
	case ',':
		return l.token(Comma)
	case '#':
		return l.token(Hash)
	case '[':
		return l.token(LBracket)
	case ']':
		return l.token(RBracket)
	case '!':
		return l.token(Bang)
	case '.':
		return l.token(Dot)
	case '+':
		return l.token(Plus)
	}

	if c == '-' {
		// A minus glued to digits is a negative literal.
		if isDigit(l.peek()) {
			for isDigit(l.peek()) {
				l.pos++
			}
			return l.numberToken()
		}
		return l.token(Minus)
	}

	if isDigit(c) {
		if c == '0' {
			switch lower(l.peek()) {
			case 'x':
				l.pos++
				for isHexDigit(l.peek()) {
					l.pos++
				}
				return l.numberToken()
			case 'b':
				l.pos++
				for l.peek() == '0' || l.peek() == '1' {
					l.pos++
				}
				return l.numberToken()
			}
		}
		for isDigit(l.peek()) {
			l.pos++
		}
		return l.numberToken()
	}

	if isAlpha(c) {
		for isAlnum(l.peek()) {
			l.pos++
		}
		// A lone 'b' followed by '.' absorbs the condition code, so
		// "b.eq" lexes as a single identifier.
		if l.pos-l.start == 1 && lower(l.src[l.start]) == 'b' && l.peek() == '.' && isAlpha(l.peekNext()) {
			l.pos++
			for isAlpha(l.peek()) {
				l.pos++
			}
		}
		return l.token(Identifier)
	}

	if c == '"' {
		return l.stringToken()
	}

	return l.errorToken("unexpected character")
}

// Peek returns the next token without advancing.
func (l *Lexer) Peek() Token {
	pos, start, line := l.pos, l.start, l.line
	t := l.Next()
	l.pos, l.start, l.line = pos, start, line
	return t
}

func (l *Lexer) numberToken() Token {
	t := l.token(Number)
	t.Value = parseNumber(t.Text)
	return t
}

func (l *Lexer) stringToken() Token {
	for !l.atEnd() && l.peek() != '"' {
		if l.peek() == '\n' {
			return l.errorToken("unterminated string")
		}
		if l.peek() == '\\' && l.pos+1 < len(l.src) {
			l.pos++
		}
		l.pos++
	}
	if l.atEnd() {
		return l.errorToken("unterminated string")
	}
	l.pos++ // closing quote
	return l.token(String)
}

// parseNumber converts a scanned literal. The lexer only admits valid
// digit runs, so no error path is needed.
func parseNumber(s string) int64 {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var v int64
	if len(s) > 2 && s[0] == '0' && lower(s[1]) == 'x' {
		for i := 2; i < len(s); i++ {
			c := lower(s[i])
			var d int64
			switch {
			case c >= '0' && c <= '9':
				d = int64(c - '0')
			default:
				d = int64(c-'a') + 10
			}
			v = v*16 + d
		}
	} else if len(s) > 2 && s[0] == '0' && lower(s[1]) == 'b' {
		for i := 2; i < len(s); i++ {
			v = v*2 + int64(s[i]-'0')
		}
	} else {
		for i := 0; i < len(s); i++ {
			v = v*10 + int64(s[i]-'0')
		}
	}
	if neg {
		return -v
	}
	return v
}
