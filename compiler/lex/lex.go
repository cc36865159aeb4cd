package lex

import (
	"bytes"
	"fmt"

	"github.com/limnarch-extra/seadragon/compiler/ast"
)

type (
	Kind uint8

	Token struct {
		Kind Kind
		Text string
		Pos  ast.Pos
	}

	// Lexer splits source text into tokens.
	Lexer struct {
		name string
		b    []byte

		i   int
		pos ast.Pos
	}

	// Error is an unrecognized input character.
	Error struct {
		File string
		Pos  ast.Pos
		Char byte
	}
)

const (
	EOF Kind = iota

	Sub   // -
	Add   // +
	Div   // /
	Mul   // *
	Gt    // >
	Lt    // <
	DDash // --

	LParen
	RParen
	LBrace
	RBrace

	StoreLong // !
	GetLong   // @
	StoreInt  // si
	GetInt    // gi
	StoreByte // sb
	GetByte   // gb

	Integer
	Ident

	Fn
	End
	If
	Return
	While
	Buffer
	Var
	Auto
	Drop
)

var kindNames = [...]string{
	EOF:       "EOF",
	Sub:       "-",
	Add:       "+",
	Div:       "/",
	Mul:       "*",
	Gt:        ">",
	Lt:        "<",
	DDash:     "--",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	StoreLong: "!",
	GetLong:   "@",
	StoreInt:  "si",
	GetInt:    "gi",
	StoreByte: "sb",
	GetByte:   "gb",
	Integer:   "integer",
	Ident:     "identifier",
	Fn:        "fn",
	End:       "end",
	If:        "if",
	Return:    "return",
	While:     "while",
	Buffer:    "buffer",
	Var:       "var",
	Auto:      "auto",
	Drop:      "drop",
}

var keywords = map[string]Kind{
	"fn":     Fn,
	"end":    End,
	"if":     If,
	"return": Return,
	"while":  While,
	"buffer": Buffer,
	"var":    Var,
	"auto":   Auto,
	"drop":   Drop,
	"si":     StoreInt,
	"gi":     GetInt,
	"sb":     StoreByte,
	"gb":     GetByte,
}

// New prepares text for lexing: line endings are normalized to LF,
// a UTF-8 BOM and leading shebang lines are skipped.
func New(name string, text []byte) *Lexer {
	b := bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))

	l := &Lexer{
		name: name,
		b:    b,
		pos:  ast.Pos{Line: 1, Col: 1},
	}

	if bytes.HasPrefix(b, []byte("\xEF\xBB\xBF")) {
		l.i = 3
	}

	for bytes.HasPrefix(l.b[l.i:], []byte("#!")) {
		for l.i < len(l.b) && l.b[l.i] != '\n' {
			l.advance(1)
		}

		l.advance(1)
	}

	return l
}

// All returns all the tokens up to, not including, EOF.
func All(name string, text []byte) (ts []Token, err error) {
	l := New(name, text)

	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}

		if t.Kind == EOF {
			return ts, nil
		}

		ts = append(ts, t)
	}
}

func (l *Lexer) Next() (t Token, err error) {
	l.skipSpaces()

	t.Pos = l.pos

	if l.i == len(l.b) {
		t.Kind = EOF
		return t, nil
	}

	st := l.i
	c := l.b[l.i]

	switch {
	case c == '-':
		if l.i+1 < len(l.b) && l.b[l.i+1] == '-' {
			return l.token(DDash, st, 2), nil
		}

		return l.token(Sub, st, 1), nil
	case c == '+':
		return l.token(Add, st, 1), nil
	case c == '/':
		return l.token(Div, st, 1), nil
	case c == '*':
		return l.token(Mul, st, 1), nil
	case c == '>':
		return l.token(Gt, st, 1), nil
	case c == '<':
		return l.token(Lt, st, 1), nil
	case c == '(':
		return l.token(LParen, st, 1), nil
	case c == ')':
		return l.token(RParen, st, 1), nil
	case c == '{':
		return l.token(LBrace, st, 1), nil
	case c == '}':
		return l.token(RBrace, st, 1), nil
	case c == '!':
		return l.token(StoreLong, st, 1), nil
	case c == '@':
		return l.token(GetLong, st, 1), nil
	case isDigit(c):
		n := 1
		for l.i+n < len(l.b) && isDigit(l.b[l.i+n]) {
			n++
		}

		return l.token(Integer, st, n), nil
	case isLetter(c):
		n := 1
		for l.i+n < len(l.b) && (isLetter(l.b[l.i+n]) || isDigit(l.b[l.i+n])) {
			n++
		}

		t = l.token(Ident, st, n)

		if k, ok := keywords[t.Text]; ok {
			t.Kind = k
		}

		return t, nil
	}

	return t, &Error{File: l.name, Pos: l.pos, Char: c}
}

func (l *Lexer) token(k Kind, st, n int) Token {
	t := Token{
		Kind: k,
		Text: string(l.b[st : st+n]),
		Pos:  l.pos,
	}

	l.advance(n)

	return t
}

func (l *Lexer) advance(n int) {
	for ; n > 0 && l.i < len(l.b); n-- {
		if l.b[l.i] == '\n' {
			l.pos.Line++
			l.pos.Col = 1
		} else {
			l.pos.Col++
		}

		l.i++
	}
}

func (l *Lexer) skipSpaces() {
	for l.i < len(l.b) {
		switch l.b[l.i] {
		case ' ', '\t', '\n':
			l.advance(1)
			continue
		}

		break
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

func (t Token) String() string {
	switch t.Kind {
	case Integer, Ident:
		return fmt.Sprintf("%v %q", t.Kind, t.Text)
	default:
		return fmt.Sprintf("%q", t.Kind.String())
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%v: unrecognized character %q", e.File, e.Pos, e.Char)
}
