package parse

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler/ast"
	"github.com/limnarch-extra/seadragon/compiler/lex"
)

type (
	parser struct {
		name string
		ts   []lex.Token
		i    int
	}

	// Error is a malformed function header or an unexpected token.
	Error struct {
		File string
		Pos  ast.Pos
		Msg  string
	}
)

var instrs = map[lex.Kind]ast.InstrKind{
	lex.StoreLong: ast.StoreLong,
	lex.GetLong:   ast.GetLong,
	lex.StoreInt:  ast.StoreInt,
	lex.GetInt:    ast.GetInt,
	lex.StoreByte: ast.StoreByte,
	lex.GetByte:   ast.GetByte,
	lex.Drop:      ast.Drop,
	lex.Sub:       ast.Sub,
	lex.Return:    ast.Return,
}

func ParseFile(ctx context.Context, name string) (*ast.File, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, text)
}

// Parse builds a compilation unit whose functions hold instruction lists.
//
//	fn NAME { -- OUT* } [auto NAME]* INSTRUCTION* end
func Parse(ctx context.Context, name string, text []byte) (f *ast.File, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	ts, err := lex.All(name, text)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	if tr.If("dump_tokens") {
		for i, t := range ts {
			tr.Printw("token", "i", i, "pos", t.Pos, "token", t)
		}
	}

	p := &parser{
		name: name,
		ts:   ts,
	}

	f = &ast.File{Name: name}

	for !p.eof() {
		fn, err := p.parseFunc()
		if err != nil {
			return nil, err
		}

		tr.V("parse").Printw("func", "name", fn.Name, "out", fn.Outputs, "autos", fn.Locals, "code", len(fn.Code))

		f.Funcs = append(f.Funcs, fn)
	}

	return f, nil
}

func (p *parser) parseFunc() (fn *ast.Func, err error) {
	t := p.next()
	if t.Kind != lex.Fn {
		return nil, p.errorf(t, "unexpected %v, expected fn", t)
	}

	fn = &ast.Func{Pos: t.Pos}

	t = p.next()
	if t.Kind != lex.Ident {
		return nil, p.errorf(t, "expected identifier after fn, got %v", t)
	}

	fn.Name = t.Text

	err = p.parseHeader(fn)
	if err != nil {
		return nil, err
	}

	for {
		t = p.next()

		switch t.Kind {
		case lex.End:
			return fn, nil
		case lex.EOF:
			return nil, p.errorf(t, "unexpected EOF in function %v, expected end", fn.Name)
		case lex.Auto:
			t = p.next()
			if t.Kind != lex.Ident {
				return nil, p.errorf(t, "expected identifier after auto, got %v", t)
			}

			fn.Locals = append(fn.Locals, t.Text)
		case lex.Integer:
			v, err := strconv.ParseUint(t.Text, 10, 32)
			if err != nil {
				return nil, p.errorf(t, "integer literal %s does not fit into 32 bits", t.Text)
			}

			fn.Code = append(fn.Code, ast.Instr{Kind: ast.Push, Arg: ast.Lit(uint32(v)), Pos: t.Pos})
		case lex.Ident:
			fn.Code = append(fn.Code, ast.Instr{Kind: ast.Push, Arg: ast.Ident(t.Text), Pos: t.Pos})
		default:
			k, ok := instrs[t.Kind]
			if !ok {
				return nil, p.errorf(t, "unsupported token %v in function %v", t, fn.Name)
			}

			fn.Code = append(fn.Code, ast.Instr{Kind: k, Pos: t.Pos})
		}
	}
}

// parseHeader parses { -- OUT* }.
func (p *parser) parseHeader(fn *ast.Func) error {
	t := p.next()
	if t.Kind != lex.LBrace {
		return p.errorf(t, "expected { in function declaration, got %v", t)
	}

	t = p.next()
	if t.Kind == lex.Ident {
		return p.errorf(t, "function inputs are not supported")
	}

	if t.Kind != lex.DDash {
		return p.errorf(t, "expected -- in function declaration, got %v", t)
	}

	for {
		t = p.next()

		switch t.Kind {
		case lex.RBrace:
			return nil
		case lex.Ident:
			fn.Outputs = append(fn.Outputs, t.Text)
		default:
			return p.errorf(t, "expected identifier for output name, got %v", t)
		}
	}
}

func (p *parser) next() lex.Token {
	if p.eof() {
		var pos ast.Pos

		if l := len(p.ts); l != 0 {
			pos = p.ts[l-1].Pos
		}

		return lex.Token{Kind: lex.EOF, Pos: pos}
	}

	t := p.ts[p.i]
	p.i++

	return t
}

func (p *parser) eof() bool { return p.i == len(p.ts) }

func (p *parser) errorf(t lex.Token, format string, args ...any) *Error {
	return &Error{
		File: p.name,
		Pos:  t.Pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%v: %s", e.File, e.Pos, e.Msg)
}
