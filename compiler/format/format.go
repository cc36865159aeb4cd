package format

import (
	"context"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/limnarch-extra/seadragon/compiler/ast"
)

// Format appends the source-like rendering of x to b.
// Lowered functions show their tree instead of instructions.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.File:
		return formatFile(ctx, b, x, d)
	case *ast.Func:
		return formatFunc(ctx, b, x, d)
	case *ast.Node:
		return app(b, d, "%v\n", x), nil
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatFile(ctx context.Context, b []byte, x *ast.File, d int) (_ []byte, err error) {
	for _, s := range x.Structures {
		b = app(b, d, "# struct %v\n", s.Name)
	}

	for _, c := range x.Constants {
		b = app(b, d, "# const %v = %v\n", c.Name, c.Value)
	}

	for i, f := range x.Funcs {
		if i != 0 || len(x.Structures) != 0 || len(x.Constants) != 0 {
			b = append(b, '\n')
		}

		b, err = formatFunc(ctx, b, f, d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, x *ast.Func, d int) ([]byte, error) {
	b = app(b, d, "fn %v { ", x.Name)

	for _, in := range x.Inputs {
		b = app(b, 0, "%v ", in)
	}

	b = append(b, "--"...)

	for _, out := range x.Outputs {
		b = app(b, 0, " %v", out)
	}

	b = append(b, " }\n"...)

	for _, l := range x.Locals {
		b = app(b, d+1, "auto %v\n", l)
	}

	switch {
	case x.Lowered():
		b = app(b, d+1, "%v\n", x.Tree)
	case len(x.Code) != 0:
		b = formatCode(b, x.Code, d+1)
	}

	b = app(b, d, "end\n")

	return b, nil
}

func formatCode(b []byte, code []ast.Instr, d int) []byte {
	var s strings.Builder

	for i, x := range code {
		if i != 0 {
			s.WriteByte(' ')
		}

		s.WriteString(x.String())
	}

	return app(b, d, "%s\n", s.String())
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
