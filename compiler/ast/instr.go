package ast

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	InstrKind uint8

	Instr struct {
		Kind InstrKind
		Arg  Value // Push only
		Pos  Pos
	}
)

// Instruction kinds accepted by the grammar.
// Only Push and StoreLong are lowered.
const (
	Push InstrKind = iota
	StoreLong
	GetLong
	StoreInt
	GetInt
	StoreByte
	GetByte
	Drop
	Sub
	Return
)

var instrNames = [...]string{
	Push:      "push",
	StoreLong: "!",
	GetLong:   "@",
	StoreInt:  "si",
	GetInt:    "gi",
	StoreByte: "sb",
	GetByte:   "gb",
	Drop:      "drop",
	Sub:       "-",
	Return:    "return",
}

func PushInstr(v Value) Instr { return Instr{Kind: Push, Arg: v} }

func (k InstrKind) String() string {
	if int(k) < len(instrNames) {
		return instrNames[k]
	}

	return "InstrKind(" + strconv.Itoa(int(k)) + ")"
}

// String renders the instruction the way it's written in source.
func (x Instr) String() string {
	if x.Kind == Push {
		return x.Arg.String()
	}

	return x.Kind.String()
}

func (x Instr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "%s", x.String())
}
