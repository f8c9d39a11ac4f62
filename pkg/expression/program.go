package expression

import (
	"strconv"
	"strings"
)

// Op is a postfix instruction opcode.
type Op uint8

// Opcodes. Binary operators pop the right operand first.
const (
	OpPush Op = iota // push Value
	OpVar            // push the independent variable
	OpNeg            // negate the top of stack
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpCall // pop Argc values, push Name(args...)
)

var opNames = [...]string{
	OpPush: "push",
	OpVar:  "var",
	OpNeg:  "neg",
	OpAdd:  "add",
	OpSub:  "sub",
	OpMul:  "mul",
	OpDiv:  "div",
	OpPow:  "pow",
	OpCall: "call",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Instruction is one step of a compiled program.
type Instruction struct {
	Op    Op
	Value float64 // OpPush
	Name  string  // OpCall
	Argc  int     // OpCall
	Pos   int     // 1-based source column
}

func (in Instruction) String() string {
	switch in.Op {
	case OpPush:
		return "push " + strconv.FormatFloat(in.Value, 'g', -1, 64)
	case OpCall:
		return "call " + in.Name + "/" + strconv.Itoa(in.Argc)
	default:
		return in.Op.String()
	}
}

// Program is a postfix instruction sequence.
type Program []Instruction

// String renders the program on one line, e.g. "push 2 var mul".
func (p Program) String() string {
	parts := make([]string, len(p))
	for i, in := range p {
		parts[i] = in.String()
	}
	return strings.Join(parts, " ")
}

// Calls returns the distinct function names referenced by the program,
// in order of first appearance.
func (p Program) Calls() []string {
	var names []string
	seen := make(map[string]bool)
	for _, in := range p {
		if in.Op == OpCall && !seen[in.Name] {
			seen[in.Name] = true
			names = append(names, in.Name)
		}
	}
	return names
}
