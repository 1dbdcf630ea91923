// Package asm is a small textual bytecode assembler: one mnemonic per
// line, label-based jumps, no expression or statement grammar. It exists
// purely to give tests and the CLI a way to hand the VM a *runtime.
// ObjFunction to run without a Lox lexer/parser/compiler, which are
// deliberately out of this module's scope. It is the textual encode
// direction of the artifact pkg/runtime/debug.go already decodes for
// humans during execution tracing.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kristofer/loxvm/pkg/runtime"
)

// Interner resolves a string to its canonical interned *runtime.
// ObjString. Every string-valued constant or name the assembler emits
// goes through it, because the VM's hash tables key on pointer identity:
// two different *ObjString with identical content are different keys
// unless they came from the same intern pool.
type Interner func(string) *runtime.ObjString

// Assemble parses source, a sequence of ".function" blocks, and returns
// the ObjFunction named "main" (or the sole function, if only one is
// defined). Functions referenced by a CLOSURE instruction as "$name"
// must be defined earlier in source than the block that references them.
func Assemble(source string, intern Interner) (*runtime.ObjFunction, error) {
	blocks, err := splitBlocks(source)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*runtime.ObjFunction, len(blocks))
	var last *runtime.ObjFunction

	for _, blk := range blocks {
		fn, err := assembleBlock(blk, intern, byName)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", blk.name, err)
		}
		byName[blk.name] = fn
		last = fn
	}

	if fn, ok := byName["main"]; ok {
		return fn, nil
	}
	if last == nil {
		return nil, fmt.Errorf("asm: no function defined")
	}
	return last, nil
}

type block struct {
	name         string
	arity        int
	upvalueCount int
	lines        []string
}

func splitBlocks(source string) ([]block, error) {
	var blocks []block
	var current *block

	for _, raw := range strings.Split(source, "\n") {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".function") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, fmt.Errorf("asm: .function requires a name")
			}
			b := block{name: fields[1]}
			if len(fields) > 2 {
				n, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, fmt.Errorf("asm: bad arity %q", fields[2])
				}
				b.arity = n
			}
			if len(fields) > 3 {
				n, err := strconv.Atoi(fields[3])
				if err != nil {
					return nil, fmt.Errorf("asm: bad upvalue count %q", fields[3])
				}
				b.upvalueCount = n
			}
			current = &b
			continue
		}

		if line == ".end" {
			if current == nil {
				return nil, fmt.Errorf("asm: .end without matching .function")
			}
			blocks = append(blocks, *current)
			current = nil
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("asm: instruction outside any .function block: %q", line)
		}
		current.lines = append(current.lines, line)
	}

	if current != nil {
		return nil, fmt.Errorf("asm: .function %s missing .end", current.name)
	}
	return blocks, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

type patch struct {
	offset int // index of the high byte of the 2-byte operand
	label  string
	isLoop bool
}

func assembleBlock(blk block, intern Interner, known map[string]*runtime.ObjFunction) (*runtime.ObjFunction, error) {
	fn := runtime.NewObjFunction()
	fn.Arity = blk.arity
	fn.UpvalueCount = blk.upvalueCount
	if blk.name != "main" && blk.name != "script" {
		fn.Name = intern(blk.name)
	}

	labels := make(map[string]int)
	var patches []patch

	for lineNo, raw := range blk.lines {
		if strings.HasSuffix(raw, ":") && !strings.Contains(raw, " ") {
			labels[strings.TrimSuffix(raw, ":")] = len(fn.Chunk.Code)
			continue
		}

		fields := strings.Fields(raw)
		op := strings.ToUpper(fields[0])
		args := fields[1:]
		line := lineNo + 1

		if err := emit(&fn.Chunk, op, args, line, intern, known, labels, &patches); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	for _, p := range patches {
		target, ok := labels[p.label]
		if !ok {
			return nil, fmt.Errorf("undefined label %q", p.label)
		}
		var jump int
		if p.isLoop {
			jump = p.offset + 2 - target
		} else {
			jump = target - (p.offset + 2)
		}
		if jump < 0 || jump > 0xFFFF {
			return nil, fmt.Errorf("jump to %q out of range", p.label)
		}
		fn.Chunk.Code[p.offset] = byte(jump >> 8)
		fn.Chunk.Code[p.offset+1] = byte(jump & 0xFF)
	}

	return fn, nil
}

func emit(chunk *runtime.Chunk, op string, args []string, line int, intern Interner,
	known map[string]*runtime.ObjFunction, labels map[string]int, patches *[]patch) error {

	writeByte := func(b byte) { chunk.Write(b, line) }
	writeOp := func(o runtime.OpCode) { chunk.WriteOp(o, line) }

	constIndex := func(v runtime.Value) (byte, error) {
		idx := chunk.AddConstant(v)
		if idx > 255 {
			return 0, fmt.Errorf("constant pool overflow")
		}
		return byte(idx), nil
	}

	nameArg := func() (*runtime.ObjString, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%s requires a name argument", op)
		}
		return intern(unquote(args[0])), nil
	}

	byteArg := func(i int) (byte, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%s missing numeric argument", op)
		}
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, fmt.Errorf("%s: bad numeric argument %q", op, args[i])
		}
		return byte(n), nil
	}

	switch op {
	case "CONSTANT":
		if len(args) < 1 {
			return fmt.Errorf("CONSTANT requires a value")
		}
		v, err := parseConstant(args[0], intern, known)
		if err != nil {
			return err
		}
		idx, err := constIndex(v)
		if err != nil {
			return err
		}
		writeOp(runtime.OpConstant)
		writeByte(idx)

	case "NIL":
		writeOp(runtime.OpNil)
	case "TRUE":
		writeOp(runtime.OpTrue)
	case "FALSE":
		writeOp(runtime.OpFalse)
	case "POP":
		writeOp(runtime.OpPop)
	case "EQUAL":
		writeOp(runtime.OpEqual)
	case "GREATER":
		writeOp(runtime.OpGreater)
	case "LESS":
		writeOp(runtime.OpLess)
	case "ADD":
		writeOp(runtime.OpAdd)
	case "SUBTRACT":
		writeOp(runtime.OpSubtract)
	case "MULTIPLY":
		writeOp(runtime.OpMultiply)
	case "DIVIDE":
		writeOp(runtime.OpDivide)
	case "NOT":
		writeOp(runtime.OpNot)
	case "NEGATE":
		writeOp(runtime.OpNegate)
	case "PRINT":
		writeOp(runtime.OpPrint)
	case "CLOSE_UPVALUE":
		writeOp(runtime.OpCloseUpvalue)
	case "RETURN":
		writeOp(runtime.OpReturn)
	case "INHERIT":
		writeOp(runtime.OpInherit)

	case "GET_LOCAL", "SET_LOCAL", "GET_UPVALUE", "SET_UPVALUE", "CALL":
		b, err := byteArg(0)
		if err != nil {
			return err
		}
		ops := map[string]runtime.OpCode{
			"GET_LOCAL": runtime.OpGetLocal, "SET_LOCAL": runtime.OpSetLocal,
			"GET_UPVALUE": runtime.OpGetUpvalue, "SET_UPVALUE": runtime.OpSetUpvalue,
			"CALL": runtime.OpCall,
		}
		writeOp(ops[op])
		writeByte(b)

	case "GET_GLOBAL", "DEFINE_GLOBAL", "SET_GLOBAL", "GET_PROPERTY", "SET_PROPERTY", "GET_SUPER", "CLASS", "METHOD":
		name, err := nameArg()
		if err != nil {
			return err
		}
		idx, err := constIndex(runtime.ObjVal(name))
		if err != nil {
			return err
		}
		ops := map[string]runtime.OpCode{
			"GET_GLOBAL": runtime.OpGetGlobal, "DEFINE_GLOBAL": runtime.OpDefineGlobal,
			"SET_GLOBAL": runtime.OpSetGlobal, "GET_PROPERTY": runtime.OpGetProperty,
			"SET_PROPERTY": runtime.OpSetProperty, "GET_SUPER": runtime.OpGetSuper,
			"CLASS": runtime.OpClass, "METHOD": runtime.OpMethod,
		}
		writeOp(ops[op])
		writeByte(idx)

	case "INVOKE", "SUPER_INVOKE":
		name, err := nameArg()
		if err != nil {
			return err
		}
		idx, err := constIndex(runtime.ObjVal(name))
		if err != nil {
			return err
		}
		argCount, err := byteArg(1)
		if err != nil {
			return err
		}
		if op == "INVOKE" {
			writeOp(runtime.OpInvoke)
		} else {
			writeOp(runtime.OpSuperInvoke)
		}
		writeByte(idx)
		writeByte(argCount)

	case "JUMP", "JUMP_IF_FALSE", "LOOP":
		if len(args) < 1 {
			return fmt.Errorf("%s requires a label", op)
		}
		switch op {
		case "JUMP":
			writeOp(runtime.OpJump)
		case "JUMP_IF_FALSE":
			writeOp(runtime.OpJumpIfFalse)
		case "LOOP":
			writeOp(runtime.OpLoop)
		}
		*patches = append(*patches, patch{offset: len(chunk.Code), label: args[0], isLoop: op == "LOOP"})
		writeByte(0)
		writeByte(0)

	case "CLOSURE":
		if len(args) < 1 {
			return fmt.Errorf("CLOSURE requires a $function argument")
		}
		target, ok := known[strings.TrimPrefix(args[0], "$")]
		if !ok {
			return fmt.Errorf("CLOSURE: unknown function %q (must be defined earlier)", args[0])
		}
		idx, err := constIndex(runtime.ObjVal(target))
		if err != nil {
			return err
		}
		writeOp(runtime.OpClosure)
		writeByte(idx)
		for _, desc := range args[1:] {
			parts := strings.SplitN(desc, ":", 2)
			if len(parts) != 2 {
				return fmt.Errorf("CLOSURE: bad upvalue descriptor %q", desc)
			}
			index, err := strconv.Atoi(parts[1])
			if err != nil {
				return fmt.Errorf("CLOSURE: bad upvalue index in %q", desc)
			}
			switch parts[0] {
			case "local":
				writeByte(1)
			case "upvalue":
				writeByte(0)
			default:
				return fmt.Errorf("CLOSURE: unknown upvalue kind %q", parts[0])
			}
			writeByte(byte(index))
		}

	default:
		return fmt.Errorf("unknown mnemonic %q", op)
	}

	return nil
}

func parseConstant(tok string, intern Interner, known map[string]*runtime.ObjFunction) (runtime.Value, error) {
	switch {
	case tok == "true":
		return runtime.BoolVal(true), nil
	case tok == "false":
		return runtime.BoolVal(false), nil
	case strings.HasPrefix(tok, "\""):
		return runtime.ObjVal(intern(unquote(tok))), nil
	case strings.HasPrefix(tok, "$"):
		fn, ok := known[strings.TrimPrefix(tok, "$")]
		if !ok {
			return runtime.Value{}, fmt.Errorf("unknown function constant %q", tok)
		}
		return runtime.ObjVal(fn), nil
	default:
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return runtime.Value{}, fmt.Errorf("bad constant %q", tok)
		}
		return runtime.NumberVal(n), nil
	}
}

func unquote(tok string) string {
	return strings.Trim(tok, "\"")
}
