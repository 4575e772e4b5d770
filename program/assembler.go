// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package program

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rv32ss/isa"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"INSTR_WIDTH": fmt.Sprintf("%#v", isa.INSTR_WIDTH),
	"REG_COUNT":   fmt.Sprintf("%#v", isa.REG_COUNT),
}

// Maximum depth of macros expanding macros.
const MACRO_DEPTH = 16

// Assembler is a two pass assembler for RV32 word listings.
//
// Each token of a line is one 32-bit word: an integer, a character
// literal, an equate, a label, or a $(...) starlark expression. Expressions
// can call one encoder per instruction, such as addi(rd, rs1, imm) or
// sw(rs2, offset, rs1), and see PC as the address of their word.
type Assembler struct {
	Verbose bool               // If set, verbosely logs the assembler actions.
	Log     logrus.FieldLogger // Logger for verbose output. Nil is the standard logger.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	lines      []Line
	addr       uint32   // Address of the next word.
	pc         uint32   // Address of the word being evaluated.
	exprs      []string // $(...) expressions of the current line.
	entry      string
	final      bool
	expansions int
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

func (asm *Assembler) log() logrus.FieldLogger {
	if asm.Log == nil {
		return logrus.StandardLogger()
	}
	return asm.Log
}

var (
	reChar    = regexp.MustCompile(`'\\?[^']'`)
	reExpr    = regexp.MustCompile(`\$\([^\$]*\)`)
	reExprRef = regexp.MustCompile(`^\$([0-9]+)$`)
	reExprTok = regexp.MustCompile(`\$([0-9]+)`)
	reSymbol  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
		if len(word) == 0 {
			err = ErrParseNumber("~")
			return
		}
	}

	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	if match := reExprRef.FindStringSubmatch(word); match != nil {
		n, _ := strconv.Atoi(match[1])
		if n >= len(asm.exprs) {
			err = ErrParseExpression(word)
			return
		}
		value, err = asm.parenEval(asm.exprs[n])
	} else if equate, ok := asm.Equate[word]; ok {
		value, err = asm.valueOf(equate)
	} else if addr, ok := asm.Label[word]; ok {
		value = addr
	} else if reSymbol.MatchString(word) {
		err = ErrLabelMissing(word)
	} else {
		var v64 int64
		v64, err = strconv.ParseInt(word, 0, 34)
		if err != nil || v64 > 0xffffffff || v64 < -int64(0x80000000) {
			err = ErrParseNumber(word)
			return
		}
		value = uint32(v64)
	}
	if err != nil {
		return
	}

	if invert {
		value = ^value
	}

	return
}

// Operand orders of the starlark encoders.
type encoderShape int

const (
	SHAPE_NONE  = encoderShape(0) // ecall()
	SHAPE_R     = encoderShape(1) // add(rd, rs1, rs2)
	SHAPE_I     = encoderShape(2) // addi(rd, rs1, imm)
	SHAPE_LOAD  = encoderShape(3) // lw(rd, offset, rs1)
	SHAPE_STORE = encoderShape(4) // sw(rs2, offset, rs1)
	SHAPE_B     = encoderShape(5) // beq(rs1, rs2, offset)
	SHAPE_U     = encoderShape(6) // lui(rd, imm20)
	SHAPE_J     = encoderShape(7) // jal(rd, offset)
)

func shapeOf(op isa.Op) (shape encoderShape) {
	switch op.Format() {
	case isa.FORMAT_R:
		shape = SHAPE_R
	case isa.FORMAT_I:
		shape = SHAPE_I
		in, _ := isa.Make(op, 0, 0, 0, 0)
		if in.Opcode() == isa.OPCODE_LOAD || op == isa.OP_JALR {
			shape = SHAPE_LOAD
		}
	case isa.FORMAT_S:
		shape = SHAPE_STORE
	case isa.FORMAT_B:
		shape = SHAPE_B
	case isa.FORMAT_U:
		shape = SHAPE_U
	case isa.FORMAT_J:
		shape = SHAPE_J
	}
	return
}

// EncoderName returns the starlark name of the encoder for op. Mnemonics
// that are starlark keywords get a trailing underscore.
func EncoderName(op isa.Op) string {
	name := op.String()
	switch name {
	case "and", "or":
		name += "_"
	}
	return name
}

func checkRegister(regs ...int) (err error) {
	for _, reg := range regs {
		if reg < 0 || reg >= isa.REG_COUNT {
			err = isa.ErrRegister
			return
		}
	}
	return
}

func encoder(op isa.Op) *starlark.Builtin {
	shape := shapeOf(op)
	return starlark.NewBuiltin(EncoderName(op), func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
		var rd, rs1, rs2, imm int
		name := fn.Name()
		switch shape {
		case SHAPE_NONE:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 0)
		case SHAPE_R:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 3, &rd, &rs1, &rs2)
		case SHAPE_I:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 3, &rd, &rs1, &imm)
		case SHAPE_LOAD:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 3, &rd, &imm, &rs1)
		case SHAPE_STORE:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 3, &rs2, &imm, &rs1)
		case SHAPE_B:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 3, &rs1, &rs2, &imm)
		case SHAPE_U, SHAPE_J:
			err = starlark.UnpackPositionalArgs(name, args, kwargs, 2, &rd, &imm)
		}
		if err != nil {
			return
		}

		err = checkRegister(rd, rs1, rs2)
		if err != nil {
			err = &isa.ErrEncode{Op: op, Err: err}
			return
		}

		in, err := isa.Make(op, uint8(rd), uint8(rs1), uint8(rs2), int32(imm))
		if err != nil {
			return
		}

		value = starlark.MakeUint64(uint64(in))
		return
	})
}

// Register names and instruction encoders visible to every expression.
var builtins starlark.StringDict

func init() {
	builtins = starlark.StringDict{}
	for name, index := range isa.Registers() {
		builtins[name] = starlark.MakeInt(int(index))
	}
	for op := range isa.Ops() {
		builtins[EncoderName(op)] = encoder(op)
	}
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := maps.Clone(builtins)
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeUint64(uint64(addr))
	}
	pred["PC"] = starlark.MakeUint64(uint64(asm.pc))

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// charEval replaces character literals with their values.
func charEval(line string) string {
	return reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})
}

// source is a line after macro expansion.
type source struct {
	lineNo int
	text   string

	macro     string // Macro the line was expanded from, if any.
	macroLine int
}

// stripComment removes ';' and '#' comments.
func stripComment(text string) string {
	if n := strings.IndexAny(text, ";#"); n >= 0 {
		text = text[:n]
	}
	return strings.TrimSpace(text)
}

// expand appends the line to out, expanding any macro invocation.
func (asm *Assembler) expand(out []source, src source, depth int) (result []source, err error) {
	result = out

	words := strings.Fields(src.text)
	n := 0
	for n < len(words) && strings.HasSuffix(words[n], ":") {
		n++
	}
	if n == len(words) {
		result = append(result, src)
		return
	}

	macro, ok := asm.Macro[words[n]]
	if !ok {
		result = append(result, src)
		return
	}

	name := words[n]
	if depth >= MACRO_DEPTH {
		err = &ErrMacro{Macro: name, Line: macro.LineNo, Err: ErrMacroNesting}
		return
	}

	args := words[n+1:]
	if len(args) != len(macro.Args) {
		err = &ErrMacro{Macro: name, Line: macro.LineNo, Err: ErrMacroSyntax}
		return
	}

	if n > 0 {
		// Labels before the invocation.
		result = append(result, source{
			lineNo:    src.lineNo,
			text:      strings.Join(words[:n], " "),
			macro:     src.macro,
			macroLine: src.macroLine,
		})
	}

	asm.expansions++
	local := fmt.Sprintf("%v_%v_", name, asm.expansions)
	for i, text := range macro.Lines {
		text = strings.ReplaceAll(text, "@", local)
		for a, arg := range macro.Args {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(arg) + `\b`)
			text = re.ReplaceAllLiteralString(text, args[a])
		}
		result, err = asm.expand(result, source{
			lineNo:    src.lineNo,
			text:      text,
			macro:     name,
			macroLine: macro.LineNo + i,
		}, depth+1)
		if err != nil {
			return
		}
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			var syntaxErr *ErrSyntax
			if !errors.As(err, &syntaxErr) {
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			}
		}
	}()

	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.expansions = 0

	var sources []source
	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1
		line = stripComment(text)

		if asm.Verbose {
			asm.log().WithField("line", lineno).Debug(text)
		}

		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		if len(words) == 0 {
			continue
		}

		sources, err = asm.expand(sources, source{lineNo: lineno, text: line}, 0)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Pass one places the labels, pass two evaluates the words.
	asm.Label = make(map[string]uint32)
	for _, final := range []bool{false, true} {
		asm.final = final
		err = asm.pass(sources)
		if err != nil {
			return
		}
	}

	prog, err = asm.link()

	return
}

func (asm *Assembler) pass(sources []source) (err error) {
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.lines = nil
	asm.addr = 0
	asm.entry = ""

	for _, src := range sources {
		err = asm.parseLine(src)
		if err != nil {
			if src.macro != "" {
				err = &ErrMacro{Macro: src.macro, Line: src.macroLine, Err: err}
			}
			err = &ErrSyntax{LineNo: src.lineNo, Line: src.text, Err: err}
			return
		}
	}

	return
}

// parseLine places or evaluates a single line.
func (asm *Assembler) parseLine(src source) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", src.lineNo)

	line := charEval(src.text)

	// Collect $() expressions; they may contain spaces.
	asm.exprs = asm.exprs[:0]
	line = reExpr.ReplaceAllStringFunc(line, func(str string) string {
		asm.exprs = append(asm.exprs, str[2:len(str)-1])
		return fmt.Sprintf("$%d", len(asm.exprs)-1)
	})

	words := strings.Fields(line)
	asm.pc = asm.addr

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !asm.final {
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = asm.addr
		}
		words = words[1:]
	}

	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".equ":
		// .equ CONST VALUE
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		var value uint32
		value, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		asm.Equate[words[1]] = fmt.Sprintf("%#x", value)
	case ".org":
		// .org ADDRESS
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var value uint32
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value%isa.INSTR_WIDTH != 0 {
			err = ErrOrgAlign
			return
		}
		if len(asm.lines) > 0 && value < asm.addr {
			err = ErrOrgBackwards
			return
		}
		asm.addr = value
	case ".entry":
		// .entry LABEL
		if len(words) != 2 {
			err = ErrEntrySyntax
			return
		}
		asm.entry = words[1]
	default:
		if strings.HasPrefix(words[0], ".") {
			err = ErrDirective
			return
		}

		codes := make([]uint32, len(words))
		if asm.final {
			for n, word := range words {
				asm.pc = asm.addr + uint32(n)*isa.INSTR_WIDTH
				codes[n], err = asm.valueOf(word)
				if err != nil {
					return
				}
			}
		}

		// Restore the expression text for the listing.
		exprs := asm.exprs
		for n, word := range words {
			words[n] = reExprTok.ReplaceAllStringFunc(word, func(ref string) string {
				index, _ := strconv.Atoi(ref[1:])
				return "$(" + exprs[index] + ")"
			})
		}

		asm.lines = append(asm.lines, Line{
			LineNo: src.lineNo,
			Addr:   asm.addr,
			Words:  words,
			Codes:  codes,
		})
		asm.addr += uint32(len(words)) * isa.INSTR_WIDTH
	}

	return
}

// link builds the program from the evaluated lines.
func (asm *Assembler) link() (prog *Program, err error) {
	prog = &Program{
		Symbols: maps.Clone(asm.Label),
		Listing: asm.lines,
	}

	for _, line := range asm.lines {
		var seg *Segment
		if len(prog.Segments) > 0 {
			last := &prog.Segments[len(prog.Segments)-1]
			if last.Addr+uint32(len(last.Data)) == line.Addr {
				seg = last
			}
		}
		if seg == nil {
			prog.Segments = append(prog.Segments, Segment{Addr: line.Addr})
			seg = &prog.Segments[len(prog.Segments)-1]
		}
		for _, code := range line.Codes {
			seg.Data = binary.LittleEndian.AppendUint32(seg.Data, code)
		}
	}

	switch {
	case asm.entry != "":
		prog.Entry, err = asm.valueOf(asm.entry)
		if err != nil {
			err = errors.Join(ErrEntrySyntax, err)
			prog = nil
			return
		}
	case len(asm.lines) > 0:
		start, ok := asm.Label["_start"]
		if !ok {
			start = asm.lines[0].Addr
		}
		prog.Entry = start
	}

	return
}
