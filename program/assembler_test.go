package program

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rv32ss/isa"
)

func parse(t *testing.T, program ...string) (prog *Program, err error) {
	asm := &Assembler{}
	prog, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	return
}

func words(prog *Program) (codes []uint32) {
	for _, word := range prog.Words() {
		codes = append(codes, word)
	}
	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Segments))
	assert.Equal(uint32(0), prog.Entry)

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("4", asm.Equate["INSTR_WIDTH"])
	assert.Equal("32", asm.Equate["REG_COUNT"])
}

func TestAssemblerWords(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(t,
		"; a word listing",
		".equ BASE 0x100",
		".org BASE",
		"_start:",
		"    $(addi(x1, x0, 5))      # x1 = 5",
		"loop: $(beq(zero, zero, loop - PC))",
		"    0xdeadbeef ~0 'A' '\\n' -1",
	)
	require.NoError(t, err)

	assert.Equal(uint32(0x100), prog.Entry)
	assert.Equal(map[string]uint32{"_start": 0x100, "loop": 0x104}, prog.Symbols)
	if assert.Equal(1, len(prog.Segments)) {
		assert.Equal(uint32(0x100), prog.Segments[0].Addr)
		assert.Equal(28, len(prog.Segments[0].Data))
	}

	expected := []uint32{
		uint32(isa.MakeI(isa.OP_ADDI, 1, 0, 5)),
		uint32(isa.MakeB(isa.OP_BEQ, 0, 0, 0)),
		0xdeadbeef, 0xffffffff, 'A', '\n', 0xffffffff,
	}
	if diff := cmp.Diff(expected, words(prog)); diff != "" {
		t.Errorf("words (-want +got):\n%s", diff)
	}
}

func TestAssemblerForward(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(t,
		".entry main",
		"data: 1 2 3",
		"main: $(lw(a0, 4, x0))",
		"      $(jal(zero, end - PC))",
		"      $(addi(a0, a0, 1))",
		"end:  $(ecall())",
		"      $(sw(a0, data + 8, zero))",
	)
	require.NoError(t, err)

	assert.Equal(uint32(12), prog.Entry)
	expected := []uint32{
		1, 2, 3,
		uint32(isa.MakeI(isa.OP_LW, isa.REG_A0, 0, 4)),
		uint32(isa.MakeJ(isa.OP_JAL, 0, 8)),
		uint32(isa.MakeI(isa.OP_ADDI, isa.REG_A0, isa.REG_A0, 1)),
		uint32(isa.MakeEcall()),
		uint32(isa.MakeS(isa.OP_SW, 0, isa.REG_A0, 8)),
	}
	assert.Equal(expected, words(prog))
}

func TestAssemblerEncoders(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(t,
		"$(add(x3, x1, x2)) $(and_(x3, x1, x2)) $(or_(x3, x1, x2))",
		"$(lui(x5, 0x12345)) $(auipc(x5, 1)) $(jalr(ra, 8, sp))",
		"$(slli(t0, t0, 3)) $(lbu(t1, -1, sp)) $(fence())",
	)
	require.NoError(t, err)

	expected := []uint32{
		uint32(isa.MakeR(isa.OP_ADD, 3, 1, 2)),
		uint32(isa.MakeR(isa.OP_AND, 3, 1, 2)),
		uint32(isa.MakeR(isa.OP_OR, 3, 1, 2)),
		uint32(isa.MakeU(isa.OP_LUI, 5, 0x12345)),
		uint32(isa.MakeU(isa.OP_AUIPC, 5, 1)),
		uint32(isa.MakeI(isa.OP_JALR, isa.REG_RA, isa.REG_SP, 8)),
		uint32(isa.MakeI(isa.OP_SLLI, 5, 5, 3)),
		uint32(isa.MakeI(isa.OP_LBU, 6, isa.REG_SP, -1)),
		uint32(isa.MakeFence()),
	}
	assert.Equal(expected, words(prog))

	for op := range isa.Ops() {
		_, ok := builtins[EncoderName(op)]
		assert.True(ok, op.String())
	}
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(t,
		".macro li rd value",
		"  $(lui(rd, (value >> 12) & 0xfffff))",
		"  $(addi(rd, rd, value & 0xfff))",
		".endm",
		".macro spin",
		"@top: $(jal(x0, @top - PC))",
		".endm",
		"start: li x5 0x12345678",
		"spin",
		"spin",
	)
	require.NoError(t, err)

	expected := []uint32{
		uint32(isa.MakeU(isa.OP_LUI, 5, 0x12345)),
		uint32(isa.MakeI(isa.OP_ADDI, 5, 5, 0x678)),
		uint32(isa.MakeJ(isa.OP_JAL, 0, 0)),
		uint32(isa.MakeJ(isa.OP_JAL, 0, 0)),
	}
	assert.Equal(expected, words(prog))
	assert.Equal(uint32(0), prog.Symbols["start"])
	assert.Equal(uint32(8), prog.Symbols["spin_2_top"])
	assert.Equal(uint32(12), prog.Symbols["spin_3_top"])
}

func TestAssemblerOrg(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(t,
		"1 2",
		".org 0x40",
		"3",
	)
	require.NoError(t, err)

	if assert.Equal(2, len(prog.Segments)) {
		assert.Equal(uint32(0), prog.Segments[0].Addr)
		assert.Equal(8, len(prog.Segments[0].Data))
		assert.Equal(uint32(0x40), prog.Segments[1].Addr)
		assert.Equal(4, len(prog.Segments[1].Data))
	}
	assert.Equal(12, prog.Size())

	dbg := prog.Debug(0x4)
	if assert.NotNil(dbg.Line) {
		assert.Equal(1, dbg.LineNo)
		assert.Equal(1, dbg.Index)
	}
	dbg = prog.Debug(0x40)
	if assert.NotNil(dbg.Line) {
		assert.Equal(3, dbg.LineNo)
	}
	dbg = prog.Debug(0x20)
	assert.Nil(dbg.Line)
}

func TestAssemblerErrors(t *testing.T) {
	table := [](struct {
		name    string
		program []string
		err     error
	}){
		{"label-duplicate", []string{"a: 1", "a: 2"}, ErrLabelDuplicate},
		{"equ-syntax", []string{".equ A"}, ErrEquateSyntax},
		{"equ-duplicate", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"org-align", []string{".org 2"}, ErrOrgAlign},
		{"org-backwards", []string{".org 8", "1", ".org 4"}, ErrOrgBackwards},
		{"entry-syntax", []string{".entry"}, ErrEntrySyntax},
		{"entry-missing", []string{".entry nowhere", "1"}, ErrEntrySyntax},
		{"directive", []string{".word 1"}, ErrDirective},
		{"macro-lonely", []string{".macro m", "1"}, ErrMacroLonely},
		{"macro-endm", []string{".endm"}, ErrMacroLonelyEndm},
		{"macro-nesting", []string{".macro a", ".macro b", ".endm"}, ErrMacroNesting},
		{"macro-duplicate", []string{".macro a", ".endm", ".macro a", ".endm"}, ErrMacroDuplicate},
		{"macro-args", []string{".macro a x", "x", ".endm", "a"}, ErrMacroSyntax},
		{"macro-recursion", []string{".macro a", "a", ".endm", "a"}, ErrMacroNesting},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := parse(t, entry.program...)
			assert.ErrorIs(err, entry.err)

			var syntax *ErrSyntax
			assert.True(errors.As(err, &syntax))
		})
	}
}

func TestAssemblerValueErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := parse(t, "1 nowhere")
	var missing ErrLabelMissing
	if assert.True(errors.As(err, &missing)) {
		assert.Equal(ErrLabelMissing("nowhere"), missing)
	}

	_, err = parse(t, "0x1ffffffff")
	var number ErrParseNumber
	assert.True(errors.As(err, &number))

	_, err = parse(t, "$(addi(x1, x0, 5000))")
	var expr ErrParseExpression
	assert.True(errors.As(err, &expr))

	_, err = parse(t, "$(addi(x40, x0, 1))")
	assert.True(errors.As(err, &expr))

	_, err = parse(t, `$("a")`)
	assert.True(errors.As(err, &expr))

	var syntax *ErrSyntax
	_, err = parse(t, "1", "2", "bad!")
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(3, syntax.LineNo)
	}
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("STACK", "0x8000")

	prog, err := asm.Parse(strings.NewReader("STACK $(STACK + LINENO)"))
	require.NoError(t, err)
	assert.Equal([]uint32{0x8000, 0x8001}, words(prog))
}
