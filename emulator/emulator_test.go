package emulator

import (
	"bytes"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rv32ss/config"
	"github.com/ezrec/rv32ss/core"
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/program"
	"github.com/ezrec/rv32ss/storage"
)

func testMachine() config.Machine {
	machine := config.Default()
	machine.MemorySize = 0x10000
	machine.StackPointer = 0xfff0
	machine.GlobalPointer = 0x8000
	machine.History = 4
	return machine
}

func newTestEmulator(t *testing.T, input string, program ...string) (emu *Emulator, output *bytes.Buffer) {
	emu, err := NewEmulator(testMachine())
	require.NoError(t, err)

	output = &bytes.Buffer{}
	emu.Input = strings.NewReader(input)
	emu.Output = output

	require.NoError(t, emu.Load(assemble(t, emu, program...)))
	return
}

func assemble(t *testing.T, emu *Emulator, lines ...string) *program.Program {
	asm := &program.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return prog
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(testMachine())
	require.NoError(t, err)

	assert.False(emu.Verbose)
	assert.Equal(uint32(0xfff0), emu.Register(isa.REG_SP))
	assert.Equal(uint32(0x8000), emu.Register(isa.REG_GP))
	assert.Equal(core.STATE_RUNNING, emu.State())

	defines := maps.Collect(emu.Defines())
	assert.Equal("10", defines["SYS_EXIT"])
	assert.Equal("93", defines["SYS_EXIT_CODE"])
	assert.Equal("0xfff0", defines["STACK_POINTER"])
	assert.Equal("0x10000", defines["MEMORY_SIZE"])

	machine := testMachine()
	machine.StackPointer = 0x20000
	_, err = NewEmulator(machine)
	assert.ErrorIs(err, config.ErrStack)
}

func TestEmulatorHello(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "",
		"_start:",
		"    $(addi(a0, zero, msg))",
		"    $(addi(a7, zero, SYS_PRINT_STRING))",
		"    $(ecall())",
		"    $(addi(a0, zero, -42))",
		"    $(addi(a7, zero, SYS_PRINT_INT))",
		"    $(ecall())",
		"    $(addi(a0, zero, 7))",
		"    $(addi(a7, zero, SYS_EXIT_CODE))",
		"    $(ecall())",
		"msg: $('H' | 'i' << 8 | '!' << 16 | '\\n' << 24) 0",
	)

	_, ok := emu.ExitCode()
	assert.False(ok)

	for n := range 8 {
		done, err := emu.Tick()
		assert.NoError(err, n)
		assert.False(done, n)
	}
	assert.Equal(core.STATE_HALT_PENDING, emu.State())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(core.STATE_HALTED, emu.State())
	assert.Equal("Hi!\n-42", output.String())

	code, ok := emu.ExitCode()
	assert.True(ok)
	assert.Equal(7, code)

	// Halted stays halted.
	done, err = emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint64(9), emu.Cycles())
}

func TestEmulatorConsole(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "123 x",
		"$(addi(a7, zero, SYS_READ_INT))",
		"$(ecall())",
		"$(addi(a0, a0, 1))",
		"$(addi(a7, zero, SYS_PRINT_INT))",
		"$(ecall())",
		"$(addi(a0, zero, 255))",
		"$(addi(a7, zero, SYS_PRINT_HEX))",
		"$(ecall())",
		"$(addi(a7, zero, SYS_PRINT_UNSIGNED))",
		"$(addi(a0, zero, -1))",
		"$(ecall())",
		"$(addi(a7, zero, SYS_PRINT_CHAR))",
		"$(addi(a0, zero, ' '))",
		"$(ecall())",
		"$(addi(a7, zero, SYS_PRINT_BINARY))",
		"$(addi(a0, zero, 5))",
		"$(ecall())",
		"$(addi(a7, zero, SYS_READ_CHAR))",
		"$(ecall())",
		"$(addi(s0, a0, 0))",
		"$(ecall())",
		"$(addi(s1, a0, 0))",
		"$(ecall())",
		"$(addi(s2, a0, 0))",
		"$(addi(a7, zero, SYS_EXIT))",
		"$(ecall())",
	)

	assert.NoError(emu.Run(0))
	assert.Equal("1240x000000ff4294967295 0b00000000000000000000000000000101", output.String())
	assert.Equal(uint32(' '), emu.Register(8))
	assert.Equal(uint32('x'), emu.Register(9))
	assert.Equal(uint32(0xffffffff), emu.Register(18))

	code, ok := emu.ExitCode()
	assert.True(ok)
	assert.Equal(0, code)
}

func TestEmulatorErrors(t *testing.T) {
	table := [](struct {
		name    string
		input   string
		program []string
		err     error
		lineNo  int
	}){
		{"syscall", "", []string{
			"$(addi(a7, zero, 99))",
			"$(ecall())",
		}, ErrSyscall, 2},
		{"read-int", "nope", []string{
			"$(addi(a7, zero, SYS_READ_INT))",
			"$(ecall())",
		}, ErrInput, 2},
		{"string", "", []string{
			"$(lui(a0, 0x10))",
			"$(addi(a7, zero, SYS_PRINT_STRING))",
			"$(ecall())",
		}, storage.ErrOutOfRange, 3},
		{"illegal", "", []string{
			"$(addi(a0, zero, 1))",
			"0",
		}, core.ErrIllegalInstruction, 2},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			emu, _ := newTestEmulator(t, entry.input, entry.program...)
			err := emu.Run(100)
			assert.ErrorIs(err, entry.err)

			var runtime *ErrRuntime
			if assert.True(errors.As(err, &runtime)) {
				assert.Equal(entry.lineNo, runtime.LineNo)
			}

			var fault *core.Fault
			assert.True(errors.As(err, &fault))
		})
	}
}

func TestEmulatorBack(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, "",
		"_start: $(addi(t0, zero, 0))",
		"loop:   $(addi(t0, t0, 1))",
		"        $(jal(zero, loop - PC))",
	)

	assert.ErrorIs(emu.Run(6), ErrCycleLimit)
	assert.Equal(uint32(3), emu.Register(5))
	assert.Equal(4, emu.History())

	assert.NoError(emu.Back(2))
	assert.Equal(uint32(2), emu.Register(5))
	assert.Equal(uint32(8), emu.Pc())
	assert.Equal(uint64(4), emu.Cycles())
	assert.Equal(2, emu.History())

	assert.ErrorIs(emu.Back(3), ErrHistory)

	assert.NoError(emu.Back(2))
	assert.Equal(uint32(1), emu.Register(5))
	assert.Equal(uint32(8), emu.Pc())
	assert.Equal(0, emu.History())

	assert.NoError(emu.Back(0))

	emu.Reset()
	assert.Equal(uint32(0), emu.Pc())
	assert.Equal(uint32(0), emu.Register(5))
	assert.Equal(0, emu.History())
}

func TestEmulatorBackExit(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "",
		"$(addi(a0, zero, 'A'))",
		"$(addi(a7, zero, SYS_PRINT_CHAR))",
		"$(ecall())",
		"$(addi(a0, zero, 3))",
		"$(addi(a7, zero, SYS_EXIT_CODE))",
		"$(ecall())",
	)

	assert.NoError(emu.Run(0))
	assert.Equal("A", output.String())
	code, ok := emu.ExitCode()
	assert.True(ok)
	assert.Equal(3, code)

	// Before the exit ecall was reached.
	assert.NoError(emu.Back(3))
	_, ok = emu.ExitCode()
	assert.False(ok)
	assert.Equal(core.STATE_RUNNING, emu.State())

	assert.NoError(emu.Run(0))
	assert.Equal("A", output.String())
	code, ok = emu.ExitCode()
	assert.True(ok)
	assert.Equal(3, code)
}

func TestEmulatorLoad(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(testMachine())
	require.NoError(t, err)

	prog := &program.Program{
		Segments: []program.Segment{{Addr: 0x20000, Data: []byte{1, 2, 3, 4}}},
	}
	assert.ErrorIs(emu.Load(prog), program.ErrSegment)

	bin, err := program.LoadBinary(bytes.NewReader([]byte{0x73, 0x00, 0x00, 0x00}), 0x100)
	require.NoError(t, err)
	require.NoError(t, emu.Load(bin))
	assert.Equal(uint32(0x100), emu.Pc())
	assert.Equal(isa.OP_ECALL, emu.Op())
	assert.Equal(0, emu.LineNo(0x100))
}
