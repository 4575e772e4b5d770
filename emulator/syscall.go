package emulator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32ss/core"
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/storage"
)

// Syscall number, passed in a7.
type Syscall uint32

const (
	SYS_PRINT_INT      = Syscall(1)  // print_int
	SYS_PRINT_STRING   = Syscall(4)  // print_string
	SYS_READ_INT       = Syscall(5)  // read_int
	SYS_EXIT           = Syscall(10) // exit
	SYS_PRINT_CHAR     = Syscall(11) // print_char
	SYS_READ_CHAR      = Syscall(12) // read_char
	SYS_PRINT_HEX      = Syscall(34) // print_hex
	SYS_PRINT_BINARY   = Syscall(35) // print_binary
	SYS_PRINT_UNSIGNED = Syscall(36) // print_unsigned
	SYS_EXIT_CODE      = Syscall(93) // exit_code
)

// Longest string print_string will output.
const STRING_LIMIT = 4096

var syscallNames = map[Syscall]string{
	SYS_PRINT_INT:      "print_int",
	SYS_PRINT_STRING:   "print_string",
	SYS_READ_INT:       "read_int",
	SYS_EXIT:           "exit",
	SYS_PRINT_CHAR:     "print_char",
	SYS_READ_CHAR:      "read_char",
	SYS_PRINT_HEX:      "print_hex",
	SYS_PRINT_BINARY:   "print_binary",
	SYS_PRINT_UNSIGNED: "print_unsigned",
	SYS_EXIT_CODE:      "exit_code",
}

func (sc Syscall) String() string {
	name, ok := syscallNames[sc]
	if !ok {
		return fmt.Sprintf("syscall(%d)", uint32(sc))
	}
	return name
}

var _ core.EcallHandler = (*Emulator)(nil)

func (emu *Emulator) output() io.Writer {
	if emu.Output == nil {
		return io.Discard
	}
	return emu.Output
}

func (emu *Emulator) input() *bufio.Reader {
	if emu.reader == nil || emu.readerSource != emu.Input {
		emu.readerSource = emu.Input
		var src io.Reader = emu.Input
		if src == nil {
			src = strings.NewReader("")
		}
		emu.reader = bufio.NewReader(src)
	}
	return emu.reader
}

// readString reads a NUL terminated string from memory.
func readString(mem core.AddressSpace, addr uint32) (str string, err error) {
	var buf []byte
	for n := range uint32(STRING_LIMIT) {
		var value uint32
		value, err = mem.Read(addr+n, storage.WIDTH_BYTE)
		if err != nil {
			return
		}
		if value == 0 {
			str = string(buf)
			return
		}
		buf = append(buf, byte(value))
	}

	err = ErrString
	return
}

// Ecall performs the syscall selected by a7, with arguments in a0 and a1.
func (emu *Emulator) Ecall(env core.Environment) (halt bool, err error) {
	sc := Syscall(env.Register(isa.REG_A7))
	a0 := env.Register(isa.REG_A0)

	if emu.Verbose {
		emu.log().WithFields(logrus.Fields{
			"pc":      fmt.Sprintf("%#08x", env.Pc()),
			"syscall": sc,
			"a0":      a0,
		}).Debug("emulator: ecall")
	}

	out := emu.output()

	switch sc {
	case SYS_PRINT_INT:
		_, err = fmt.Fprintf(out, "%d", int32(a0))
	case SYS_PRINT_STRING:
		var str string
		str, err = readString(env.Memory(), a0)
		if err != nil {
			return
		}
		_, err = io.WriteString(out, str)
	case SYS_READ_INT:
		var value int64
		_, err = fmt.Fscan(emu.input(), &value)
		if err != nil {
			err = errors.Join(ErrInput, err)
			return
		}
		env.SetRegister(isa.REG_A0, uint32(value))
	case SYS_PRINT_CHAR:
		_, err = out.Write([]byte{byte(a0)})
	case SYS_READ_CHAR:
		var ch byte
		ch, err = emu.input().ReadByte()
		switch {
		case errors.Is(err, io.EOF):
			// End of input reads as -1.
			err = nil
			env.SetRegister(isa.REG_A0, 0xffffffff)
		case err != nil:
			err = errors.Join(ErrInput, err)
		default:
			env.SetRegister(isa.REG_A0, uint32(ch))
		}
	case SYS_PRINT_HEX:
		_, err = fmt.Fprintf(out, "0x%08x", a0)
	case SYS_PRINT_BINARY:
		_, err = fmt.Fprintf(out, "0b%032b", a0)
	case SYS_PRINT_UNSIGNED:
		_, err = fmt.Fprintf(out, "%d", a0)
	case SYS_EXIT:
		emu.exitCode = 0
		halt = true
	case SYS_EXIT_CODE:
		emu.exitCode = int(int32(a0))
		halt = true
	default:
		err = errors.Join(ErrSyscall, errors.New(sc.String()))
	}

	return
}
