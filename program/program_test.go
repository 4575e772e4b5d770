package program

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/storage"
)

func TestProgramLoad(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Entry: 0x10,
		Segments: []Segment{
			{Addr: 0x10, Data: []byte{0x13, 0x00, 0x00, 0x00}},
			{Addr: 0x100, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
		Symbols: map[string]uint32{"b": 0x100, "a": 0x100, "start": 0x10},
	}

	mem := storage.NewMemory(0x1000)
	assert.NoError(prog.Load(mem))

	value, err := mem.Read(0x10, storage.WIDTH_WORD)
	assert.NoError(err)
	assert.Equal(uint32(0x13), value)
	value, err = mem.Read(0x104, storage.WIDTH_WORD)
	assert.NoError(err)
	assert.Equal(uint32(0x08070605), value)

	name, ok := prog.Symbol(0x100)
	assert.True(ok)
	assert.Equal("a", name)
	_, ok = prog.Symbol(0x200)
	assert.False(ok)

	var addrs []uint32
	for addr := range prog.Words() {
		addrs = append(addrs, addr)
	}
	assert.Equal([]uint32{0x10, 0x100, 0x104}, addrs)
	assert.Equal(12, prog.Size())

	small := storage.NewMemory(0x80)
	err = prog.Load(small)
	assert.ErrorIs(err, ErrSegment)
	assert.ErrorIs(err, storage.ErrOutOfRange)
}

func TestLoadBinary(t *testing.T) {
	assert := assert.New(t)

	data := []byte{0x93, 0x00, 0x50, 0x00}
	prog, err := LoadBinary(bytes.NewReader(data), 0x400)
	require.NoError(t, err)

	assert.Equal(uint32(0x400), prog.Entry)
	assert.Equal([]Segment{{Addr: 0x400, Data: data}}, prog.Segments)
	for _, word := range prog.Words() {
		assert.Equal(uint32(isa.MakeI(isa.OP_ADDI, 1, 0, 5)), word)
	}
}

// makeELF builds an ELF32 executable with one PT_LOAD segment.
func makeELF(machine elf.Machine, entry uint32, vaddr uint32, code []byte, memsz uint32) []byte {
	le := binary.LittleEndian
	var buf []byte

	ident := [elf.EI_NIDENT]byte{0x7f, 'E', 'L', 'F',
		byte(elf.ELFCLASS32), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)}
	buf = append(buf, ident[:]...)
	buf = le.AppendUint16(buf, uint16(elf.ET_EXEC))
	buf = le.AppendUint16(buf, uint16(machine))
	buf = le.AppendUint32(buf, uint32(elf.EV_CURRENT))
	buf = le.AppendUint32(buf, entry)
	buf = le.AppendUint32(buf, 52) // phoff
	buf = le.AppendUint32(buf, 0)  // shoff
	buf = le.AppendUint32(buf, 0)  // flags
	buf = le.AppendUint16(buf, 52) // ehsize
	buf = le.AppendUint16(buf, 32) // phentsize
	buf = le.AppendUint16(buf, 1)  // phnum
	buf = le.AppendUint16(buf, 40) // shentsize
	buf = le.AppendUint16(buf, 0)  // shnum
	buf = le.AppendUint16(buf, 0)  // shstrndx

	buf = le.AppendUint32(buf, uint32(elf.PT_LOAD))
	buf = le.AppendUint32(buf, 84) // offset
	buf = le.AppendUint32(buf, vaddr)
	buf = le.AppendUint32(buf, vaddr)
	buf = le.AppendUint32(buf, uint32(len(code)))
	buf = le.AppendUint32(buf, memsz)
	buf = le.AppendUint32(buf, uint32(elf.PF_R|elf.PF_X))
	buf = le.AppendUint32(buf, 4)

	buf = append(buf, code...)
	return buf
}

func TestReadELF(t *testing.T) {
	assert := assert.New(t)

	code := binary.LittleEndian.AppendUint32(nil, uint32(isa.MakeEcall()))
	image := makeELF(elf.EM_RISCV, 0x1000, 0x1000, code, 8)

	prog, err := ReadELF(bytes.NewReader(image))
	require.NoError(t, err)

	assert.Equal(uint32(0x1000), prog.Entry)
	if assert.Equal(1, len(prog.Segments)) {
		assert.Equal(uint32(0x1000), prog.Segments[0].Addr)
		assert.Equal(append(code, 0, 0, 0, 0), prog.Segments[0].Data)
	}
	assert.Equal(0, len(prog.Symbols))

	image = makeELF(elf.EM_386, 0x1000, 0x1000, code, 4)
	_, err = ReadELF(bytes.NewReader(image))
	assert.ErrorIs(err, ErrElfMachine)

	_, err = ReadELF(bytes.NewReader([]byte("not an executable")))
	assert.Error(err)
}
