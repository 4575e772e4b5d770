package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryReadWrite(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(0x10000)

	value, err := mem.Read(0x100, WIDTH_WORD)
	assert.NoError(err)
	assert.Equal(uint32(0), value)

	assert.NoError(mem.Write(0x100, WIDTH_WORD, 0xdeadbeef))
	value, err = mem.Read(0x100, WIDTH_WORD)
	assert.NoError(err)
	assert.Equal(uint32(0xdeadbeef), value)

	// Little-endian byte order
	value, err = mem.Read(0x100, WIDTH_BYTE)
	assert.NoError(err)
	assert.Equal(uint32(0xef), value)
	value, err = mem.Read(0x102, WIDTH_HALF)
	assert.NoError(err)
	assert.Equal(uint32(0xdead), value)

	// Truncation to the access width
	assert.NoError(mem.Write(0x200, WIDTH_BYTE, 0x12345680))
	value, err = mem.Read(0x200, WIDTH_WORD)
	assert.NoError(err)
	assert.Equal(uint32(0x80), value)

	// Crossing a page boundary
	assert.NoError(mem.Write(PAGE_SIZE-2, WIDTH_WORD, 0x11223344))
	value, err = mem.Read(PAGE_SIZE-2, WIDTH_WORD)
	assert.NoError(err)
	assert.Equal(uint32(0x11223344), value)
}

func TestMemoryRange(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(0x1000)

	_, err := mem.Read(0x1000, WIDTH_BYTE)
	assert.ErrorIs(err, ErrOutOfRange)
	_, err = mem.Read(0xffe, WIDTH_WORD)
	assert.ErrorIs(err, ErrOutOfRange)
	assert.ErrorIs(mem.Write(0xfff, WIDTH_HALF, 0), ErrOutOfRange)
	assert.NoError(mem.Write(0xffc, WIDTH_WORD, 0))

	_, err = mem.Read(0, Width(3))
	assert.ErrorIs(err, ErrWidth)
	assert.ErrorIs(mem.Write(0, Width(8), 0), ErrWidth)

	assert.ErrorIs(mem.WriteBytes(0xff0, make([]byte, 0x20)), ErrOutOfRange)

	full := NewMemory(0)
	assert.Equal(ADDRESS_LIMIT, full.Size)
	assert.NoError(full.Write(0xfffffffc, WIDTH_WORD, 1))
	_, err = full.Read(0xfffffffe, WIDTH_WORD)
	assert.ErrorIs(err, ErrOutOfRange)
}

func TestMemoryBytes(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(0x10000)
	assert.NoError(mem.WriteBytes(0x10, []byte("hello")))

	buf := make([]byte, 5)
	assert.NoError(mem.ReadBytes(0x10, buf))
	assert.Equal("hello", string(buf))

	mem.Clear()
	assert.NoError(mem.ReadBytes(0x10, buf))
	assert.Equal(make([]byte, 5), buf)
}

func TestMemoryCheckpoint(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(0x10000)
	assert.NoError(mem.Write(0x10, WIDTH_WORD, 1))

	first := mem.Checkpoint()
	assert.Equal(1, first.Pages())

	assert.NoError(mem.Write(0x10, WIDTH_WORD, 2))
	assert.NoError(mem.Write(0x8000, WIDTH_WORD, 3))

	second := mem.Checkpoint()
	assert.Equal(2, second.Pages())

	assert.NoError(mem.Write(0x10, WIDTH_WORD, 4))

	mem.Restore(first)
	value, _ := mem.Read(0x10, WIDTH_WORD)
	assert.Equal(uint32(1), value)
	value, _ = mem.Read(0x8000, WIDTH_WORD)
	assert.Equal(uint32(0), value)

	// Writing after a restore must not leak into the image.
	assert.NoError(mem.Write(0x10, WIDTH_WORD, 5))
	mem.Restore(first)
	value, _ = mem.Read(0x10, WIDTH_WORD)
	assert.Equal(uint32(1), value)

	mem.Restore(second)
	value, _ = mem.Read(0x10, WIDTH_WORD)
	assert.Equal(uint32(2), value)
	value, _ = mem.Read(0x8000, WIDTH_WORD)
	assert.Equal(uint32(3), value)

	mem.Restore(Image{})
	value, _ = mem.Read(0x10, WIDTH_WORD)
	assert.Equal(uint32(0), value)
}

func TestMemoryDefines(t *testing.T) {
	assert := assert.New(t)

	defines := map[string]string{}
	for key, value := range NewMemory(0x10000).Defines() {
		defines[key] = value
	}
	assert.Equal("0x10000", defines["MEMORY_SIZE"])
	assert.Equal("0x1000", defines["PAGE_SIZE"])
}
