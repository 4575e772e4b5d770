// Package storage provides the byte-addressable address space backing the
// RV32 datapath.
//
// Memory is sparse: pages are allocated on first write and read as zero
// until then. Checkpoints share pages with the live memory and copy them
// on the next write, so capturing the memory every cycle is cheap.
package storage

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/rv32ss/translate"
)

var f = translate.From

var (
	ErrOutOfRange = errors.New(f("address out of range"))
	ErrWidth      = errors.New(f("access width invalid"))
)

const (
	PAGE_BITS = 12
	PAGE_SIZE = 1 << PAGE_BITS
	PAGE_MASK = PAGE_SIZE - 1

	ADDRESS_LIMIT = uint64(1) << 32 // Size of the 32-bit address space.
)

// Width of a data access in bytes.
type Width int

const (
	WIDTH_BYTE = Width(1)
	WIDTH_HALF = Width(2)
	WIDTH_WORD = Width(4)
)

func (w Width) String() string {
	switch w {
	case WIDTH_BYTE:
		return "byte"
	case WIDTH_HALF:
		return "half"
	case WIDTH_WORD:
		return "word"
	}
	return fmt.Sprintf("width(%d)", int(w))
}

type page struct {
	gen  uint64
	data [PAGE_SIZE]byte
}

// Image is an immutable capture of a Memory.
type Image struct {
	pages map[uint32]*page
}

// Pages returns the number of allocated pages in the image.
func (img Image) Pages() int {
	return len(img.pages)
}

// Memory is a little-endian sparse address space.
type Memory struct {
	Size uint64 // Bytes; accesses at or beyond Size are out of range.

	pages map[uint32]*page
	gen   uint64
}

// NewMemory creates an empty memory of the given size in bytes.
// A size of zero, or larger than 4GiB, spans the whole address space.
func NewMemory(size uint64) (mem *Memory) {
	if size == 0 || size > ADDRESS_LIMIT {
		size = ADDRESS_LIMIT
	}

	mem = &Memory{
		Size:  size,
		pages: make(map[uint32]*page),
	}

	return
}

// Defines for the memory.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%#x", mem.Size),
		"PAGE_SIZE":   fmt.Sprintf("%#x", PAGE_SIZE),
	})
}

func (mem *Memory) check(addr uint32, length uint64) (err error) {
	if uint64(addr)+length > mem.Size {
		err = ErrOutOfRange
	}
	return
}

func (mem *Memory) readByte(addr uint32) byte {
	pg, ok := mem.pages[addr>>PAGE_BITS]
	if !ok {
		return 0
	}
	return pg.data[addr&PAGE_MASK]
}

func (mem *Memory) writeByte(addr uint32, value byte) {
	index := addr >> PAGE_BITS
	pg, ok := mem.pages[index]
	switch {
	case !ok:
		pg = &page{gen: mem.gen}
		mem.pages[index] = pg
	case pg.gen != mem.gen:
		// Shared with an image; copy before writing.
		clone := *pg
		clone.gen = mem.gen
		pg = &clone
		mem.pages[index] = pg
	}
	pg.data[addr&PAGE_MASK] = value
}

// Read a little-endian value of the given width, zero-extended.
func (mem *Memory) Read(addr uint32, width Width) (value uint32, err error) {
	switch width {
	case WIDTH_BYTE, WIDTH_HALF, WIDTH_WORD:
	default:
		err = ErrWidth
		return
	}

	err = mem.check(addr, uint64(width))
	if err != nil {
		return
	}

	for n := range int(width) {
		value |= uint32(mem.readByte(addr+uint32(n))) << (8 * n)
	}

	return
}

// Write the low 'width' bytes of value, little-endian.
func (mem *Memory) Write(addr uint32, width Width, value uint32) (err error) {
	switch width {
	case WIDTH_BYTE, WIDTH_HALF, WIDTH_WORD:
	default:
		err = ErrWidth
		return
	}

	err = mem.check(addr, uint64(width))
	if err != nil {
		return
	}

	for n := range int(width) {
		mem.writeByte(addr+uint32(n), byte(value>>(8*n)))
	}

	return
}

// ReadBytes fills data from consecutive addresses.
func (mem *Memory) ReadBytes(addr uint32, data []byte) (err error) {
	err = mem.check(addr, uint64(len(data)))
	if err != nil {
		return
	}

	for n := range data {
		data[n] = mem.readByte(addr + uint32(n))
	}

	return
}

// WriteBytes stores data at consecutive addresses.
func (mem *Memory) WriteBytes(addr uint32, data []byte) (err error) {
	err = mem.check(addr, uint64(len(data)))
	if err != nil {
		return
	}

	for n, value := range data {
		mem.writeByte(addr+uint32(n), value)
	}

	return
}

// Clear releases all pages; the memory reads as zero.
func (mem *Memory) Clear() {
	clear(mem.pages)
	mem.gen++
}

// Checkpoint captures the current contents.
func (mem *Memory) Checkpoint() (img Image) {
	img.pages = maps.Clone(mem.pages)
	mem.gen++
	return
}

// Restore replaces the contents with a checkpoint.
func (mem *Memory) Restore(img Image) {
	mem.pages = maps.Clone(img.pages)
	if mem.pages == nil {
		mem.pages = make(map[uint32]*page)
	}
	for _, pg := range mem.pages {
		mem.gen = max(mem.gen, pg.gen)
	}
	mem.gen++
}
