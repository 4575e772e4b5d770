package program

import (
	"encoding/binary"
	"errors"
	"iter"
	"maps"
	"slices"
)

// Segment is a contiguous run of bytes loaded at Addr.
type Segment struct {
	Addr uint32
	Data []byte
}

// Line is one source line of an assembled listing.
type Line struct {
	LineNo int      // Line number in the source.
	Addr   uint32   // Address of the first word.
	Words  []string // Source tokens.
	Codes  []uint32 // Assembled words.
}

// Program is a loadable memory image.
type Program struct {
	Entry    uint32            // Initial PC.
	Segments []Segment         // Memory contents.
	Symbols  map[string]uint32 // Symbol addresses.
	Listing  []Line            // Source lines, if assembled.
}

// Writer is the memory a program is loaded into.
type Writer interface {
	WriteBytes(addr uint32, data []byte) error
}

// Load writes every segment to mem.
func (prog *Program) Load(mem Writer) (err error) {
	for _, seg := range prog.Segments {
		err = mem.WriteBytes(seg.Addr, seg.Data)
		if err != nil {
			err = errors.Join(ErrSegment, errors.New(f("%#08x+%#x", seg.Addr, len(seg.Data))), err)
			return
		}
	}
	return
}

// Debug locates the listing line of an address.
type Debug struct {
	*Line
	Index int // Word index within the line.
}

// Debug returns the listing line that assembled addr. Line is nil if
// no line covers addr.
func (prog *Program) Debug(addr uint32) (dbg Debug) {
	for n, line := range prog.Listing {
		if addr >= line.Addr && addr < line.Addr+4*uint32(len(line.Codes)) {
			dbg = Debug{
				Line:  &prog.Listing[n],
				Index: int(addr-line.Addr) / 4,
			}
			break
		}
	}

	return
}

// Symbol returns the name of the symbol at addr.
func (prog *Program) Symbol(addr uint32) (name string, ok bool) {
	for _, key := range slices.Sorted(maps.Keys(prog.Symbols)) {
		if prog.Symbols[key] == addr {
			name = key
			ok = true
			return
		}
	}
	return
}

// Words yields each aligned little-endian word of the segments.
func (prog *Program) Words() iter.Seq2[uint32, uint32] {
	return func(yield func(addr uint32, word uint32) bool) {
		for _, seg := range prog.Segments {
			for n := 0; n+4 <= len(seg.Data); n += 4 {
				if !yield(seg.Addr+uint32(n), binary.LittleEndian.Uint32(seg.Data[n:])) {
					return
				}
			}
		}
	}
}

// Size returns the total bytes of all segments.
func (prog *Program) Size() (size int) {
	for _, seg := range prog.Segments {
		size += len(seg.Data)
	}
	return
}
