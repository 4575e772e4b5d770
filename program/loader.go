package program

import (
	"debug/elf"
	"errors"
	"io"
	"os"
)

// LoadELF reads the PT_LOAD segments, entry point and symbols of an
// RV32 ELF executable.
func LoadELF(path string) (prog *Program, err error) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	prog, err = ReadELF(file)
	return
}

// ReadELF reads an RV32 ELF executable.
func ReadELF(r io.ReaderAt) (prog *Program, err error) {
	ef, err := elf.NewFile(r)
	if err != nil {
		return
	}
	defer ef.Close()

	switch {
	case ef.Class != elf.ELFCLASS32:
		err = ErrElfClass
	case ef.Data != elf.ELFDATA2LSB:
		err = ErrElfData
	case ef.Machine != elf.EM_RISCV:
		err = ErrElfMachine
	}
	if err != nil {
		return
	}

	prog = &Program{
		Entry:   uint32(ef.Entry),
		Symbols: map[string]uint32{},
	}

	for _, ph := range ef.Progs {
		if ph.Type != elf.PT_LOAD || ph.Memsz == 0 {
			continue
		}
		// Zero-filled past Filesz.
		data := make([]byte, ph.Memsz)
		if ph.Filesz > 0 {
			_, err = ph.ReadAt(data[:ph.Filesz], 0)
			if err != nil {
				err = errors.Join(ErrSegment, err)
				prog = nil
				return
			}
		}
		prog.Segments = append(prog.Segments, Segment{
			Addr: uint32(ph.Vaddr),
			Data: data,
		})
	}

	symbols, err := ef.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		err = nil
	}
	if err != nil {
		prog = nil
		return
	}
	for _, sym := range symbols {
		if len(sym.Name) == 0 || elf.ST_TYPE(sym.Info) == elf.STT_SECTION {
			continue
		}
		prog.Symbols[sym.Name] = uint32(sym.Value)
	}

	return
}

// LoadBinary reads a flat binary image to be loaded at base. The entry
// point is base.
func LoadBinary(r io.Reader, base uint32) (prog *Program, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	prog = &Program{
		Entry:    base,
		Segments: []Segment{{Addr: base, Data: data}},
		Symbols:  map[string]uint32{},
	}

	return
}
