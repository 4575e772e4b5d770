// Package config describes the machine an emulator is built for.
//
// Machines are read from TOML or YAML files. Fields missing from a file
// keep their Default values.
package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ezrec/rv32ss/translate"
)

var f = translate.From

var (
	ErrFormat    = errors.New(f("configuration format unknown"))
	ErrResetPc   = errors.New(f("reset_pc not word aligned"))
	ErrStack     = errors.New(f("stack_pointer outside of memory"))
	ErrHistory   = errors.New(f("history negative"))
	ErrMaxCycles = errors.New(f("max_cycles negative"))
)

// Configuration file formats.
const (
	FORMAT_TOML = "toml"
	FORMAT_YAML = "yaml"
)

// Machine configuration.
type Machine struct {
	MemorySize    uint64 `toml:"memory_size" yaml:"memory_size"`       // Bytes of memory; 0 is the whole 32-bit space.
	ResetPc       uint32 `toml:"reset_pc" yaml:"reset_pc"`             // PC after reset, unless the program has an entry.
	StackPointer  uint32 `toml:"stack_pointer" yaml:"stack_pointer"`   // Initial sp.
	GlobalPointer uint32 `toml:"global_pointer" yaml:"global_pointer"` // Initial gp.
	MaxCycles     int    `toml:"max_cycles" yaml:"max_cycles"`         // Cycle limit of a run; 0 is unlimited.
	History       int    `toml:"history" yaml:"history"`               // Cycles that can be stepped back.
	Verbose       bool   `toml:"verbose" yaml:"verbose"`               // Log every committed cycle.
}

// Default returns the default machine.
func Default() Machine {
	return Machine{
		MemorySize:    0,
		ResetPc:       0,
		StackPointer:  0x7ffffff0,
		GlobalPointer: 0x10000000,
		MaxCycles:     0,
		History:       100,
	}
}

// Validate checks the machine for consistency.
func (m Machine) Validate() (err error) {
	var errs []error

	if m.ResetPc%4 != 0 {
		errs = append(errs, ErrResetPc)
	}
	if m.MemorySize != 0 && uint64(m.StackPointer) > m.MemorySize {
		errs = append(errs, ErrStack)
	}
	if m.History < 0 {
		errs = append(errs, ErrHistory)
	}
	if m.MaxCycles < 0 {
		errs = append(errs, ErrMaxCycles)
	}

	err = errors.Join(errs...)
	return
}

// FormatOf returns the format implied by a file name extension.
func FormatOf(path string) (format string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = FORMAT_TOML
	case ".yaml", ".yml":
		format = FORMAT_YAML
	default:
		err = errors.Join(ErrFormat, errors.New(path))
	}
	return
}

// Decode a machine from r, starting from the Default machine.
func Decode(r io.Reader, format string) (m Machine, err error) {
	m = Default()

	switch format {
	case FORMAT_TOML:
		_, err = toml.NewDecoder(r).Decode(&m)
	case FORMAT_YAML:
		err = yaml.NewDecoder(r).Decode(&m)
		if errors.Is(err, io.EOF) {
			// Empty document.
			err = nil
		}
	default:
		err = errors.Join(ErrFormat, errors.New(format))
	}
	if err != nil {
		return
	}

	err = m.Validate()
	return
}

// Load a machine from a TOML or YAML file.
func Load(path string) (m Machine, err error) {
	format, err := FormatOf(path)
	if err != nil {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	m, err = Decode(file, format)
	if err != nil {
		err = errors.Join(errors.New(path), err)
	}
	return
}
