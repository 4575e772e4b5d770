// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"maps"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32ss/config"
	"github.com/ezrec/rv32ss/core"
	"github.com/ezrec/rv32ss/internal"
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/program"
	"github.com/ezrec/rv32ss/storage"
)

var _emulator_defines = map[string]string{}

func init() {
	for sc, name := range syscallNames {
		_emulator_defines["SYS_"+strings.ToUpper(name)] = fmt.Sprintf("%v", uint32(sc))
	}
	_emulator_defines["STRING_LIMIT"] = fmt.Sprintf("%v", STRING_LIMIT)
}

// Emulator state. Datapath + memory + console.
type Emulator struct {
	Verbose        bool               // If set, enables verbose logging.
	Log            logrus.FieldLogger // Logger for verbose output. Nil is the standard logger.
	*core.Datapath                    // Reference to the datapath simulation.
	Mem            *storage.Memory    // Memory of the datapath.
	Program        *program.Program   // Reference to the currently loaded program.
	Machine        config.Machine     // Machine the emulator was built for.

	Input  io.Reader // Console input; nil is always at end of input.
	Output io.Writer // Console output; nil discards.

	history      []core.Snapshot
	exitCode     int
	reader       *bufio.Reader
	readerSource io.Reader
}

// NewEmulator creates a new emulator for a machine.
func NewEmulator(machine config.Machine) (emu *Emulator, err error) {
	err = machine.Validate()
	if err != nil {
		return
	}

	emu = &Emulator{
		Verbose: machine.Verbose,
		Mem:     storage.NewMemory(machine.MemorySize),
		Program: &program.Program{Entry: machine.ResetPc},
		Machine: machine,
	}

	emu.Datapath, err = core.NewDatapath(emu.Mem, core.Config{
		ResetPc: machine.ResetPc,
		Registers: map[uint8]uint32{
			isa.REG_SP: machine.StackPointer,
			isa.REG_GP: machine.GlobalPointer,
		},
		Handler:  emu,
		Finished: emu.finished,
	})
	if err != nil {
		emu = nil
		return
	}

	return
}

func (emu *Emulator) log() logrus.FieldLogger {
	if emu.Log == nil {
		return logrus.StandardLogger()
	}
	return emu.Log
}

func (emu *Emulator) finished() {
	if emu.Verbose {
		emu.log().WithFields(logrus.Fields{
			"cycles": emu.Cycles(),
			"exit":   emu.exitCode,
		}).Info("emulator: halted")
	}
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	machine := map[string]string{
		"RESET_PC":       fmt.Sprintf("%#x", emu.Machine.ResetPc),
		"STACK_POINTER":  fmt.Sprintf("%#x", emu.Machine.StackPointer),
		"GLOBAL_POINTER": fmt.Sprintf("%#x", emu.Machine.GlobalPointer),
	}
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		maps.All(machine),
		emu.Mem.Defines(),
	)
}

// Load a program into memory, and reset to its entry point.
func (emu *Emulator) Load(prog *program.Program) (err error) {
	emu.Mem.Clear()

	err = prog.Load(emu.Mem)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.SetResetPc(prog.Entry)
	emu.SetResetImage()
	emu.Reset()

	return
}

// Reset the datapath to the loaded program, and forget the history.
func (emu *Emulator) Reset() {
	emu.exitCode = 0
	emu.history = nil
	emu.Datapath.Reset()
}

// ExitCode returns the program exit code, once the program has exited.
func (emu *Emulator) ExitCode() (code int, ok bool) {
	if emu.State() == core.STATE_RUNNING {
		return
	}

	code = emu.exitCode
	ok = true
	return
}

// LineNo returns the listing line number for an address, or 0.
func (emu *Emulator) LineNo(pc uint32) int {
	dbg := emu.Program.Debug(pc)
	if dbg.Line == nil {
		return 0
	}
	return dbg.LineNo
}

// History returns the number of cycles that can be stepped back.
func (emu *Emulator) History() int {
	return len(emu.history)
}

// Tick performs a single cycle of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set datapath verbosity
	emu.Datapath.Verbose = emu.Verbose
	emu.Datapath.Log = emu.Log

	if emu.State() == core.STATE_HALTED {
		done = true
		return
	}

	pc := emu.Pc()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: emu.LineNo(pc), Err: err}
		}
	}()

	var snap core.Snapshot
	if emu.Machine.History > 0 {
		snap = emu.Capture()
	}

	err = emu.Clock()
	if err != nil {
		return
	}

	if emu.Machine.History > 0 {
		emu.history = append(emu.history, snap)
		if len(emu.history) > emu.Machine.History {
			emu.history = emu.history[len(emu.history)-emu.Machine.History:]
		}
	}

	done = emu.State() == core.STATE_HALTED

	return
}

// Run ticks until the program halts, or limit cycles have run. A limit
// of 0 is unlimited.
func (emu *Emulator) Run(limit int) (err error) {
	for n := 0; limit <= 0 || n < limit; n++ {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}

	if emu.State() != core.STATE_HALTED {
		err = ErrCycleLimit
	}

	return
}

// Back steps back n cycles.
func (emu *Emulator) Back(n int) (err error) {
	if n <= 0 {
		return
	}

	if n > len(emu.history) {
		err = ErrHistory
		return
	}

	snap := emu.history[len(emu.history)-n]
	emu.history = emu.history[:len(emu.history)-n]
	emu.Rewind(snap)

	if emu.Verbose {
		emu.log().WithField("pc", fmt.Sprintf("%#08x", emu.Pc())).Info("emulator: back")
	}

	return
}
