// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32ss/config"
	"github.com/ezrec/rv32ss/emulator"
	"github.com/ezrec/rv32ss/program"
)

func main() {
	var machineFile string
	var listing string
	var elfFile string
	var binary string
	var cycles int
	var verbose bool
	var dump bool

	flag.StringVar(&machineFile, "c", "", "Machine configuration (.toml, .yaml)")
	flag.StringVar(&listing, "l", "", "Word listing to assemble")
	flag.StringVar(&elfFile, "e", "", "RV32 ELF executable to load")
	flag.StringVar(&binary, "b", "", "Flat binary to load at the reset PC")
	flag.IntVar(&cycles, "n", -1, "Maximum cycles to run (0 is unlimited)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&dump, "d", false, "Dump the final state")

	flag.Parse()

	if flag.NArg() != 0 {
		logrus.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	machine := config.Default()
	if len(machineFile) != 0 {
		var err error
		machine, err = config.Load(machineFile)
		if err != nil {
			logrus.Fatalf("%v: %v", machineFile, err)
		}
	}
	machine.Verbose = machine.Verbose || verbose
	if cycles >= 0 {
		machine.MaxCycles = cycles
	}

	emu, err := emulator.NewEmulator(machine)
	if err != nil {
		logrus.Fatalf("%v: %v", os.Args[0], err)
	}
	emu.Input = os.Stdin
	emu.Output = os.Stdout

	var prog *program.Program
	switch {
	case len(listing) != 0:
		inf, err := os.Open(listing)
		if err != nil {
			logrus.Fatalf("%v: %v", listing, err)
		}
		defer inf.Close()

		asm := &program.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err = asm.Parse(inf)
		if err != nil {
			logrus.Fatalf("%v: %v", listing, err)
		}
	case len(elfFile) != 0:
		prog, err = program.LoadELF(elfFile)
		if err != nil {
			logrus.Fatalf("%v: %v", elfFile, err)
		}
	case len(binary) != 0:
		inf, err := os.Open(binary)
		if err != nil {
			logrus.Fatalf("%v: %v", binary, err)
		}
		defer inf.Close()

		prog, err = program.LoadBinary(inf, machine.ResetPc)
		if err != nil {
			logrus.Fatalf("%v: %v", binary, err)
		}
	default:
		logrus.Fatalf("%v: one of -l, -e or -b is required", os.Args[0])
	}

	err = emu.Load(prog)
	if err != nil {
		logrus.Fatalf("%v: %v", os.Args[0], err)
	}

	err = emu.Run(machine.MaxCycles)

	if dump {
		spew.Fdump(os.Stderr, emu.Capture())
	}

	if err != nil {
		logrus.Fatal(err)
	}

	code, _ := emu.ExitCode()
	os.Exit(code)
}
