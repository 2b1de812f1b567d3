// Package main provides the entry point for rvsim, a functional RISC-V
// instruction-set simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/loader"
)

var (
	configPath = flag.String("config", "", "Path to hart configuration JSON file")
	tracePath  = flag.String("trace", "", "Path to instruction trace output file")
	harts      = flag.Int("harts", 1, "Number of harts")
	memSize    = flag.Uint64("memsize", 1<<32, "Physical memory size in bytes")
	startPc    = flag.Uint64("startpc", 0, "Override the reset pc (default: ELF entry)")
	instLimit  = flag.Uint64("maxinsts", 0, "Retired-instruction limit (0 = no limit)")
	newlib     = flag.Bool("newlib", false, "Emulate newlib system calls")
	linuxMode  = flag.Bool("linux", false, "Emulate Linux system calls")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rvsim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	cfg := emu.DefaultConfig()
	if *configPath != "" {
		cfg, err = emu.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if !prog.Is64 {
		cfg.Xlen = 32
	}
	cfg.Newlib = cfg.Newlib || *newlib
	cfg.Linux = cfg.Linux || *linuxMode

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	os.Exit(run(prog, cfg))
}

func run(prog *loader.Program, cfg emu.Config) int {
	system := emu.NewSystem(*harts, 1, *memSize, cfg)
	memory := system.Memory()

	for _, seg := range prog.Segments {
		if err := memory.LoadSegment(seg.VirtAddr, seg.Data); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading segment: %v\n", err)
			return 1
		}
	}

	var traceFile *os.File
	if *tracePath != "" {
		var err error
		traceFile, err = os.Create(*tracePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating trace file: %v\n", err)
			return 1
		}
		defer func() { _ = traceFile.Close() }()
	}

	hart0, _ := system.IthHart(0)
	for i := 0; i < system.HartCount(); i++ {
		hart, _ := system.IthHart(i)
		resetPc := prog.EntryPoint
		if *startPc != 0 {
			resetPc = *startPc
		}
		hart.SetResetPc(resetPc)
		if *instLimit != 0 {
			hart.SetInstCountLimit(*instLimit)
		}
		if traceFile != nil {
			hart.SetTraceOutput(traceFile)
		}

		// Adopt the conventional symbols when the program defines them.
		if addr, ok := prog.Symbols[hart.ToHostSymbol()]; ok {
			if _, set := hart.ToHostAddress(); !set {
				hart.SetToHostAddress(addr)
			}
		}
		if addr, ok := prog.Symbols[hart.ConsoleIoSymbol()]; ok {
			hart.SetConsoleIoAddress(addr)
		}

		hart.Reset(true)
	}

	result := hart0.Run()

	if *verbose {
		fmt.Printf("\nStop reason: %s\n", result.Reason)
		fmt.Printf("Last pc: 0x%X\n", result.Pc)
		fmt.Printf("Instructions executed: %d\n", hart0.InstCount())
	}

	if result.Reason == emu.StopExit {
		return int(result.Value)
	}
	return 0
}
