package main

import (
	"flag"
	"log"

	"github.com/user-none/vdpsim/cli"
	"github.com/user-none/vdpsim/sim"
)

func main() {
	scriptPath := flag.String("script", "", "path to a replay CSV scenario")
	luaPath := flag.String("lua", "", "path to a Lua scenario")
	tracePath := flag.String("trace", "", "write a VCD waveform trace to this path")
	frameDir := flag.String("frames", "", "export completed frames into this directory")
	useBMP := flag.Bool("bmp", false, "export frames as BMP instead of PNG")
	display := flag.Bool("display", false, "show completed frames in a live viewer window")
	cycles := flag.Int("cycles", 0, "extra full clock cycles to run after the scenario")
	latency := flag.Int("latency", sim.DefaultReadLatency, "VRAM read pipeline depth in half-cycles")
	verbose := flag.Bool("verbose", false, "per-transaction diagnostic logging")
	flag.Parse()

	if *scriptPath == "" && *luaPath == "" && *cycles == 0 && !*display {
		log.Fatal("Nothing to run. Usage: vdpsim -script <path.csv> [-trace dump.vcd] [-frames dir] [-display]")
	}

	cfg := sim.DefaultConfig()
	cfg.ReadLatency = *latency
	cfg.Verbose = *verbose

	// The compiled RTL model is linked in downstream builds; the stock
	// binary drives the functional reference model.
	h := sim.New(sim.NewRefModel(), cfg)

	runner := cli.NewRunner(h, cli.Options{
		ScriptPath:  *scriptPath,
		LuaPath:     *luaPath,
		TracePath:   *tracePath,
		FrameDir:    *frameDir,
		BMP:         *useBMP,
		ExtraCycles: *cycles,
		Display:     *display,
	})
	if err := runner.Run(); err != nil {
		log.Fatal(err)
	}
}
