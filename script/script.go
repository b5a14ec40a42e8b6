// Package script exposes the simulation harness to Lua test scenarios.
// Scripts drive the model through a global `sim` table:
//
//	sim.write(0x89, 0x06)      -- I/O port write
//	v = sim.read(0x88)         -- I/O port read
//	sim.step(100)              -- advance full clock cycles
//	sim.reset()                -- pulse reset
//	t = sim.time()             -- simulated time in ps
//	n = sim.frames()           -- completed frame count
//	v = sim.vram(addr)         -- shadow-memory word
//	sim.save_frame("f.png")    -- write the last completed frame
//	sim.log("text")            -- annotation through the harness log
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/vdpsim/sim"
)

// Run executes the Lua scenario at path against the harness.
func Run(h *sim.Harness, path string) error {
	L := lua.NewState()
	defer L.Close()

	register(L, h)
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("lua scenario: %w", err)
	}
	return nil
}

// RunString executes an inline Lua scenario. Used by tests.
func RunString(h *sim.Harness, src string) error {
	L := lua.NewState()
	defer L.Close()

	register(L, h)
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("lua scenario: %w", err)
	}
	return nil
}

// register installs the `sim` table into the Lua state.
func register(L *lua.LState, h *sim.Harness) {
	t := L.NewTable()

	L.SetField(t, "write", L.NewFunction(func(L *lua.LState) int {
		h.WritePort(uint8(L.CheckInt(1)), uint8(L.CheckInt(2)))
		return 0
	}))
	L.SetField(t, "read", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(h.ReadPort(uint8(L.CheckInt(1)))))
		return 1
	}))
	L.SetField(t, "step", L.NewFunction(func(L *lua.LState) int {
		h.StepCycles(L.CheckInt(1))
		return 0
	}))
	L.SetField(t, "reset", L.NewFunction(func(L *lua.LState) int {
		h.Reset()
		return 0
	}))
	L.SetField(t, "time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(h.TimePS()))
		return 1
	}))
	L.SetField(t, "frames", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(h.FrameCount()))
		return 1
	}))
	L.SetField(t, "vram", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(h.VRAM().Read(uint32(L.CheckInt(1)))))
		return 1
	}))
	L.SetField(t, "save_frame", L.NewFunction(func(L *lua.LState) int {
		frame := h.Capture().LastFrame()
		if frame == nil {
			L.RaiseError("no completed frame to save")
			return 0
		}
		if err := sim.SaveFramePNG(frame, L.CheckString(1)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetField(t, "log", L.NewFunction(func(L *lua.LState) int {
		// Annotations always print; scenarios use them as progress marks.
		fmt.Println(L.CheckString(1))
		return 0
	}))

	L.SetGlobal("sim", t)
}
