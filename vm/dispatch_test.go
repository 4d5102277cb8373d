package vm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/HugoDaniel/pngine/bytecode"
	"github.com/HugoDaniel/pngine/format"
)

func cmdCount(t *testing.T, buf []byte) uint16 {
	t.Helper()
	if len(buf) < 8 {
		t.Fatalf("command buffer too short: %d bytes", len(buf))
	}
	return uint16(buf[4]) | uint16(buf[5])<<8
}

func TestDispatchResourceCreationIsIdempotent(t *testing.T) {
	e := bytecode.NewEmitter()
	e.CreateBuffer(1, 64, 1)
	e.DefineFrame(0, 0)
	e.Submit()
	e.End()

	mod := format.NewModule()
	mod.Bytecode = e.Bytes()

	d, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := d.Dispatch(State{})
	if err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	if got := cmdCount(t, first); got != 2 {
		t.Fatalf("first Dispatch cmd_count = %d, want 2 (create_buffer + submit)", got)
	}

	second, err := d.Dispatch(State{})
	if err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if got := cmdCount(t, second); got != 1 {
		t.Fatalf("second Dispatch cmd_count = %d, want 1 (create_buffer skipped)", got)
	}
}

func TestDispatchUnknownOpcodeIsFatal(t *testing.T) {
	mod := format.NewModule()
	mod.Bytecode = []byte{0xEE, 0x00}

	d, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = d.Dispatch(State{})
	if err == nil {
		t.Fatal("Dispatch succeeded on an unknown opcode, want ExecutionError")
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecutionError", err)
	}
}

func TestDispatchSelectsFrameByAnimationScene(t *testing.T) {
	e := bytecode.NewEmitter()
	e.DefineFrame(0, 0) // name interned below as "a"
	e.Draw(1, 1, 0, 0)
	e.DefineFrame(1, 1) // name "b"
	e.Draw(2, 1, 0, 0)
	e.End()

	mod := format.NewModule()
	mod.Bytecode = e.Bytes()
	if _, err := mod.Strings.Intern("a"); err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if _, err := mod.Strings.Intern("b"); err != nil {
		t.Fatalf("Intern: %v", err)
	}
	mod.Animation.HasAnimation = true
	mod.Animation.EndBehavior = format.EndHold
	mod.Animation.Scenes = []format.Scene{
		{FrameStringID: 0, StartMs: 0, EndMs: 1000},
		{FrameStringID: 1, StartMs: 1000, EndMs: 2000},
	}

	d, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	atA, err := d.Dispatch(State{HasAnimationTime: true, AnimationTimeMs: 500})
	if err != nil {
		t.Fatalf("Dispatch (scene a): %v", err)
	}
	if got := cmdCount(t, atA); got != 1 {
		t.Fatalf("scene a cmd_count = %d, want 1 (one draw)", got)
	}

	atB, err := d.Dispatch(State{HasAnimationTime: true, AnimationTimeMs: 1500})
	if err != nil {
		t.Fatalf("Dispatch (scene b): %v", err)
	}
	if got := cmdCount(t, atB); got != 1 {
		t.Fatalf("scene b cmd_count = %d, want 1 (one draw)", got)
	}
}

func TestDispatchFillRandomIsDeterministic(t *testing.T) {
	e := bytecode.NewEmitter()
	e.CreateTypedArray(0, 0, 4)
	e.FillRandom(0, 4, 42)
	e.DefineFrame(0, 0)
	e.Submit()
	e.End()

	mod := format.NewModule()
	mod.Bytecode = e.Bytes()

	d1, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d1.Dispatch(State{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	first, ok := d1.RuntimeData(0)
	if !ok {
		t.Fatal("expected runtime data for data id 0")
	}

	d2, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d2.Dispatch(State{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	second, ok := d2.RuntimeData(0)
	if !ok {
		t.Fatal("expected runtime data for data id 0")
	}

	if string(first) != string(second) {
		t.Fatal("fill_random with a fixed seed produced different bytes across dispatchers")
	}

	if _, err := d1.Dispatch(State{}); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	again, _ := d1.RuntimeData(0)
	if string(again) != string(first) {
		t.Fatal("fill_random re-ran on a later Dispatch call instead of staying idempotent")
	}
}

func TestDispatchRotatesPoolBindGroupDescriptor(t *testing.T) {
	descriptor := map[string]interface{}{
		"entries": []interface{}{
			map[string]interface{}{"bufferId": float64(10), "poolWidth": float64(3), "offset": float64(0)},
		},
	}
	raw, err := json.Marshal(descriptor)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	mod := format.NewModule()
	descID := mod.Data.AddBytes(raw)

	e := bytecode.NewEmitter()
	e.CreateBindGroup(0, 0, uint32(descID))
	e.DefineFrame(0, 0)
	e.Submit()
	e.End()
	mod.Bytecode = e.Bytes()

	d, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.Dispatch(State{}); err != nil {
		t.Fatalf("Dispatch 1: %v", err)
	}
	rotated1, ok := d.RuntimeData(uint32(descID))
	if !ok {
		t.Fatal("expected a rewritten descriptor in the runtime overlay")
	}

	if _, err := d.Dispatch(State{}); err != nil {
		t.Fatalf("Dispatch 2: %v", err)
	}
	rotated2, ok := d.RuntimeData(uint32(descID))
	if !ok {
		t.Fatal("expected a rewritten descriptor in the runtime overlay")
	}

	if string(rotated1) == string(rotated2) {
		t.Fatal("pool bind group descriptor did not rotate across frames")
	}
}

func TestDispatchNilModuleFails(t *testing.T) {
	if _, err := New(nil); err != ErrNoModule {
		t.Fatalf("New(nil) err = %v, want ErrNoModule", err)
	}
}

func TestDispatchExecPassOnceRunsOnce(t *testing.T) {
	e := bytecode.NewEmitter()
	e.DefinePass(0, 0)
	e.Draw(1, 1, 0, 0)
	e.EndPassDef()
	e.ExecPassOnce(0)
	e.DefineFrame(0, 0)
	e.ExecPassOnce(0)
	e.End()

	mod := format.NewModule()
	mod.Bytecode = e.Bytes()

	d, err := New(mod)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := d.Dispatch(State{})
	if err != nil {
		t.Fatalf("Dispatch 1: %v", err)
	}
	if got := cmdCount(t, first); got != 1 {
		t.Fatalf("first Dispatch cmd_count = %d, want 1 (one draw, from the prefix's exec_pass_once)", got)
	}

	second, err := d.Dispatch(State{})
	if err != nil {
		t.Fatalf("Dispatch 2: %v", err)
	}
	if got := cmdCount(t, second); got != 0 {
		t.Fatalf("second Dispatch cmd_count = %d, want 0 (both exec_pass_once calls already ran)", got)
	}
}
