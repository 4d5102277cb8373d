package vm

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"math/rand"

	"github.com/HugoDaniel/pngine/bytecode"
	"github.com/HugoDaniel/pngine/command"
	"github.com/HugoDaniel/pngine/format"
)

// execFrame is one entry in the dispatcher's own explicit call stack
// (spec §9: "no recursion is used anywhere"). Instead of recursing into a
// pass body when an exec_pass is hit, run pushes a new execFrame spanning
// that body's byte range and the outer for loop keeps going.
type execFrame struct {
	pc  int
	end int
}

// run walks buf from start to end, translating every instruction into the
// command encoder (or, for define_pass/exec_pass, into stack bookkeeping).
// passBodies is shared across the whole Dispatch call so a pass defined in
// the setup prefix can be executed from within a frame body.
func (d *Dispatcher) run(buf []byte, start, end int, enc *command.Encoder, passBodies map[uint32][2]int, state State) error {
	stack := []execFrame{{pc: start, end: end}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.pc >= top.end {
			stack = stack[:len(stack)-1]
			continue
		}

		dec, err := decodeAt(buf, top.pc)
		if err != nil {
			return err
		}
		top.pc = dec.nextPC

		switch dec.op {
		case bytecode.OpDefinePass:
			passID := dec.ints[0]
			bodyEnd, skipTo, err := scanPassBody(buf, dec.nextPC)
			if err != nil {
				return err
			}
			passBodies[passID] = [2]int{dec.nextPC, bodyEnd}
			top.pc = skipTo

		case bytecode.OpEndPassDef:
			// Only reachable if a pass body is replayed without its
			// surrounding define_pass/end_pass_def being stripped first;
			// scanPassBody and the frame ranges built by indexFrames never
			// include this op, so there is nothing to do here.

		case bytecode.OpExecPass:
			if body, ok := passBodies[dec.ints[0]]; ok {
				stack = append(stack, execFrame{pc: body[0], end: body[1]})
			} else {
				d.log.Warnf("vm: exec_pass references undefined pass %d", dec.ints[0])
			}

		case bytecode.OpExecPassOnce:
			passID := dec.ints[0]
			if d.onceRun[passID] {
				continue
			}
			body, ok := passBodies[passID]
			if !ok {
				d.log.Warnf("vm: exec_pass_once references undefined pass %d", passID)
				continue
			}
			d.onceRun[passID] = true
			stack = append(stack, execFrame{pc: body[0], end: body[1]})

		case bytecode.OpSubmit:
			enc.Submit()

		default:
			if err := d.execOp(dec, enc, state); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanPassBody decodes forward from pc, never executing, until it finds
// the end_pass_def matching the define_pass that led here (pass bodies do
// not nest per spec grammar, so the first one found is always the match).
// It returns the body's [pc, bodyEnd) range and the program counter just
// past end_pass_def, where the caller should resume.
func scanPassBody(buf []byte, pc int) (bodyEnd, skipTo int, err error) {
	for pc < len(buf) {
		dec, derr := decodeAt(buf, pc)
		if derr != nil {
			return 0, 0, derr
		}
		if dec.op == bytecode.OpEndPassDef {
			return dec.startPC, dec.nextPC, nil
		}
		pc = dec.nextPC
	}
	return 0, 0, &ExecutionError{PC: pc, Message: "define_pass missing matching end_pass_def"}
}

// concatSyntheticBase tags the synthetic DataIds the dispatcher mints to
// hold concatenated shader source (create_shader_concat has no single
// DataId of its own to hand the command buffer's create_shader). Real
// DataIds are uint16, so this high bit can never collide with one; a
// GPUExecutor only ever sees these through RuntimeData, never through
// Module.Data, because the contract is to check the overlay first.
const concatSyntheticBase uint32 = 1 << 31

// execOp dispatches a single decoded leaf instruction: everything that
// isn't pass-definition/exec/submit bookkeeping (those are handled
// directly in run, since they affect the stack rather than produce a
// command).
func (d *Dispatcher) execOp(dec decoded, enc *command.Encoder, state State) error {
	switch dec.op {
	// --- Resource creation: idempotent across calls (spec §4.N.4) ---

	case bytecode.OpCreateBuffer:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateBuffer(dec.ints[0], dec.ints[1], dec.ints[2])

	case bytecode.OpCreateTexture:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateTexture(dec.ints[0], dec.ints[1], dec.ints[2], dec.ints[3], dec.ints[4])

	case bytecode.OpCreateSampler:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateSampler(dec.ints[0], dec.ints[1])

	case bytecode.OpCreateShaderModule:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateShader(dec.ints[0], dec.ints[1])

	case bytecode.OpCreateShaderConcat:
		shaderID := dec.ints[0]
		if d.onceCreate(dec.op, shaderID) {
			return nil
		}
		var joined []byte
		for _, partID := range dec.list {
			part, err := d.mod.Data.Get(format.DataID(partID))
			if err != nil {
				return &ExecutionError{PC: dec.startPC, Op: byte(dec.op), Message: "create_shader_concat part data id not found", Cause: err}
			}
			joined = append(joined, part...)
		}
		syntheticID := concatSyntheticBase | shaderID
		d.runtimeData[syntheticID] = joined
		enc.CreateShader(shaderID, syntheticID)

	case bytecode.OpCreateRenderPipeline:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateRenderPipeline(dec.ints[0], dec.ints[1])

	case bytecode.OpCreateComputePipeline:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateComputePipeline(dec.ints[0], dec.ints[1])

	case bytecode.OpCreateBindGroup:
		return d.execCreateBindGroup(dec, enc)

	case bytecode.OpCreateBindGroupLayout:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateBindGroupLayout(dec.ints[0], dec.ints[1])

	case bytecode.OpCreatePipelineLayout:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreatePipelineLayout(dec.ints[0], dec.list)

	case bytecode.OpCreateTextureView:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateTextureView(dec.ints[0], dec.ints[1], dec.ints[2])

	case bytecode.OpCreateImageBitmap:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateImageBitmap(dec.ints[0], dec.ints[1])

	case bytecode.OpCreateQuerySet:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateQuerySet(dec.ints[0], dec.ints[1])

	case bytecode.OpCreateRenderBundle:
		if d.onceCreate(dec.op, dec.ints[0]) {
			return nil
		}
		enc.CreateRenderBundle(dec.ints[0], dec.ints[1])

	// --- Pass operations: re-emitted every time the enclosing pass runs ---

	case bytecode.OpBeginRenderPass:
		enc.BeginRenderPass(dec.ints[0], dec.ints[1])
	case bytecode.OpBeginComputePass:
		enc.BeginComputePass(dec.ints[0], dec.ints[1])
	case bytecode.OpSetPipeline:
		enc.SetPipeline(dec.ints[0])
	case bytecode.OpSetBindGroup:
		enc.SetBindGroup(dec.ints[0], dec.ints[1])
	case bytecode.OpSetVertexBuffer:
		enc.SetVertexBuffer(dec.ints[0], dec.ints[1])
	case bytecode.OpSetIndexBuffer:
		enc.SetIndexBuffer(dec.ints[0], dec.ints[1])
	case bytecode.OpDraw:
		enc.Draw(dec.ints[0], dec.ints[1], dec.ints[2], dec.ints[3])
	case bytecode.OpDrawIndexed:
		enc.DrawIndexed(dec.ints[0], dec.ints[1], dec.ints[2], dec.ints[3], dec.ints[4])
	case bytecode.OpDispatch:
		enc.Dispatch(dec.ints[0], dec.ints[1], dec.ints[2])
	case bytecode.OpEndPass:
		enc.EndPass()
	case bytecode.OpExecuteBundles:
		enc.ExecuteBundles(dec.list)

	// --- Queue operations: re-run every call (spec §4.F "queue writes") ---

	case bytecode.OpWriteBuffer:
		enc.WriteBuffer(dec.ints[0], dec.ints[1], dec.ints[2])
	case bytecode.OpWriteTimeUniform:
		enc.WriteTimeUniform(dec.ints[0], dec.ints[1], state.TimeSeconds)
	case bytecode.OpCopyBufferToBuffer:
		enc.CopyBufferToBuffer(dec.ints[0], dec.ints[1], dec.ints[2], dec.ints[3], dec.ints[4])
	case bytecode.OpCopyTextureToTexture:
		enc.CopyTextureToTexture(dec.ints[0], dec.ints[1], dec.ints[2], dec.ints[3])
	case bytecode.OpWriteBufferFromWasm:
		enc.WriteBufferFromWasm(dec.ints[0], dec.ints[1], dec.ints[2])
	case bytecode.OpCopyExternalImageToTexture:
		enc.CopyExternalImageToTexture(dec.ints[0], dec.ints[1])
	case bytecode.OpWriteBufferFromArray:
		enc.WriteBuffer(dec.ints[0], 0, dec.ints[1])

	// --- Data generation: realized once into the runtime overlay ---

	case bytecode.OpCreateTypedArray:
		dataID := dec.ints[0]
		if d.onceCreate(dec.op, dataID) {
			return nil
		}
		count := dec.ints[2]
		d.runtimeData[dataID] = make([]byte, count*4)

	case bytecode.OpFillConstant:
		dataID, count := dec.ints[0], dec.ints[1]
		if d.onceCreate(dec.op, dataID) {
			return nil
		}
		d.fillFloats(dataID, count, func(i uint32) float32 { return dec.floats[0] })

	case bytecode.OpFillLinear:
		dataID, count := dec.ints[0], dec.ints[1]
		if d.onceCreate(dec.op, dataID) {
			return nil
		}
		start, step := dec.floats[0], dec.floats[1]
		d.fillFloats(dataID, count, func(i uint32) float32 { return start + float32(i)*step })

	case bytecode.OpFillElementIndex:
		dataID, count := dec.ints[0], dec.ints[1]
		if d.onceCreate(dec.op, dataID) {
			return nil
		}
		d.fillFloats(dataID, count, func(i uint32) float32 { return float32(i) })

	case bytecode.OpFillRandom:
		dataID, count, seed := dec.ints[0], dec.ints[1], dec.ints[2]
		if d.onceCreate(dec.op, dataID) {
			return nil
		}
		r := rand.New(rand.NewSource(int64(seed)))
		d.fillFloats(dataID, count, func(i uint32) float32 { return r.Float32() })

	case bytecode.OpFillExpression:
		// No expression evaluator is specified for the dispatcher (spec
		// has no bytecode-level arithmetic VM); a host that needs this
		// data must realize it itself. Leaving the slot unrealized here
		// means a GPUExecutor falls through to whatever placeholder the
		// compiler wrote into the Module's DataSection.
		d.log.Warnf("vm: fill_expression for data id %d is not evaluated by the dispatcher", dec.ints[0])

	// --- Frame/pass structure opcodes should never reach here ---

	case bytecode.OpDefineFrame, bytecode.OpEnd:
		d.log.Warnf("vm: unexpected %s encountered mid-range", dec.op.Name())

	default:
		d.log.Warnf("vm: no handler for opcode %s", dec.op.Name())
	}
	return nil
}

// fillFloats writes count little-endian float32 values computed by gen
// into the runtime overlay at dataID.
func (d *Dispatcher) fillFloats(dataID uint32, count uint32, gen func(i uint32) float32) {
	out := make([]byte, count*4)
	for i := uint32(0); i < count; i++ {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(gen(i)))
	}
	d.runtimeData[dataID] = out
}

// execCreateBindGroup translates create_bind_group. A descriptor that
// references a pool buffer (spec §4.K.5's {bufferId, poolWidth, offset}
// shape, produced by codegen's resolveRefJSON) is frame-variant by
// construction, so it is exempt from the idempotent-creation rule and is
// re-resolved and re-emitted on every call; a descriptor with no pool
// reference behaves like any other resource creation and is emitted once.
func (d *Dispatcher) execCreateBindGroup(dec decoded, enc *command.Encoder) error {
	bindGroupID, layoutID, descID := dec.ints[0], dec.ints[1], dec.ints[2]

	raw, err := d.mod.Data.Get(format.DataID(descID))
	if err != nil {
		return &ExecutionError{PC: dec.startPC, Op: byte(dec.op), Message: "create_bind_group descriptor data id not found", Cause: err}
	}

	var val interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &val) != nil {
		if d.onceCreate(dec.op, bindGroupID) {
			return nil
		}
		enc.CreateBindGroup(bindGroupID, layoutID, descID)
		return nil
	}

	rewritten, hasPool := d.rewritePoolRefs(val)
	if !hasPool {
		if d.onceCreate(dec.op, bindGroupID) {
			return nil
		}
		enc.CreateBindGroup(bindGroupID, layoutID, descID)
		return nil
	}

	out, err := json.Marshal(rewritten)
	if err != nil {
		return &ExecutionError{PC: dec.startPC, Op: byte(dec.op), Message: "failed to re-encode pool-rotated bind group descriptor", Cause: err}
	}
	d.runtimeData[descID] = out
	enc.CreateBindGroup(bindGroupID, layoutID, descID)
	return nil
}

// rewritePoolRefs walks a decoded JSON descriptor tree replacing every
// {"bufferId", "poolWidth", "offset"} object (the exact shape
// codegen.resolveRefJSON emits for a pool buffer reference) with the
// rotated buffer id for the current frame (spec §4.K.5:
// actual_id = base_id + (frame_counter + offset) mod pool_width). This
// walk is bounded and compiler-authored — a shallow descriptor tree, not
// an adversarial or cyclic graph — so ordinary recursion is appropriate
// here, unlike the bytecode traversal in run, which spec §9 requires to
// stay iterative.
func (d *Dispatcher) rewritePoolRefs(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) == 3 {
			bufferID, ok1 := t["bufferId"].(float64)
			poolWidth, ok2 := t["poolWidth"].(float64)
			offset, ok3 := t["offset"].(float64)
			if ok1 && ok2 && ok3 {
				n := int(poolWidth)
				if n < 1 {
					n = 1
				}
				actual := int(bufferID) + (int(d.frameCounter)+int(offset))%n
				return float64(actual), true
			}
		}
		out := make(map[string]interface{}, len(t))
		any := false
		for k, vv := range t {
			r, found := d.rewritePoolRefs(vv)
			out[k] = r
			any = any || found
		}
		return out, any
	case []interface{}:
		out := make([]interface{}, len(t))
		any := false
		for i, vv := range t {
			r, found := d.rewritePoolRefs(vv)
			out[i] = r
			any = any || found
		}
		return out, any
	default:
		return v, false
	}
}
