package vm

import (
	"encoding/binary"
	"math"

	"github.com/HugoDaniel/pngine/bytecode"
	"github.com/HugoDaniel/pngine/internal/varint"
)

// argShape declares an opcode's fixed argument layout exactly as
// bytecode.Emitter writes it: nVarints scalar varints, then nFloats f32
// fields, then — for the handful of opcodes that carry a resource-id list
// (create_shader_concat, create_pipeline_layout, execute_bundles) — a
// varint count followed by that many varints. This table is the decoder's
// half of bytecode/emitter.go; the two must stay in lockstep, which is why
// every entry below cites the Emitter method it mirrors.
type argShape struct {
	nVarints int
	nFloats  int
	hasList  bool
}

var opShapes = map[bytecode.Op]argShape{
	// Resource creation.
	bytecode.OpCreateBuffer:          {nVarints: 3},                 // CreateBuffer
	bytecode.OpCreateTexture:         {nVarints: 5},                 // CreateTexture
	bytecode.OpCreateSampler:         {nVarints: 2},                 // CreateSampler
	bytecode.OpCreateShaderModule:    {nVarints: 2},                 // CreateShaderModule
	bytecode.OpCreateShaderConcat:    {nVarints: 1, hasList: true},  // CreateShaderConcat
	bytecode.OpCreateRenderPipeline:  {nVarints: 2},                 // CreateRenderPipeline
	bytecode.OpCreateComputePipeline: {nVarints: 2},                 // CreateComputePipeline
	bytecode.OpCreateBindGroup:       {nVarints: 3},                 // CreateBindGroup
	bytecode.OpCreateBindGroupLayout: {nVarints: 2},                 // CreateBindGroupLayout
	bytecode.OpCreatePipelineLayout:  {nVarints: 1, hasList: true},  // CreatePipelineLayout
	bytecode.OpCreateTextureView:     {nVarints: 3},                 // CreateTextureView
	bytecode.OpCreateImageBitmap:     {nVarints: 2},                 // CreateImageBitmap
	bytecode.OpCreateQuerySet:        {nVarints: 2},                 // CreateQuerySet
	bytecode.OpCreateRenderBundle:    {nVarints: 2},                 // CreateRenderBundle

	// Pass operations.
	bytecode.OpBeginRenderPass:  {nVarints: 2},                // BeginRenderPass
	bytecode.OpBeginComputePass: {nVarints: 2},                // BeginComputePass
	bytecode.OpSetPipeline:      {nVarints: 1},                // SetPipeline
	bytecode.OpSetBindGroup:     {nVarints: 2},                // SetBindGroup
	bytecode.OpSetVertexBuffer:  {nVarints: 2},                // SetVertexBuffer
	bytecode.OpSetIndexBuffer:   {nVarints: 2},                // SetIndexBuffer
	bytecode.OpDraw:             {nVarints: 4},                // Draw
	bytecode.OpDrawIndexed:      {nVarints: 5},                // DrawIndexed
	bytecode.OpDispatch:         {nVarints: 3},                // Dispatch
	bytecode.OpEndPass:          {},                           // EndPass
	bytecode.OpExecuteBundles:   {hasList: true},              // ExecuteBundles

	// Queue operations.
	bytecode.OpWriteBuffer:                {nVarints: 3}, // WriteBuffer
	bytecode.OpWriteTimeUniform:            {nVarints: 2}, // WriteTimeUniform
	bytecode.OpCopyBufferToBuffer:          {nVarints: 5}, // CopyBufferToBuffer
	bytecode.OpCopyTextureToTexture:        {nVarints: 4}, // CopyTextureToTexture
	bytecode.OpWriteBufferFromWasm:         {nVarints: 3}, // WriteBufferFromWasm
	bytecode.OpCopyExternalImageToTexture:  {nVarints: 2}, // CopyExternalImageToTexture

	// Data generation.
	bytecode.OpCreateTypedArray:     {nVarints: 3},             // CreateTypedArray
	bytecode.OpFillConstant:         {nVarints: 2, nFloats: 1}, // FillConstant
	bytecode.OpFillLinear:           {nVarints: 2, nFloats: 2}, // FillLinear
	bytecode.OpFillElementIndex:     {nVarints: 2},             // FillElementIndex
	bytecode.OpFillRandom:           {nVarints: 3},             // FillRandom
	bytecode.OpFillExpression:       {nVarints: 3},             // FillExpression
	bytecode.OpWriteBufferFromArray: {nVarints: 2},             // WriteBufferFromArray

	// Frame structure.
	bytecode.OpDefineFrame:   {nVarints: 2}, // DefineFrame
	bytecode.OpDefinePass:    {nVarints: 2}, // DefinePass
	bytecode.OpEndPassDef:    {},            // EndPassDef
	bytecode.OpExecPass:      {nVarints: 1}, // ExecPass
	bytecode.OpExecPassOnce:  {nVarints: 1}, // ExecPassOnce
	bytecode.OpSubmit:        {},            // Submit
	bytecode.OpEnd:           {},            // End
}

// decoded is one fully-decoded instruction: its opcode, scalar varint
// arguments, trailing float arguments, and (for the few ops that carry one)
// its resource-id list.
type decoded struct {
	op      bytecode.Op
	ints    []uint32
	floats  []float32
	list    []uint32
	startPC int
	nextPC  int
}

// decodeAt decodes exactly one instruction starting at pc, returning the
// program counter just past it. It never reads past len(buf): a truncated
// varint or a missing float tail surfaces as ExecutionError, matching spec
// §7's "bytecode truncated/malformed mid-stream" failure mode.
func decodeAt(buf []byte, pc int) (decoded, error) {
	if pc >= len(buf) {
		return decoded{}, &ExecutionError{PC: pc, Message: "program counter past end of bytecode"}
	}
	op := bytecode.Op(buf[pc])
	shape, ok := opShapes[op]
	if !ok {
		// A byte value with no known argument shape cannot be safely
		// skipped (its length isn't declared anywhere) — spec §7 calls
		// this "truly unparsable", fatal for the frame.
		return decoded{}, &ExecutionError{PC: pc, Op: byte(op), Message: "unknown opcode, cannot resynchronize"}
	}

	p := pc + 1
	d := decoded{op: op, startPC: pc}

	d.ints = make([]uint32, shape.nVarints)
	for i := 0; i < shape.nVarints; i++ {
		r, err := varint.Decode(buf[p:])
		if err != nil {
			return decoded{}, &ExecutionError{PC: pc, Op: byte(op), Message: "truncated varint argument", Cause: err}
		}
		d.ints[i] = r.Value
		p += int(r.Len)
	}

	d.floats = make([]float32, shape.nFloats)
	for i := 0; i < shape.nFloats; i++ {
		if p+4 > len(buf) {
			return decoded{}, &ExecutionError{PC: pc, Op: byte(op), Message: "truncated float argument"}
		}
		d.floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[p : p+4]))
		p += 4
	}

	if shape.hasList {
		r, err := varint.Decode(buf[p:])
		if err != nil {
			return decoded{}, &ExecutionError{PC: pc, Op: byte(op), Message: "truncated list count", Cause: err}
		}
		count := int(r.Value)
		p += int(r.Len)
		d.list = make([]uint32, count)
		for i := 0; i < count; i++ {
			r2, err := varint.Decode(buf[p:])
			if err != nil {
				return decoded{}, &ExecutionError{PC: pc, Op: byte(op), Message: "truncated list element", Cause: err}
			}
			d.list[i] = r2.Value
			p += int(r2.Len)
		}
	}

	d.nextPC = p
	return d, nil
}
