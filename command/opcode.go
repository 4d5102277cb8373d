// Package command implements the runtime command buffer the VM dispatcher
// writes once per frame (spec §4.M): a distinct opcode numbering space from
// PNGB bytecode, read by the host's GPU executor rather than by PNGine
// itself. It is grounded on the teacher's CoreCommandEncoder/CommandBuffer
// split (core/command.go) — an append-only recording surface owned by a
// single writer, finished once per use — generalized from an encoder that
// wraps a HAL backend to one that wraps a plain byte buffer, since the
// command package never talks to a real GPU (§1 out of scope).
package command

// Op is a single-byte command-buffer opcode tag. Values are fixed by wire
// format (spec §4.M) and distinct from bytecode.Op's numbering, even where
// the mnemonic is shared (e.g. "draw" exists in both at different byte
// values, because the two streams are read by two different parsers at two
// different times).
type Op uint8

const (
	// Resource creation, 0x01..0x0D.
	OpCreateBuffer           Op = 0x01
	OpCreateTexture          Op = 0x02
	OpCreateSampler          Op = 0x03
	OpCreateShader           Op = 0x04
	OpCreateRenderPipeline   Op = 0x05
	OpCreateComputePipeline  Op = 0x06
	OpCreateBindGroup        Op = 0x07
	OpCreateTextureView      Op = 0x08
	OpCreateQuerySet         Op = 0x09
	OpCreateBindGroupLayout  Op = 0x0A
	OpCreateImageBitmap      Op = 0x0B
	OpCreatePipelineLayout   Op = 0x0C
	OpCreateRenderBundle     Op = 0x0D

	// Pass operations, 0x10..0x1A.
	OpBeginRenderPass  Op = 0x10
	OpBeginComputePass Op = 0x11
	OpSetPipeline      Op = 0x12
	OpSetBindGroup     Op = 0x13
	OpSetVertexBuffer  Op = 0x14
	OpDraw             Op = 0x15
	OpDrawIndexed      Op = 0x16
	OpEndPass          Op = 0x17
	OpDispatch         Op = 0x18
	OpSetIndexBuffer   Op = 0x19
	OpExecuteBundles   Op = 0x1A

	// Queue operations, 0x20..0x25.
	OpWriteBuffer                Op = 0x20
	OpWriteTimeUniform           Op = 0x21
	OpCopyBufferToBuffer         Op = 0x22
	OpCopyTextureToTexture       Op = 0x23
	OpWriteBufferFromWasm        Op = 0x24
	OpCopyExternalImageToTexture Op = 0x25

	// WASM operations.
	OpInitWasmModule Op = 0x30
	OpCallWasmFunc   Op = 0x31

	// Control.
	OpSubmit Op = 0xF0
	OpEnd    Op = 0xFF
)

var opNames = map[Op]string{
	OpCreateBuffer:               "create_buffer",
	OpCreateTexture:              "create_texture",
	OpCreateSampler:              "create_sampler",
	OpCreateShader:               "create_shader",
	OpCreateRenderPipeline:       "create_render_pipeline",
	OpCreateComputePipeline:      "create_compute_pipeline",
	OpCreateBindGroup:            "create_bind_group",
	OpCreateTextureView:          "create_texture_view",
	OpCreateQuerySet:             "create_query_set",
	OpCreateBindGroupLayout:      "create_bind_group_layout",
	OpCreateImageBitmap:          "create_image_bitmap",
	OpCreatePipelineLayout:       "create_pipeline_layout",
	OpCreateRenderBundle:         "create_render_bundle",
	OpBeginRenderPass:            "begin_render_pass",
	OpBeginComputePass:           "begin_compute_pass",
	OpSetPipeline:                "set_pipeline",
	OpSetBindGroup:               "set_bind_group",
	OpSetVertexBuffer:            "set_vertex_buffer",
	OpDraw:                       "draw",
	OpDrawIndexed:                "draw_indexed",
	OpEndPass:                    "end_pass",
	OpDispatch:                   "dispatch",
	OpSetIndexBuffer:             "set_index_buffer",
	OpExecuteBundles:             "execute_bundles",
	OpWriteBuffer:                "write_buffer",
	OpWriteTimeUniform:           "write_time_uniform",
	OpCopyBufferToBuffer:         "copy_buffer_to_buffer",
	OpCopyTextureToTexture:       "copy_texture_to_texture",
	OpWriteBufferFromWasm:        "write_buffer_from_wasm",
	OpCopyExternalImageToTexture: "copy_external_image_to_texture",
	OpInitWasmModule:             "init_wasm_module",
	OpCallWasmFunc:               "call_wasm_func",
	OpSubmit:                     "submit",
	OpEnd:                        "end",
}

// Name returns the opcode's mnemonic, for logging and error messages.
func (o Op) Name() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}
