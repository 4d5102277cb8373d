// Package bytecode defines the PNGB opcode set and the append-only
// emitter that writes it (spec §4.H). PNGB opcodes are a distinct
// vocabulary from the runtime command buffer's (§4.M, implemented by
// the sibling command package): the same op name can and does appear in
// both, at different byte values, because the two formats are read by
// two different parsers at two different times.
package bytecode

// Op is a single-byte PNGB opcode tag.
type Op uint8

const (
	_ Op = iota

	// Resource creation.
	OpCreateBuffer
	OpCreateTexture
	OpCreateSampler
	OpCreateShaderModule
	OpCreateShaderConcat
	OpCreateRenderPipeline
	OpCreateComputePipeline
	OpCreateBindGroup
	OpCreateBindGroupLayout
	OpCreatePipelineLayout
	OpCreateTextureView
	OpCreateImageBitmap
	OpCreateQuerySet
	OpCreateRenderBundle

	// Pass operations.
	OpBeginRenderPass
	OpBeginComputePass
	OpSetPipeline
	OpSetBindGroup
	OpSetVertexBuffer
	OpSetIndexBuffer
	OpDraw
	OpDrawIndexed
	OpDispatch
	OpEndPass
	OpExecuteBundles

	// Queue operations.
	OpWriteBuffer
	OpWriteTimeUniform
	OpCopyBufferToBuffer
	OpCopyTextureToTexture
	OpWriteBufferFromWasm
	OpCopyExternalImageToTexture

	// Data generation.
	OpCreateTypedArray
	OpFillConstant
	OpFillLinear
	OpFillElementIndex
	OpFillRandom
	OpFillExpression
	OpWriteBufferFromArray

	// Frame structure.
	OpDefineFrame
	OpDefinePass
	OpEndPassDef
	OpExecPass
	OpExecPassOnce
	OpSubmit
	OpEnd
)

// Name returns the opcode's mnemonic, for logging and error messages.
func (o Op) Name() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

var opNames = map[Op]string{
	OpCreateBuffer:               "create_buffer",
	OpCreateTexture:              "create_texture",
	OpCreateSampler:              "create_sampler",
	OpCreateShaderModule:         "create_shader_module",
	OpCreateShaderConcat:         "create_shader_concat",
	OpCreateRenderPipeline:       "create_render_pipeline",
	OpCreateComputePipeline:      "create_compute_pipeline",
	OpCreateBindGroup:            "create_bind_group",
	OpCreateBindGroupLayout:      "create_bind_group_layout",
	OpCreatePipelineLayout:       "create_pipeline_layout",
	OpCreateTextureView:          "create_texture_view",
	OpCreateImageBitmap:          "create_image_bitmap",
	OpCreateQuerySet:             "create_query_set",
	OpCreateRenderBundle:         "create_render_bundle",
	OpBeginRenderPass:            "begin_render_pass",
	OpBeginComputePass:           "begin_compute_pass",
	OpSetPipeline:                "set_pipeline",
	OpSetBindGroup:               "set_bind_group",
	OpSetVertexBuffer:            "set_vertex_buffer",
	OpSetIndexBuffer:             "set_index_buffer",
	OpDraw:                       "draw",
	OpDrawIndexed:                "draw_indexed",
	OpDispatch:                   "dispatch",
	OpEndPass:                    "end_pass",
	OpExecuteBundles:             "execute_bundles",
	OpWriteBuffer:                "write_buffer",
	OpWriteTimeUniform:           "write_time_uniform",
	OpCopyBufferToBuffer:         "copy_buffer_to_buffer",
	OpCopyTextureToTexture:       "copy_texture_to_texture",
	OpWriteBufferFromWasm:        "write_buffer_from_wasm",
	OpCopyExternalImageToTexture: "copy_external_image_to_texture",
	OpCreateTypedArray:           "create_typed_array",
	OpFillConstant:               "fill_constant",
	OpFillLinear:                 "fill_linear",
	OpFillElementIndex:           "fill_element_index",
	OpFillRandom:                 "fill_random",
	OpFillExpression:             "fill_expression",
	OpWriteBufferFromArray:       "write_buffer_from_array",
	OpDefineFrame:                "define_frame",
	OpDefinePass:                 "define_pass",
	OpEndPassDef:                 "end_pass_def",
	OpExecPass:                   "exec_pass",
	OpExecPassOnce:               "exec_pass_once",
	OpSubmit:                     "submit",
	OpEnd:                        "end",
}
