package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/HugoDaniel/pngine/internal/varint"
)

// Emitter is an append-only byte buffer for PNGB bytecode. It does not
// validate references — the analyzer is the sole authority for that
// (spec §4.H) — and it never reorders or renumbers what it's given, so
// two emitters fed the same calls in the same order always produce
// byte-identical output.
type Emitter struct {
	buf []byte
}

// NewEmitter returns an emitter with no pre-sized capacity.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// NewEmitterWithCapacity pre-sizes the backing buffer, for callers (the
// codegen walk) that know roughly how many bytes a module will need.
func NewEmitterWithCapacity(capacity int) *Emitter {
	return &Emitter{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated bytecode.
func (e *Emitter) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes emitted so far.
func (e *Emitter) Len() int {
	return len(e.buf)
}

func (e *Emitter) op(o Op) {
	e.buf = append(e.buf, byte(o))
}

func (e *Emitter) varint(v uint32) {
	var tmp [varint.MaxLen]byte
	enc, n := varint.Encode(v, tmp[:0])
	e.buf = append(e.buf, enc[:n]...)
}

func (e *Emitter) f32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	e.buf = append(e.buf, b[:]...)
}

func (e *Emitter) byte(v uint8) {
	e.buf = append(e.buf, v)
}

// --- Resource creation ---

// CreateBuffer emits create_buffer(buffer_id, size_bytes, usage_bits).
func (e *Emitter) CreateBuffer(bufferID, sizeBytes, usageBits uint32) {
	e.op(OpCreateBuffer)
	e.varint(bufferID)
	e.varint(sizeBytes)
	e.varint(usageBits)
}

// CreateTexture emits create_texture(texture_id, width, height, format, usage_bits).
func (e *Emitter) CreateTexture(textureID, width, height, format, usageBits uint32) {
	e.op(OpCreateTexture)
	e.varint(textureID)
	e.varint(width)
	e.varint(height)
	e.varint(format)
	e.varint(usageBits)
}

// CreateSampler emits create_sampler(sampler_id, descriptor_data_id).
func (e *Emitter) CreateSampler(samplerID, descriptorDataID uint32) {
	e.op(OpCreateSampler)
	e.varint(samplerID)
	e.varint(descriptorDataID)
}

// CreateShaderModule emits create_shader_module(shader_id, data_id). The
// second argument MUST be a DataId resolved via WgslTable.DataIDFor, never
// a WgslId (spec §8 "Shader-data binding").
func (e *Emitter) CreateShaderModule(shaderID, dataID uint32) {
	e.op(OpCreateShaderModule)
	e.varint(shaderID)
	e.varint(dataID)
}

// CreateShaderConcat emits create_shader_concat(shader_id, part_count,
// part_data_ids...).
func (e *Emitter) CreateShaderConcat(shaderID uint32, partDataIDs []uint32) {
	e.op(OpCreateShaderConcat)
	e.varint(shaderID)
	e.varint(uint32(len(partDataIDs)))
	for _, id := range partDataIDs {
		e.varint(id)
	}
}

// CreateRenderPipeline emits create_render_pipeline(pipeline_id, descriptor_data_id).
func (e *Emitter) CreateRenderPipeline(pipelineID, descriptorDataID uint32) {
	e.op(OpCreateRenderPipeline)
	e.varint(pipelineID)
	e.varint(descriptorDataID)
}

// CreateComputePipeline emits create_compute_pipeline(pipeline_id, descriptor_data_id).
func (e *Emitter) CreateComputePipeline(pipelineID, descriptorDataID uint32) {
	e.op(OpCreateComputePipeline)
	e.varint(pipelineID)
	e.varint(descriptorDataID)
}

// CreateBindGroup emits create_bind_group(bind_group_id, layout_id, descriptor_data_id).
func (e *Emitter) CreateBindGroup(bindGroupID, layoutID, descriptorDataID uint32) {
	e.op(OpCreateBindGroup)
	e.varint(bindGroupID)
	e.varint(layoutID)
	e.varint(descriptorDataID)
}

// CreateBindGroupLayout emits create_bind_group_layout(layout_id, descriptor_data_id).
func (e *Emitter) CreateBindGroupLayout(layoutID, descriptorDataID uint32) {
	e.op(OpCreateBindGroupLayout)
	e.varint(layoutID)
	e.varint(descriptorDataID)
}

// CreatePipelineLayout emits create_pipeline_layout(layout_id, bind_group_layout_count, bind_group_layout_ids...).
func (e *Emitter) CreatePipelineLayout(layoutID uint32, bindGroupLayoutIDs []uint32) {
	e.op(OpCreatePipelineLayout)
	e.varint(layoutID)
	e.varint(uint32(len(bindGroupLayoutIDs)))
	for _, id := range bindGroupLayoutIDs {
		e.varint(id)
	}
}

// CreateTextureView emits create_texture_view(view_id, texture_id, descriptor_data_id).
func (e *Emitter) CreateTextureView(viewID, textureID, descriptorDataID uint32) {
	e.op(OpCreateTextureView)
	e.varint(viewID)
	e.varint(textureID)
	e.varint(descriptorDataID)
}

// CreateImageBitmap emits create_image_bitmap(texture_id, source_data_id).
func (e *Emitter) CreateImageBitmap(textureID, sourceDataID uint32) {
	e.op(OpCreateImageBitmap)
	e.varint(textureID)
	e.varint(sourceDataID)
}

// CreateQuerySet emits create_query_set(query_set_id, descriptor_data_id).
func (e *Emitter) CreateQuerySet(querySetID, descriptorDataID uint32) {
	e.op(OpCreateQuerySet)
	e.varint(querySetID)
	e.varint(descriptorDataID)
}

// CreateRenderBundle emits create_render_bundle(bundle_id, descriptor_data_id).
func (e *Emitter) CreateRenderBundle(bundleID, descriptorDataID uint32) {
	e.op(OpCreateRenderBundle)
	e.varint(bundleID)
	e.varint(descriptorDataID)
}

// --- Pass operations ---

// BeginRenderPass emits begin_render_pass(pass_id, descriptor_data_id).
func (e *Emitter) BeginRenderPass(passID, descriptorDataID uint32) {
	e.op(OpBeginRenderPass)
	e.varint(passID)
	e.varint(descriptorDataID)
}

// BeginComputePass emits begin_compute_pass(pass_id, descriptor_data_id).
func (e *Emitter) BeginComputePass(passID, descriptorDataID uint32) {
	e.op(OpBeginComputePass)
	e.varint(passID)
	e.varint(descriptorDataID)
}

// SetPipeline emits set_pipeline(pipeline_id).
func (e *Emitter) SetPipeline(pipelineID uint32) {
	e.op(OpSetPipeline)
	e.varint(pipelineID)
}

// SetBindGroup emits set_bind_group(group_index, bind_group_id).
func (e *Emitter) SetBindGroup(groupIndex, bindGroupID uint32) {
	e.op(OpSetBindGroup)
	e.varint(groupIndex)
	e.varint(bindGroupID)
}

// SetVertexBuffer emits set_vertex_buffer(slot, buffer_id).
func (e *Emitter) SetVertexBuffer(slot, bufferID uint32) {
	e.op(OpSetVertexBuffer)
	e.varint(slot)
	e.varint(bufferID)
}

// SetIndexBuffer emits set_index_buffer(buffer_id, format).
func (e *Emitter) SetIndexBuffer(bufferID, format uint32) {
	e.op(OpSetIndexBuffer)
	e.varint(bufferID)
	e.varint(format)
}

// Draw emits draw(vertex_count, instance_count, first_vertex, first_instance).
func (e *Emitter) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.op(OpDraw)
	e.varint(vertexCount)
	e.varint(instanceCount)
	e.varint(firstVertex)
	e.varint(firstInstance)
}

// DrawIndexed emits draw_indexed(index_count, instance_count, first_index, base_vertex, first_instance).
func (e *Emitter) DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance uint32) {
	e.op(OpDrawIndexed)
	e.varint(indexCount)
	e.varint(instanceCount)
	e.varint(firstIndex)
	e.varint(baseVertex)
	e.varint(firstInstance)
}

// Dispatch emits dispatch(x, y, z) workgroup counts.
func (e *Emitter) Dispatch(x, y, z uint32) {
	e.op(OpDispatch)
	e.varint(x)
	e.varint(y)
	e.varint(z)
}

// EndPass emits end_pass() with no arguments.
func (e *Emitter) EndPass() {
	e.op(OpEndPass)
}

// ExecuteBundles emits execute_bundles(bundle_count, bundle_ids...).
func (e *Emitter) ExecuteBundles(bundleIDs []uint32) {
	e.op(OpExecuteBundles)
	e.varint(uint32(len(bundleIDs)))
	for _, id := range bundleIDs {
		e.varint(id)
	}
}

// --- Queue operations ---

// WriteBuffer emits write_buffer(buffer_id, offset_bytes, data_id).
func (e *Emitter) WriteBuffer(bufferID, offsetBytes, dataID uint32) {
	e.op(OpWriteBuffer)
	e.varint(bufferID)
	e.varint(offsetBytes)
	e.varint(dataID)
}

// WriteTimeUniform emits write_time_uniform(buffer_id, offset_bytes).
func (e *Emitter) WriteTimeUniform(bufferID, offsetBytes uint32) {
	e.op(OpWriteTimeUniform)
	e.varint(bufferID)
	e.varint(offsetBytes)
}

// CopyBufferToBuffer emits copy_buffer_to_buffer(src_id, src_offset, dst_id, dst_offset, size).
func (e *Emitter) CopyBufferToBuffer(srcID, srcOffset, dstID, dstOffset, size uint32) {
	e.op(OpCopyBufferToBuffer)
	e.varint(srcID)
	e.varint(srcOffset)
	e.varint(dstID)
	e.varint(dstOffset)
	e.varint(size)
}

// CopyTextureToTexture emits copy_texture_to_texture(src_id, dst_id, width, height).
func (e *Emitter) CopyTextureToTexture(srcID, dstID, width, height uint32) {
	e.op(OpCopyTextureToTexture)
	e.varint(srcID)
	e.varint(dstID)
	e.varint(width)
	e.varint(height)
}

// WriteBufferFromWasm emits write_buffer_from_wasm(buffer_id, offset_bytes, wasm_call_id).
func (e *Emitter) WriteBufferFromWasm(bufferID, offsetBytes, wasmCallID uint32) {
	e.op(OpWriteBufferFromWasm)
	e.varint(bufferID)
	e.varint(offsetBytes)
	e.varint(wasmCallID)
}

// CopyExternalImageToTexture emits copy_external_image_to_texture(texture_id, source_data_id).
func (e *Emitter) CopyExternalImageToTexture(textureID, sourceDataID uint32) {
	e.op(OpCopyExternalImageToTexture)
	e.varint(textureID)
	e.varint(sourceDataID)
}

// --- Data generation ---

// CreateTypedArray emits create_typed_array(data_id, element_type, count).
func (e *Emitter) CreateTypedArray(dataID, elementType, count uint32) {
	e.op(OpCreateTypedArray)
	e.varint(dataID)
	e.varint(elementType)
	e.varint(count)
}

// FillConstant emits fill_constant(data_id, count, value).
func (e *Emitter) FillConstant(dataID, count uint32, value float32) {
	e.op(OpFillConstant)
	e.varint(dataID)
	e.varint(count)
	e.f32(value)
}

// FillLinear emits fill_linear(data_id, count, start, step).
func (e *Emitter) FillLinear(dataID, count uint32, start, step float32) {
	e.op(OpFillLinear)
	e.varint(dataID)
	e.varint(count)
	e.f32(start)
	e.f32(step)
}

// FillElementIndex emits fill_element_index(data_id, count).
func (e *Emitter) FillElementIndex(dataID, count uint32) {
	e.op(OpFillElementIndex)
	e.varint(dataID)
	e.varint(count)
}

// FillRandom emits fill_random(data_id, count, seed).
func (e *Emitter) FillRandom(dataID, count, seed uint32) {
	e.op(OpFillRandom)
	e.varint(dataID)
	e.varint(count)
	e.varint(seed)
}

// FillExpression emits fill_expression(data_id, count, expression_string_id).
func (e *Emitter) FillExpression(dataID, count, expressionStringID uint32) {
	e.op(OpFillExpression)
	e.varint(dataID)
	e.varint(count)
	e.varint(expressionStringID)
}

// WriteBufferFromArray emits write_buffer_from_array(buffer_id, data_id).
func (e *Emitter) WriteBufferFromArray(bufferID, dataID uint32) {
	e.op(OpWriteBufferFromArray)
	e.varint(bufferID)
	e.varint(dataID)
}

// --- Frame structure ---

// DefineFrame emits define_frame(frame_id, name_string_id).
func (e *Emitter) DefineFrame(frameID, nameStringID uint32) {
	e.op(OpDefineFrame)
	e.varint(frameID)
	e.varint(nameStringID)
}

// DefinePass emits define_pass(pass_id, name_string_id).
func (e *Emitter) DefinePass(passID, nameStringID uint32) {
	e.op(OpDefinePass)
	e.varint(passID)
	e.varint(nameStringID)
}

// EndPassDef emits end_pass_def() with no arguments.
func (e *Emitter) EndPassDef() {
	e.op(OpEndPassDef)
}

// ExecPass emits exec_pass(pass_id).
func (e *Emitter) ExecPass(passID uint32) {
	e.op(OpExecPass)
	e.varint(passID)
}

// ExecPassOnce emits exec_pass_once(pass_id).
func (e *Emitter) ExecPassOnce(passID uint32) {
	e.op(OpExecPassOnce)
	e.varint(passID)
}

// Submit emits submit() with no arguments.
func (e *Emitter) Submit() {
	e.op(OpSubmit)
}

// End emits end() with no arguments, terminating the bytecode stream.
func (e *Emitter) End() {
	e.op(OpEnd)
}
