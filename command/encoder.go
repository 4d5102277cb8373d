package command

import (
	"encoding/binary"
	"errors"
	"math"
)

// headerSize is the fixed 8-byte prefix every command buffer carries:
// total_len(u32) + cmd_count(u16) + flags(u16) (spec §4.M).
const headerSize = 8

// ErrAlreadyFinished is returned by any recording method called after
// Finish, and by Finish itself if called twice.
var ErrAlreadyFinished = errors.New("command: encoder already finished")

// status mirrors the teacher's CommandEncoderStatus state machine
// (core/command.go), collapsed to the two states this single-threaded,
// HAL-less encoder actually needs: recording, and finished.
type status uint8

const (
	statusRecording status = iota
	statusFinished
)

// Encoder is an append-only command-buffer writer, reset at the start of
// every VM frame (spec §4.N.2) and finished once at frame end. Unlike the
// teacher's CoreCommandEncoder, it owns no HAL resources and needs no
// locking: the dispatcher that drives it runs on a single thread (spec §5).
type Encoder struct {
	buf      []byte
	cmdCount uint16
	flags    uint16
	status   status
}

// NewEncoder returns an encoder ready to record, with its header reserved.
func NewEncoder() *Encoder {
	e := &Encoder{buf: make([]byte, headerSize, 256)}
	return e
}

// Reset clears the encoder back to its initial state, for reuse across
// frames without reallocating the backing buffer (spec §4.N.2, "dispatcher
// resets the command buffer").
func (e *Encoder) Reset() {
	e.buf = e.buf[:headerSize]
	e.cmdCount = 0
	e.flags = 0
	e.status = statusRecording
}

// SetFlags sets the header's flags word. Must be called before Finish.
func (e *Encoder) SetFlags(flags uint16) {
	e.flags = flags
}

func (e *Encoder) op(o Op) {
	e.buf = append(e.buf, byte(o))
	e.cmdCount++
}

func (e *Encoder) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}

func (e *Encoder) bytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// --- Resource creation ---

func (e *Encoder) CreateBuffer(bufferID, sizeBytes, usageBits uint32) {
	e.op(OpCreateBuffer)
	e.u32(bufferID)
	e.u32(sizeBytes)
	e.u32(usageBits)
}

func (e *Encoder) CreateTexture(textureID, width, height, format, usageBits uint32) {
	e.op(OpCreateTexture)
	e.u32(textureID)
	e.u32(width)
	e.u32(height)
	e.u32(format)
	e.u32(usageBits)
}

func (e *Encoder) CreateSampler(samplerID, descriptorDataID uint32) {
	e.op(OpCreateSampler)
	e.u32(samplerID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateShader(shaderID, dataID uint32) {
	e.op(OpCreateShader)
	e.u32(shaderID)
	e.u32(dataID)
}

func (e *Encoder) CreateRenderPipeline(pipelineID, descriptorDataID uint32) {
	e.op(OpCreateRenderPipeline)
	e.u32(pipelineID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateComputePipeline(pipelineID, descriptorDataID uint32) {
	e.op(OpCreateComputePipeline)
	e.u32(pipelineID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateBindGroup(bindGroupID, layoutID, descriptorDataID uint32) {
	e.op(OpCreateBindGroup)
	e.u32(bindGroupID)
	e.u32(layoutID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateTextureView(viewID, textureID, descriptorDataID uint32) {
	e.op(OpCreateTextureView)
	e.u32(viewID)
	e.u32(textureID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateQuerySet(querySetID, descriptorDataID uint32) {
	e.op(OpCreateQuerySet)
	e.u32(querySetID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateBindGroupLayout(layoutID, descriptorDataID uint32) {
	e.op(OpCreateBindGroupLayout)
	e.u32(layoutID)
	e.u32(descriptorDataID)
}

func (e *Encoder) CreateImageBitmap(textureID, sourceDataID uint32) {
	e.op(OpCreateImageBitmap)
	e.u32(textureID)
	e.u32(sourceDataID)
}

func (e *Encoder) CreatePipelineLayout(layoutID uint32, bindGroupLayoutIDs []uint32) {
	e.op(OpCreatePipelineLayout)
	e.u32(layoutID)
	e.u32(uint32(len(bindGroupLayoutIDs)))
	for _, id := range bindGroupLayoutIDs {
		e.u32(id)
	}
}

func (e *Encoder) CreateRenderBundle(bundleID, descriptorDataID uint32) {
	e.op(OpCreateRenderBundle)
	e.u32(bundleID)
	e.u32(descriptorDataID)
}

// --- Pass operations ---

func (e *Encoder) BeginRenderPass(passID, descriptorDataID uint32) {
	e.op(OpBeginRenderPass)
	e.u32(passID)
	e.u32(descriptorDataID)
}

func (e *Encoder) BeginComputePass(passID, descriptorDataID uint32) {
	e.op(OpBeginComputePass)
	e.u32(passID)
	e.u32(descriptorDataID)
}

func (e *Encoder) SetPipeline(pipelineID uint32) {
	e.op(OpSetPipeline)
	e.u32(pipelineID)
}

func (e *Encoder) SetBindGroup(groupIndex, bindGroupID uint32) {
	e.op(OpSetBindGroup)
	e.u32(groupIndex)
	e.u32(bindGroupID)
}

func (e *Encoder) SetVertexBuffer(slot, bufferID uint32) {
	e.op(OpSetVertexBuffer)
	e.u32(slot)
	e.u32(bufferID)
}

func (e *Encoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.op(OpDraw)
	e.u32(vertexCount)
	e.u32(instanceCount)
	e.u32(firstVertex)
	e.u32(firstInstance)
}

func (e *Encoder) DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance uint32) {
	e.op(OpDrawIndexed)
	e.u32(indexCount)
	e.u32(instanceCount)
	e.u32(firstIndex)
	e.u32(baseVertex)
	e.u32(firstInstance)
}

func (e *Encoder) EndPass() {
	e.op(OpEndPass)
}

func (e *Encoder) Dispatch(x, y, z uint32) {
	e.op(OpDispatch)
	e.u32(x)
	e.u32(y)
	e.u32(z)
}

func (e *Encoder) SetIndexBuffer(bufferID, format uint32) {
	e.op(OpSetIndexBuffer)
	e.u32(bufferID)
	e.u32(format)
}

func (e *Encoder) ExecuteBundles(bundleIDs []uint32) {
	e.op(OpExecuteBundles)
	e.u32(uint32(len(bundleIDs)))
	for _, id := range bundleIDs {
		e.u32(id)
	}
}

// --- Queue operations ---

func (e *Encoder) WriteBuffer(bufferID, offsetBytes, dataID uint32) {
	e.op(OpWriteBuffer)
	e.u32(bufferID)
	e.u32(offsetBytes)
	e.u32(dataID)
}

func (e *Encoder) WriteTimeUniform(bufferID, offsetBytes uint32, timeSeconds float32) {
	e.op(OpWriteTimeUniform)
	e.u32(bufferID)
	e.u32(offsetBytes)
	e.f32(timeSeconds)
}

func (e *Encoder) CopyBufferToBuffer(srcID, srcOffset, dstID, dstOffset, size uint32) {
	e.op(OpCopyBufferToBuffer)
	e.u32(srcID)
	e.u32(srcOffset)
	e.u32(dstID)
	e.u32(dstOffset)
	e.u32(size)
}

func (e *Encoder) CopyTextureToTexture(srcID, dstID, width, height uint32) {
	e.op(OpCopyTextureToTexture)
	e.u32(srcID)
	e.u32(dstID)
	e.u32(width)
	e.u32(height)
}

func (e *Encoder) WriteBufferFromWasm(bufferID, offsetBytes, wasmCallID uint32) {
	e.op(OpWriteBufferFromWasm)
	e.u32(bufferID)
	e.u32(offsetBytes)
	e.u32(wasmCallID)
}

func (e *Encoder) CopyExternalImageToTexture(textureID, sourceDataID uint32) {
	e.op(OpCopyExternalImageToTexture)
	e.u32(textureID)
	e.u32(sourceDataID)
}

// --- WASM operations ---

func (e *Encoder) InitWasmModule(moduleID, dataID uint32) {
	e.op(OpInitWasmModule)
	e.u32(moduleID)
	e.u32(dataID)
}

// CallWasmFunc inlines its argument bytes directly in the command stream
// (spec §4.M: "MUST inline its argument bytes ... no pointers into
// transient stack memory"). Payload layout:
// [call_id:u16][module_id:u16][name_ptr:u32][name_len:u32][arg_count:u8][arg_bytes...].
func (e *Encoder) CallWasmFunc(callID, moduleID uint16, namePtr, nameLen uint32, args []byte) {
	e.op(OpCallWasmFunc)
	e.u16(callID)
	e.u16(moduleID)
	e.u32(namePtr)
	e.u32(nameLen)
	e.buf = append(e.buf, uint8(len(args)))
	e.bytes(args)
}

// --- Control ---

func (e *Encoder) Submit() {
	e.op(OpSubmit)
}

// Finish fixes total_len and cmd_count in the header and returns the
// completed buffer (spec §4.M: "Encoders MUST fix total_len and cmd_count
// at commit"). The encoder must be Reset before recording again.
func (e *Encoder) Finish() ([]byte, error) {
	if e.status == statusFinished {
		return nil, ErrAlreadyFinished
	}
	e.buf = append(e.buf, byte(OpEnd)) // a terminator, not a counted command

	binary.LittleEndian.PutUint32(e.buf[0:4], uint32(len(e.buf)))
	binary.LittleEndian.PutUint16(e.buf[4:6], e.cmdCount)
	binary.LittleEndian.PutUint16(e.buf[6:8], e.flags)
	e.status = statusFinished
	return e.buf, nil
}

// Bytes returns the buffer accumulated so far, without fixing the header.
// Useful for tests inspecting in-progress state.
func (e *Encoder) Bytes() []byte {
	return e.buf
}
