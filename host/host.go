// Package host defines the narrow interfaces PNGine expects from its
// external collaborators (spec §6 "Host services consumed" and §1's
// out-of-scope list): the PNG chunk codec, a concrete GPU backend, and an
// optional WASM runtime. None of these are implemented here — they are
// exactly the pieces spec §1 calls out as "not specified here" — but
// pinning them down as interfaces lets the compiler and vm packages stay
// decoupled from whatever codec/backend a caller wires in, the same way
// the teacher's core package depends on hal.Backend/hal.Device rather than
// a concrete Vulkan/Metal/software implementation (hal/api.go).
package host

import "context"

// PNGExtractor locates and decompresses the pNGb custom chunk carrying a
// compiled PNGB payload out of a PNG container (spec §6). The PNG chunk
// format and DEFLATE codec are both out of scope for PNGine itself (§1);
// this is the seam a concrete implementation plugs into.
type PNGExtractor interface {
	// ExtractPNGB returns the raw PNGB byte buffer embedded in png, or an
	// error if no pNGb chunk is present or it fails to decompress.
	ExtractPNGB(png []byte) ([]byte, error)
}

// GPUExecutor is the concrete WebGPU/Metal/Vulkan host that consumes a
// runtime command buffer (spec §1, §6 "gpu.execute(&command_buffer)").
// PNGine's vm package never calls a GPU API directly; it only produces the
// byte buffer this interface's single method is expected to walk.
//
// Implementations should check vm.Dispatcher.RuntimeData for a DataId
// before falling back to the Module's own DataSection: data-generation
// opcodes (create_typed_array, fill_constant, fill_linear,
// fill_element_index, fill_random) write their output into the
// dispatcher's runtime overlay rather than patching the (immutable,
// spec §5) Module in place. fill_expression is not evaluated and writes
// nothing there.
type GPUExecutor interface {
	// Execute walks one frame's command buffer (spec §4.M wire format)
	// and issues the corresponding calls against a real GPU backend.
	Execute(ctx context.Context, commandBuffer []byte) error
}

// WasmRuntime is the optional WASM host used only when a module's plugin
// bitset has the wasm bit set (spec §4.K.4, §6).
type WasmRuntime interface {
	// Instantiate loads a WASM module's bytes and returns an opaque
	// handle for later Call invocations.
	Instantiate(ctx context.Context, bytes []byte) (WasmHandle, error)

	// Call invokes the exported function named name on handle with arg,
	// returning the pointer/result the callee wrote, per spec §6
	// "wasm.call(handle, name, &args) -> ptr".
	Call(ctx context.Context, handle WasmHandle, name string, args []byte) (uint32, error)
}

// WasmHandle identifies a WASM module instance returned by
// WasmRuntime.Instantiate. It is opaque to PNGine; only a WasmRuntime
// implementation gives it meaning.
type WasmHandle uint64
