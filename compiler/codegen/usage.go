package codegen

import "github.com/HugoDaniel/pngine/compiler/analyzer"

// Buffer usage bits (spec §4.H create_buffer's usage_bits argument). Bit
// positions follow WebGPU's GPUBufferUsage flag values, the same ordering
// a native GPU core's BufferUsage enum uses, so a descriptor JSON blob
// produced here needs no translation on the host side.
var bufferUsageBits = map[string]uint32{
	"MAP_READ":      1 << 0,
	"MAP_WRITE":     1 << 1,
	"COPY_SRC":      1 << 2,
	"COPY_DST":      1 << 3,
	"INDEX":         1 << 4,
	"VERTEX":        1 << 5,
	"UNIFORM":       1 << 6,
	"STORAGE":       1 << 7,
	"INDIRECT":      1 << 8,
	"QUERY_RESOLVE": 1 << 9,
}

// Texture usage bits (spec §4.H create_texture's usage_bits argument),
// following the same WebGPU GPUTextureUsage convention.
var textureUsageBits = map[string]uint32{
	"COPY_SRC":          1 << 0,
	"COPY_DST":          1 << 1,
	"TEXTURE_BINDING":   1 << 2,
	"STORAGE_BINDING":   1 << 3,
	"RENDER_ATTACHMENT": 1 << 4,
}

// Texture formats the DSL may name in `#texture { format=... }`. Values
// follow WebGPU's GPUTextureFormat ordinal layout closely enough for a
// native host to switch on; an unrecognized name falls back to rgba8unorm.
var textureFormats = map[string]uint32{
	"rgba8unorm":  0,
	"rgba8snorm":  1,
	"bgra8unorm":  2,
	"rgba16float": 3,
	"rgba32float": 4,
	"r8unorm":     5,
	"r32float":    6,
	"depth24plus": 7,
	"depth32float": 8,
}

func usageBits(v *analyzer.Value, table map[string]uint32) uint32 {
	var bits uint32
	if v == nil || v.Kind != analyzer.KindArray {
		return 0
	}
	for _, e := range v.Array {
		name, ok := e.AsString()
		if !ok {
			continue
		}
		bits |= table[name]
	}
	return bits
}

func textureFormatCode(v *analyzer.Value) uint32 {
	name, ok := v.AsString()
	if !ok {
		return textureFormats["rgba8unorm"]
	}
	if code, ok := textureFormats[name]; ok {
		return code
	}
	return textureFormats["rgba8unorm"]
}

// indexFormatCode maps `#renderPass { indexBuffer={ format=... } }` names to
// the wire value set_index_buffer's second argument expects.
func indexFormatCode(v *analyzer.Value) uint32 {
	name, _ := v.AsString()
	if name == "uint32" {
		return 1
	}
	return 0 // uint16
}
