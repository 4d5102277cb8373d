package format

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FieldType is the reflected type of a uniform field (spec §4.E).
type FieldType uint8

const (
	FieldF32 FieldType = iota
	FieldI32
	FieldU32
	FieldVec2F
	FieldVec3F
	FieldVec4F
	FieldVec2I
	FieldVec3I
	FieldVec4I
	FieldVec2U
	FieldVec3U
	FieldVec4U
	FieldMat3x3F
	FieldMat4x4F
)

// ByteSize returns the on-GPU size in bytes of the field's type, including
// the padding mat3x3f requires (spec §4.E).
func (ft FieldType) ByteSize() int {
	switch ft {
	case FieldF32, FieldI32, FieldU32:
		return 4
	case FieldVec2F, FieldVec2I, FieldVec2U:
		return 8
	case FieldVec3F, FieldVec3I, FieldVec3U:
		return 12
	case FieldVec4F, FieldVec4I, FieldVec4U:
		return 16
	case FieldMat3x3F:
		return 48 // three 16-byte columns, spec §4.E
	case FieldMat4x4F:
		return 64
	default:
		return 0
	}
}

// UniformField is one named, typed offset inside a uniform buffer binding.
type UniformField struct {
	Slot         uint16
	NameStringID StringID
	OffsetBytes  uint32
	SizeBytes    uint32
	Type         FieldType
}

// UniformBinding reflects one buffer binding: the GPU binding coordinates
// plus its named fields (spec §3, §4.E).
type UniformBinding struct {
	BufferID     uint16
	NameStringID StringID
	Group        uint32
	BindingIndex uint32
	Fields       []UniformField
}

// UniformTable is the sequence of bindings a host uses to write named
// uniforms into GPU buffers at runtime (spec §4.E).
type UniformTable struct {
	Bindings []UniformBinding
}

// NewUniformTable creates an empty table.
func NewUniformTable() *UniformTable {
	return &UniformTable{}
}

// ErrFieldOverlap is returned when two fields within a binding would
// overlap, or a field's extent exceeds the declared buffer size (spec §4.E
// invariant).
var ErrFieldOverlap = fmt.Errorf("format: uniform fields overlap or exceed buffer size")

// ValidateBinding checks the non-overlap and extent invariants for one binding
// against its buffer's declared size.
func ValidateBinding(b UniformBinding, bufferSize uint32) error {
	type span struct{ start, end uint32 }
	var spans []span
	var maxEnd uint32
	for _, f := range b.Fields {
		end := f.OffsetBytes + f.SizeBytes
		if end > maxEnd {
			maxEnd = end
		}
		spans = append(spans, span{f.OffsetBytes, end})
	}
	if maxEnd > bufferSize {
		return ErrFieldOverlap
	}
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				return ErrFieldOverlap
			}
		}
	}
	return nil
}

// EncodeValue converts host-supplied float32 values into the wire bytes for
// a field of the given type (spec §4.E). Scalar and vector types are
// written as-is in little-endian; the matrix types require the padding
// documented there.
func EncodeValue(ft FieldType, values []float32) ([]byte, error) {
	switch ft {
	case FieldF32, FieldI32, FieldU32, FieldVec2F, FieldVec2I, FieldVec2U,
		FieldVec3F, FieldVec3I, FieldVec3U, FieldVec4F, FieldVec4I, FieldVec4U:
		want := ft.ByteSize() / 4
		if len(values) != want {
			return nil, fmt.Errorf("format: field expects %d components, got %d", want, len(values))
		}
		out := make([]byte, ft.ByteSize())
		for i, v := range values {
			binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(v))
		}
		return out, nil

	case FieldMat3x3F:
		if len(values) != 9 {
			return nil, fmt.Errorf("format: mat3x3f expects 9 components, got %d", len(values))
		}
		// Input is row-major; mgl32.Mat3 is column-major storage built
		// from row-major args, so indexing its Col() gives us the three
		// columns to pad into 16-byte (4-float) lanes.
		m := mgl32.Mat3FromRows(
			mgl32.Vec3{values[0], values[1], values[2]},
			mgl32.Vec3{values[3], values[4], values[5]},
			mgl32.Vec3{values[6], values[7], values[8]},
		)
		out := make([]byte, 48)
		for c := 0; c < 3; c++ {
			col := m.Col(c)
			binary.LittleEndian.PutUint32(out[c*16+0:c*16+4], math.Float32bits(col[0]))
			binary.LittleEndian.PutUint32(out[c*16+4:c*16+8], math.Float32bits(col[1]))
			binary.LittleEndian.PutUint32(out[c*16+8:c*16+12], math.Float32bits(col[2]))
			binary.LittleEndian.PutUint32(out[c*16+12:c*16+16], 0)
		}
		return out, nil

	case FieldMat4x4F:
		if len(values) != 16 {
			return nil, fmt.Errorf("format: mat4x4f expects 16 components, got %d", len(values))
		}
		// mat4x4f is written as-is, column-major, no padding (spec §4.E):
		// the caller already supplies 16 floats in column-major order.
		out := make([]byte, 64)
		for i, v := range values {
			binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(v))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("format: unknown field type %d", ft)
	}
}

// Serialize writes the uniform table as
// `[count:u8]` then per binding
// `[buffer_id:u16][name_string_id:u16][group:u32][binding_index:u32][field_count:u16]`
// then per field `[slot:u16][name_string_id:u16][offset:u32][size:u32][type:u8]`.
// The binding count is a single byte, capping a module at 255 uniform
// bindings, matching the empty-table section-layout example (spec §8
// scenario 3).
func (u *UniformTable) Serialize() []byte {
	out := make([]byte, 1)
	out[0] = byte(len(u.Bindings))
	for _, b := range u.Bindings {
		var hdr [12]byte
		binary.LittleEndian.PutUint16(hdr[0:2], b.BufferID)
		binary.LittleEndian.PutUint16(hdr[2:4], b.NameStringID)
		binary.LittleEndian.PutUint32(hdr[4:8], b.Group)
		binary.LittleEndian.PutUint32(hdr[8:12], b.BindingIndex)
		out = append(out, hdr[:]...)

		var fc [2]byte
		binary.LittleEndian.PutUint16(fc[:], uint16(len(b.Fields)))
		out = append(out, fc[:]...)

		for _, f := range b.Fields {
			var fb [13]byte
			binary.LittleEndian.PutUint16(fb[0:2], f.Slot)
			binary.LittleEndian.PutUint16(fb[2:4], f.NameStringID)
			binary.LittleEndian.PutUint32(fb[4:8], f.OffsetBytes)
			binary.LittleEndian.PutUint32(fb[8:12], f.SizeBytes)
			fb[12] = byte(f.Type)
			out = append(out, fb[:]...)
		}
	}
	return out
}

// DeserializeUniformTable parses the format Serialize produces.
func DeserializeUniformTable(buf []byte) (*UniformTable, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrInvalidFormat
	}
	count := int(buf[0])
	off := 1

	u := NewUniformTable()
	for i := 0; i < count; i++ {
		if len(buf) < off+14 {
			return nil, 0, ErrInvalidFormat
		}
		b := UniformBinding{
			BufferID:     binary.LittleEndian.Uint16(buf[off : off+2]),
			NameStringID: binary.LittleEndian.Uint16(buf[off+2 : off+4]),
			Group:        binary.LittleEndian.Uint32(buf[off+4 : off+8]),
			BindingIndex: binary.LittleEndian.Uint32(buf[off+8 : off+12]),
		}
		fieldCount := int(binary.LittleEndian.Uint16(buf[off+12 : off+14]))
		off += 14

		for j := 0; j < fieldCount; j++ {
			if len(buf) < off+13 {
				return nil, 0, ErrInvalidFormat
			}
			f := UniformField{
				Slot:         binary.LittleEndian.Uint16(buf[off : off+2]),
				NameStringID: binary.LittleEndian.Uint16(buf[off+2 : off+4]),
				OffsetBytes:  binary.LittleEndian.Uint32(buf[off+4 : off+8]),
				SizeBytes:    binary.LittleEndian.Uint32(buf[off+8 : off+12]),
				Type:         FieldType(buf[off+12]),
			}
			off += 13
			b.Fields = append(b.Fields, f)
		}
		u.Bindings = append(u.Bindings, b)
	}
	return u, off, nil
}
