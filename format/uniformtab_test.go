package format

import (
	"encoding/binary"
	"math"
	"testing"
)

func decodeF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func TestEncodeValueMat3x3FPadding(t *testing.T) {
	// Row-major input 1..9 must become three 16-byte columns, each the
	// column's three values followed by a zero float.
	got, err := EncodeValue(FieldMat3x3F, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if len(got) != 48 {
		t.Fatalf("len = %d, want 48", len(got))
	}

	wantCols := [3][4]float32{
		{1, 4, 7, 0},
		{2, 5, 8, 0},
		{3, 6, 9, 0},
	}
	for c := 0; c < 3; c++ {
		for lane := 0; lane < 4; lane++ {
			off := c*16 + lane*4
			v := decodeF32(got[off : off+4])
			if v != wantCols[c][lane] {
				t.Errorf("col %d lane %d = %v, want %v", c, lane, v, wantCols[c][lane])
			}
		}
	}
}

func TestEncodeValueMat4x4FNoPadding(t *testing.T) {
	in := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	got, err := EncodeValue(FieldMat4x4F, in)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if len(got) != 64 {
		t.Fatalf("len = %d, want 64", len(got))
	}
	for i, want := range in {
		v := decodeF32(got[i*4 : i*4+4])
		if v != want {
			t.Errorf("component %d = %v, want %v", i, v, want)
		}
	}
}

func TestEncodeValueVec3F(t *testing.T) {
	got, err := EncodeValue(FieldVec3F, []float32{1.5, -2, 3})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("len = %d, want 12", len(got))
	}
	if decodeF32(got[0:4]) != 1.5 || decodeF32(got[4:8]) != -2 || decodeF32(got[8:12]) != 3 {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestEncodeValueWrongComponentCount(t *testing.T) {
	if _, err := EncodeValue(FieldVec3F, []float32{1, 2}); err == nil {
		t.Fatal("expected error for wrong component count")
	}
	if _, err := EncodeValue(FieldMat3x3F, make([]float32, 8)); err == nil {
		t.Fatal("expected error for short mat3x3f input")
	}
}

func TestFieldTypeByteSize(t *testing.T) {
	cases := map[FieldType]int{
		FieldF32:     4,
		FieldVec2F:   8,
		FieldVec3F:   12,
		FieldVec4F:   16,
		FieldMat3x3F: 48,
		FieldMat4x4F: 64,
	}
	for ft, want := range cases {
		if got := ft.ByteSize(); got != want {
			t.Errorf("%v.ByteSize() = %d, want %d", ft, got, want)
		}
	}
}

func TestValidateBindingOverlap(t *testing.T) {
	b := UniformBinding{Fields: []UniformField{
		{OffsetBytes: 0, SizeBytes: 16},
		{OffsetBytes: 12, SizeBytes: 4},
	}}
	if err := ValidateBinding(b, 64); err != ErrFieldOverlap {
		t.Fatalf("error = %v, want ErrFieldOverlap", err)
	}
}

func TestValidateBindingExceedsBufferSize(t *testing.T) {
	b := UniformBinding{Fields: []UniformField{
		{OffsetBytes: 0, SizeBytes: 48},
	}}
	if err := ValidateBinding(b, 32); err != ErrFieldOverlap {
		t.Fatalf("error = %v, want ErrFieldOverlap", err)
	}
}

func TestValidateBindingOK(t *testing.T) {
	b := UniformBinding{Fields: []UniformField{
		{OffsetBytes: 0, SizeBytes: 48},
		{OffsetBytes: 48, SizeBytes: 16},
	}}
	if err := ValidateBinding(b, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUniformTableSerializeRoundTrip(t *testing.T) {
	u := NewUniformTable()
	u.Bindings = append(u.Bindings, UniformBinding{
		BufferID:     3,
		NameStringID: 7,
		Group:        0,
		BindingIndex: 1,
		Fields: []UniformField{
			{Slot: 0, NameStringID: 8, OffsetBytes: 0, SizeBytes: 48, Type: FieldMat3x3F},
			{Slot: 1, NameStringID: 9, OffsetBytes: 48, SizeBytes: 16, Type: FieldVec4F},
		},
	})
	u.Bindings = append(u.Bindings, UniformBinding{BufferID: 4, NameStringID: 10})

	buf := u.Serialize()
	got, n, err := DeserializeUniformTable(buf)
	if err != nil {
		t.Fatalf("DeserializeUniformTable: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d bytes", n, len(buf))
	}
	if len(got.Bindings) != 2 {
		t.Fatalf("got %d bindings, want 2", len(got.Bindings))
	}
	b0 := got.Bindings[0]
	if b0.BufferID != 3 || b0.BindingIndex != 1 || len(b0.Fields) != 2 {
		t.Fatalf("binding 0 = %+v", b0)
	}
	if b0.Fields[0].Type != FieldMat3x3F || b0.Fields[1].Type != FieldVec4F {
		t.Fatalf("field types mismatch: %+v", b0.Fields)
	}
	b1 := got.Bindings[1]
	if b1.BufferID != 4 || len(b1.Fields) != 0 {
		t.Fatalf("binding 1 = %+v", b1)
	}
}

func TestUniformTableEmptySerializeIsOneByte(t *testing.T) {
	u := NewUniformTable()
	buf := u.Serialize()
	if len(buf) != 1 || buf[0] != 0 {
		t.Fatalf("empty UniformTable serialize = %v, want [0x00]", buf)
	}
}

func TestUniformTableDeserializeTruncated(t *testing.T) {
	if _, _, err := DeserializeUniformTable([]byte{1, 0}); err != ErrInvalidFormat {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
}
