package format

import (
	"bytes"
	"testing"
)

func TestModuleSectionLayoutWorkedExample(t *testing.T) {
	m := NewModule()
	m.Bytecode = []byte{0x01, 0x00, 0x00}

	buf, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	h, headerSize, err := DeserializeHeader(buf)
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if headerSize != 40 {
		t.Fatalf("header size = %d, want 40", headerSize)
	}
	if h.StringTableOffset != 45 {
		t.Errorf("string_table_offset = %d, want 45", h.StringTableOffset)
	}
	if h.DataSectionOffset != 47 {
		t.Errorf("data_section_offset = %d, want 47", h.DataSectionOffset)
	}
	if h.WgslTableOffset != 49 {
		t.Errorf("wgsl_table_offset = %d, want 49", h.WgslTableOffset)
	}
	if h.UniformTableOffset != 50 {
		t.Errorf("uniform_table_offset = %d, want 50", h.UniformTableOffset)
	}
	if h.AnimationTableOffset != 51 {
		t.Errorf("animation_table_offset = %d, want 51", h.AnimationTableOffset)
	}
}

func TestModuleSerializeDeserializeRoundTrip(t *testing.T) {
	m := NewModule()
	m.Plugins = PluginCore | PluginRender
	m.Bytecode = []byte{0x01, 0x02, 0x03, 0x04}

	nameID, _ := m.Strings.Intern("main")
	dataID := m.Data.AddBytes([]byte("@vertex fn vs() {}"))
	wgslID, err := m.Wgsl.Add(WgslEntry{NameStringID: nameID, DataID: dataID})
	if err != nil {
		t.Fatalf("Wgsl.Add: %v", err)
	}
	m.Uniforms.Bindings = append(m.Uniforms.Bindings, UniformBinding{
		BufferID: 0, NameStringID: nameID, Group: 0, BindingIndex: 0,
		Fields: []UniformField{{Slot: 0, NameStringID: nameID, OffsetBytes: 0, SizeBytes: 4, Type: FieldF32}},
	})
	m.Animation.HasAnimation = true
	m.Animation.DurationMs = 1000
	m.Animation.Scenes = []Scene{{IDStringID: nameID, FrameStringID: nameID, StartMs: 0, EndMs: 1000}}

	buf, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Version != VersionV5 || got.Plugins != (PluginCore|PluginRender) {
		t.Fatalf("got = %+v", got)
	}
	if !bytes.Equal(got.Bytecode, m.Bytecode) {
		t.Fatalf("bytecode = %v, want %v", got.Bytecode, m.Bytecode)
	}
	if got.Strings.Len() != 1 {
		t.Fatalf("strings len = %d, want 1", got.Strings.Len())
	}
	if got.Wgsl.Len() != 1 {
		t.Fatalf("wgsl len = %d, want 1", got.Wgsl.Len())
	}
	gotDataID, err := got.Wgsl.DataIDFor(wgslID)
	if err != nil || gotDataID != dataID {
		t.Fatalf("DataIDFor = (%d, %v), want (%d, nil)", gotDataID, err, dataID)
	}
	if len(got.Uniforms.Bindings) != 1 {
		t.Fatalf("uniform bindings = %d, want 1", len(got.Uniforms.Bindings))
	}
	if !got.Animation.HasAnimation || len(got.Animation.Scenes) != 1 {
		t.Fatalf("animation = %+v", got.Animation)
	}
}

func TestModuleDeserializeRejectsNonMonotonicOffsets(t *testing.T) {
	m := NewModule()
	buf, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// Corrupt data_section_offset to be before string_table_offset.
	corrupted := append([]byte(nil), buf...)
	corrupted[24], corrupted[25], corrupted[26], corrupted[27] = 0, 0, 0, 0
	if _, err := Deserialize(corrupted); err == nil {
		t.Fatal("expected error for non-monotonic section offsets")
	}
}

func TestModuleSerializeRejectsOversizedBytecode(t *testing.T) {
	m := NewModule()
	m.Bytecode = make([]byte, 65536)
	if _, err := m.Serialize(); err != ErrBytecodeTooLarge {
		t.Fatalf("error = %v, want ErrBytecodeTooLarge", err)
	}
}
