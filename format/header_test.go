package format

import "testing"

func TestHeaderSerializeRoundTripV5(t *testing.T) {
	h := Header{
		Flags:                FlagHasAnimationTable,
		Plugins:              PluginCore | PluginRender,
		StringTableOffset:    45,
		DataSectionOffset:    47,
		WgslTableOffset:      49,
		UniformTableOffset:   50,
		AnimationTableOffset: 51,
	}
	buf := h.Serialize()
	if len(buf) != 40 {
		t.Fatalf("Serialize() len = %d, want 40", len(buf))
	}
	got, n, err := DeserializeHeader(buf)
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if n != 40 {
		t.Fatalf("header size = %d, want 40", n)
	}
	if got.Version != VersionV5 || got.Plugins != (PluginCore|PluginRender) {
		t.Fatalf("got = %+v", got)
	}
	if got.StringTableOffset != 45 || got.AnimationTableOffset != 51 {
		t.Fatalf("offsets mismatch: %+v", got)
	}
}

func TestDeserializeHeaderBadMagic(t *testing.T) {
	buf := make([]byte, 40)
	copy(buf, "XXXX")
	if _, _, err := DeserializeHeader(buf); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDeserializeHeaderUnsupportedVersion(t *testing.T) {
	buf := make([]byte, 40)
	copy(buf, Magic[:])
	buf[4], buf[5] = 99, 0
	if _, _, err := DeserializeHeader(buf); err != ErrUnsupportedVersion {
		t.Fatalf("error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestDeserializeHeaderV4DefaultsPluginsToCore(t *testing.T) {
	buf := make([]byte, 28)
	copy(buf, Magic[:])
	buf[4], buf[5] = 4, 0
	buf[8] = PluginRender | PluginCompute // stored, but must not surface
	got, n, err := DeserializeHeader(buf)
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if n != 28 {
		t.Fatalf("header size = %d, want 28", n)
	}
	if got.Plugins != PluginCore {
		t.Fatalf("Plugins = %v, want PluginCore only", got.Plugins)
	}
}
