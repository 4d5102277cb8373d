package format

import "encoding/binary"

// Magic is the 4-byte tag every PNGB buffer starts with (spec §4.G).
var Magic = [4]byte{'P', 'N', 'G', 'B'}

const (
	// VersionV4 is the legacy 28-byte header. It predates the WGSL,
	// uniform, and animation tables: a v4 buffer has no sections past
	// DataSection, and its plugin bits always read back as core-only
	// (spec §9 "Version 4 vs 5").
	VersionV4 uint16 = 4

	// VersionV5 is the only version this package emits.
	VersionV5 uint16 = 5

	headerSizeV4 = 28
	headerSizeV5 = 40
)

// Flag bits (spec §4.G).
const (
	FlagHasEmbeddedExecutor uint16 = 1 << 0
	FlagHasAnimationTable   uint16 = 1 << 1
)

// Plugin bits (spec §4.G, §4.K.4).
const (
	PluginCore    uint8 = 1 << 0
	PluginRender  uint8 = 1 << 1
	PluginCompute uint8 = 1 << 2
	PluginWasm    uint8 = 1 << 3
	PluginAnim    uint8 = 1 << 4
	PluginTexture uint8 = 1 << 5
)

// Header is the fixed-size prefix of a PNGB buffer. HeaderSize reports
// whether it was read/will be written as the 28-byte v4 or 40-byte v5
// layout.
type Header struct {
	Version              uint16
	Flags                uint16
	Plugins              uint8
	ExecutorOffset       uint32
	ExecutorLength       uint32
	StringTableOffset    uint32
	DataSectionOffset    uint32
	WgslTableOffset      uint32
	UniformTableOffset   uint32
	AnimationTableOffset uint32
}

// Size returns the on-wire byte size for the header's version.
func (h Header) Size() int {
	if h.Version == VersionV4 {
		return headerSizeV4
	}
	return headerSizeV5
}

// Serialize always writes the v5 (40-byte) layout; readers must still
// accept v4 (spec §4.G, §9).
func (h Header) Serialize() []byte {
	out := make([]byte, headerSizeV5)
	copy(out[0:4], Magic[:])
	binary.LittleEndian.PutUint16(out[4:6], VersionV5)
	binary.LittleEndian.PutUint16(out[6:8], h.Flags)
	out[8] = h.Plugins
	// out[9:12] reserved, left zero.
	binary.LittleEndian.PutUint32(out[12:16], h.ExecutorOffset)
	binary.LittleEndian.PutUint32(out[16:20], h.ExecutorLength)
	binary.LittleEndian.PutUint32(out[20:24], h.StringTableOffset)
	binary.LittleEndian.PutUint32(out[24:28], h.DataSectionOffset)
	binary.LittleEndian.PutUint32(out[28:32], h.WgslTableOffset)
	binary.LittleEndian.PutUint32(out[32:36], h.UniformTableOffset)
	binary.LittleEndian.PutUint32(out[36:40], h.AnimationTableOffset)
	return out
}

// DeserializeHeader reads a v4 or v5 header and reports the header's byte
// size (28 or 40) so the caller knows where the next section starts.
func DeserializeHeader(buf []byte) (Header, int, error) {
	if len(buf) < 8 || string(buf[0:4]) != string(Magic[:]) {
		return Header{}, 0, newFormatError(0, "bad PNGB magic", ErrInvalidFormat)
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != VersionV4 && version != VersionV5 {
		return Header{}, 0, ErrUnsupportedVersion
	}

	size := headerSizeV5
	if version == VersionV4 {
		size = headerSizeV4
	}
	if len(buf) < size {
		return Header{}, 0, newFormatError(0, "truncated header", ErrInvalidFormat)
	}

	h := Header{
		Version: version,
		Flags:   binary.LittleEndian.Uint16(buf[6:8]),
		Plugins: buf[8],
	}
	if version == VersionV4 {
		// v4's plugin byte predates real per-feature tracking; readers
		// always report it as core-only regardless of the stored value
		// (spec §9 "Version 4 vs 5").
		h.Plugins = PluginCore
		h.ExecutorOffset = binary.LittleEndian.Uint32(buf[12:16])
		h.ExecutorLength = binary.LittleEndian.Uint32(buf[16:20])
		h.StringTableOffset = binary.LittleEndian.Uint32(buf[20:24])
		h.DataSectionOffset = binary.LittleEndian.Uint32(buf[24:28])
		// No WgslTable/UniformTable/AnimationTable in v4.
		h.WgslTableOffset = h.DataSectionOffset
		h.UniformTableOffset = h.DataSectionOffset
		h.AnimationTableOffset = h.DataSectionOffset
		return h, size, nil
	}

	h.ExecutorOffset = binary.LittleEndian.Uint32(buf[12:16])
	h.ExecutorLength = binary.LittleEndian.Uint32(buf[16:20])
	h.StringTableOffset = binary.LittleEndian.Uint32(buf[20:24])
	h.DataSectionOffset = binary.LittleEndian.Uint32(buf[24:28])
	h.WgslTableOffset = binary.LittleEndian.Uint32(buf[28:32])
	h.UniformTableOffset = binary.LittleEndian.Uint32(buf[32:36])
	h.AnimationTableOffset = binary.LittleEndian.Uint32(buf[36:40])
	return h, size, nil
}
