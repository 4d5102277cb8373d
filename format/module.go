package format

import "encoding/binary"

// ErrBytecodeTooLarge is returned when the bytecode slice would not fit in
// its 16-bit length prefix (spec §4.G section layout).
var ErrBytecodeTooLarge = newFormatError(0, "bytecode exceeds 65535 bytes", nil)

// Module bundles everything a compiled PNGB image needs: header fields,
// the plugin bitset, the raw bytecode the VM walks, and every table the
// bytecode's varint arguments index into (spec §3 "Module (PNGB)"). It is
// produced by the compiler, serialized into the PNG's custom chunk, and
// later extracted and deserialized by a host.
type Module struct {
	Version      uint16
	Plugins      uint8
	ExecutorBlob []byte
	Bytecode     []byte
	Strings      *StringTable
	Data         *DataSection
	Wgsl         *WgslTable
	Uniforms     *UniformTable
	Animation    *AnimationTable
}

// NewModule returns an empty v5 module with initialized, empty tables.
func NewModule() *Module {
	return &Module{
		Version:   VersionV5,
		Plugins:   PluginCore,
		Strings:   NewStringTable(),
		Data:      NewDataSection(),
		Wgsl:      NewWgslTable(),
		Uniforms:  NewUniformTable(),
		Animation: NewAnimationTable(),
	}
}

// Serialize writes the full PNGB byte buffer: header, optional embedded
// executor blob, length-prefixed bytecode, then StringTable, DataSection,
// WgslTable, UniformTable, AnimationTable in that order (spec §4.G). It
// always emits a v5 header.
func (m *Module) Serialize() ([]byte, error) {
	if len(m.Bytecode) > 65535 {
		return nil, ErrBytecodeTooLarge
	}

	strs := m.Strings
	if strs == nil {
		strs = NewStringTable()
	}
	data := m.Data
	if data == nil {
		data = NewDataSection()
	}
	wgsl := m.Wgsl
	if wgsl == nil {
		wgsl = NewWgslTable()
	}
	uniforms := m.Uniforms
	if uniforms == nil {
		uniforms = NewUniformTable()
	}
	anim := m.Animation
	if anim == nil {
		anim = NewAnimationTable()
	}

	strBytes := strs.Serialize()
	dataBytes := data.Serialize()
	wgslBytes := wgsl.Serialize()
	uniformBytes := uniforms.Serialize()
	animBytes := anim.Serialize()

	var flags uint16
	if len(m.ExecutorBlob) > 0 {
		flags |= FlagHasEmbeddedExecutor
	}
	if anim.HasAnimation {
		flags |= FlagHasAnimationTable
	}

	bytecodeStart := headerSizeV5 + len(m.ExecutorBlob)
	stringTableOffset := bytecodeStart + 2 + len(m.Bytecode)
	dataSectionOffset := stringTableOffset + len(strBytes)
	wgslTableOffset := dataSectionOffset + len(dataBytes)
	uniformTableOffset := wgslTableOffset + len(wgslBytes)
	animationTableOffset := uniformTableOffset + len(uniformBytes)

	h := Header{
		Version:              VersionV5,
		Flags:                flags,
		Plugins:              m.Plugins,
		ExecutorLength:       uint32(len(m.ExecutorBlob)),
		StringTableOffset:    uint32(stringTableOffset),
		DataSectionOffset:    uint32(dataSectionOffset),
		WgslTableOffset:      uint32(wgslTableOffset),
		UniformTableOffset:   uint32(uniformTableOffset),
		AnimationTableOffset: uint32(animationTableOffset),
	}
	if len(m.ExecutorBlob) > 0 {
		h.ExecutorOffset = headerSizeV5
	}

	out := h.Serialize()
	out = append(out, m.ExecutorBlob...)

	var lenPrefix [2]byte
	binary.LittleEndian.PutUint16(lenPrefix[:], uint16(len(m.Bytecode)))
	out = append(out, lenPrefix[:]...)
	out = append(out, m.Bytecode...)

	out = append(out, strBytes...)
	out = append(out, dataBytes...)
	out = append(out, wgslBytes...)
	out = append(out, uniformBytes...)
	out = append(out, animBytes...)

	return out, nil
}

// Deserialize parses a v4 or v5 PNGB buffer, validating magic, version,
// monotonically non-decreasing section offsets, and that every section
// ends within the buffer (spec §4.G). v4 buffers have no WgslTable,
// UniformTable, or AnimationTable; Deserialize returns those as empty/
// absent for such buffers.
func Deserialize(buf []byte) (*Module, error) {
	h, headerSize, err := DeserializeHeader(buf)
	if err != nil {
		return nil, err
	}

	if h.StringTableOffset > uint32(len(buf)) ||
		h.DataSectionOffset < h.StringTableOffset ||
		h.WgslTableOffset < h.DataSectionOffset ||
		h.UniformTableOffset < h.WgslTableOffset ||
		h.AnimationTableOffset < h.UniformTableOffset ||
		h.AnimationTableOffset > uint32(len(buf)) {
		return nil, newFormatError(0, "section offsets are not monotonically non-decreasing", ErrInvalidFormat)
	}

	bytecodeStart := headerSize + int(h.ExecutorLength)
	if bytecodeStart+2 > len(buf) || bytecodeStart > int(h.StringTableOffset) {
		return nil, newFormatError(bytecodeStart, "invalid bytecode range", ErrInvalidFormat)
	}
	bytecodeLen := int(binary.LittleEndian.Uint16(buf[bytecodeStart : bytecodeStart+2]))
	bytecodeEnd := bytecodeStart + 2 + bytecodeLen
	if bytecodeEnd > int(h.StringTableOffset) {
		return nil, newFormatError(bytecodeEnd, "bytecode runs past string_table_offset", ErrInvalidFormat)
	}

	m := &Module{
		Version: h.Version,
		Plugins: h.Plugins,
	}
	if h.ExecutorLength > 0 {
		m.ExecutorBlob = append([]byte(nil), buf[h.ExecutorOffset:h.ExecutorOffset+h.ExecutorLength]...)
	}
	m.Bytecode = append([]byte(nil), buf[bytecodeStart+2:bytecodeEnd]...)

	strs, _, err := DeserializeStringTable(buf[h.StringTableOffset:h.DataSectionOffset])
	if err != nil {
		return nil, err
	}
	m.Strings = strs

	if h.Version == VersionV4 {
		data, _, err := DeserializeDataSection(buf[h.DataSectionOffset:])
		if err != nil {
			return nil, err
		}
		m.Data = data
		m.Wgsl = NewWgslTable()
		m.Uniforms = NewUniformTable()
		m.Animation = NewAnimationTable()
		return m, nil
	}

	data, _, err := DeserializeDataSection(buf[h.DataSectionOffset:h.WgslTableOffset])
	if err != nil {
		return nil, err
	}
	m.Data = data

	wgsl, _, err := DeserializeWgslTable(buf[h.WgslTableOffset:h.UniformTableOffset])
	if err != nil {
		return nil, err
	}
	m.Wgsl = wgsl

	uniforms, _, err := DeserializeUniformTable(buf[h.UniformTableOffset:h.AnimationTableOffset])
	if err != nil {
		return nil, err
	}
	m.Uniforms = uniforms

	anim, _, err := DeserializeAnimationTable(buf[h.AnimationTableOffset:])
	if err != nil {
		return nil, err
	}
	m.Animation = anim

	return m, nil
}
