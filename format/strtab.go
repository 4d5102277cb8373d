package format

import "encoding/binary"

// StringID identifies an entry in a StringTable (spec §3). It is a plain
// 16-bit index: every PNGB table that names a string (UniformTable fields,
// WgslTable entry points, AnimationTable scene names, ...) stores one of
// these directly on the wire, so it carries no namespace marker of its own.
type StringID = uint16

// StringTable interns UTF-8 strings behind stable 16-bit IDs (spec §4.B).
// Equal byte sequences always intern to the same ID; a StringId, once
// handed out, stays valid and unchanged for the lifetime of the module.
type StringTable struct {
	byValue map[string]StringID
	values  []string
}

// NewStringTable creates an empty table.
func NewStringTable() *StringTable {
	return &StringTable{byValue: make(map[string]StringID)}
}

// Intern deduplicates: interning equal bytes twice returns the same ID.
func (t *StringTable) Intern(s string) (StringID, error) {
	if id, ok := t.byValue[s]; ok {
		return id, nil
	}
	if len(t.values) >= 65535 {
		return 0, ErrTooManyStrings
	}
	if len(s) > 65535 {
		return 0, ErrTooManyStrings
	}
	id := StringID(len(t.values))
	t.values = append(t.values, s)
	t.byValue[s] = id
	return id, nil
}

// Get returns the string for id.
func (t *StringTable) Get(id StringID) (string, error) {
	if int(id) >= len(t.values) {
		return "", ErrInvalidStringID
	}
	return t.values[id], nil
}

// Len returns the number of interned strings.
func (t *StringTable) Len() int {
	return len(t.values)
}

// Serialize writes `[count:u16][offsets:count×u16][lengths:count×u16][utf8 bytes]`
// (spec §3).
func (t *StringTable) Serialize() []byte {
	count := len(t.values)
	out := make([]byte, 2+count*2+count*2)
	binary.LittleEndian.PutUint16(out[0:2], uint16(count))

	offsets := out[2 : 2+count*2]
	lengths := out[2+count*2 : 2+count*4]

	var payload []byte
	var offset uint16
	for i, s := range t.values {
		binary.LittleEndian.PutUint16(offsets[i*2:i*2+2], offset)
		binary.LittleEndian.PutUint16(lengths[i*2:i*2+2], uint16(len(s)))
		payload = append(payload, s...)
		offset += uint16(len(s))
	}
	return append(out, payload...)
}

// DeserializeStringTable parses the format Serialize produces, returning the
// table and the number of bytes consumed from buf.
func DeserializeStringTable(buf []byte) (*StringTable, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrInvalidFormat
	}
	count := int(binary.LittleEndian.Uint16(buf[0:2]))
	headerLen := 2 + count*2 + count*2
	if headerLen < 0 || len(buf) < headerLen {
		return nil, 0, ErrInvalidFormat
	}

	offsets := buf[2 : 2+count*2]
	lengths := buf[2+count*2 : headerLen]

	type span struct{ off, length int }
	spans := make([]span, count)
	payloadLen := 0
	for i := 0; i < count; i++ {
		off := int(binary.LittleEndian.Uint16(offsets[i*2 : i*2+2]))
		ln := int(binary.LittleEndian.Uint16(lengths[i*2 : i*2+2]))
		spans[i] = span{off, ln}
		if end := off + ln; end > payloadLen {
			payloadLen = end
		}
	}
	if len(buf) < headerLen+payloadLen {
		return nil, 0, ErrInvalidFormat
	}
	payload := buf[headerLen : headerLen+payloadLen]

	t := NewStringTable()
	for i, sp := range spans {
		if sp.off+sp.length > len(payload) {
			return nil, 0, ErrInvalidFormat
		}
		s := string(payload[sp.off : sp.off+sp.length])
		id, err := t.Intern(s)
		if err != nil {
			return nil, 0, err
		}
		if int(id) != i {
			return nil, 0, newFormatError(headerLen, "string table slot mismatch on deserialize", nil)
		}
	}
	return t, headerLen + payloadLen, nil
}
