package format

import "encoding/binary"

// DataID identifies a blob in a DataSection (spec §3).
type DataID = uint16

// DataSection holds opaque byte blobs — WGSL source, descriptor JSON,
// static numeric arrays, generator-expression strings (spec §4.C). A DataId
// points at the same bytes forever; the section owns its buffer.
type DataSection struct {
	blobs [][]byte
}

// NewDataSection creates an empty section.
func NewDataSection() *DataSection {
	return &DataSection{}
}

// AddBytes appends a blob and returns its ID. No deduplication is required
// by spec; this implementation does not dedup, since descriptor blobs that
// happen to share bytes (e.g. two empty arrays) are still logically
// distinct resources with independent lifetimes in the emitter.
func (d *DataSection) AddBytes(b []byte) DataID {
	id := DataID(len(d.blobs))
	// Copy so the caller's backing array can be reused/mutated afterward.
	cp := make([]byte, len(b))
	copy(cp, b)
	d.blobs = append(d.blobs, cp)
	return id
}

// Get returns the blob for id.
func (d *DataSection) Get(id DataID) ([]byte, error) {
	if int(id) >= len(d.blobs) {
		return nil, ErrInvalidDataID
	}
	return d.blobs[id], nil
}

// Len returns the number of blobs.
func (d *DataSection) Len() int {
	return len(d.blobs)
}

// Serialize writes `[count:u16]` then a `[offset:u32][len:u32]` header per
// blob, then the concatenated payload (spec §4.C).
func (d *DataSection) Serialize() []byte {
	count := len(d.blobs)
	headerLen := 2 + count*8
	out := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(out[0:2], uint16(count))

	var payload []byte
	var offset uint32
	for i, b := range d.blobs {
		entry := out[2+i*8 : 2+i*8+8]
		binary.LittleEndian.PutUint32(entry[0:4], offset)
		binary.LittleEndian.PutUint32(entry[4:8], uint32(len(b)))
		payload = append(payload, b...)
		offset += uint32(len(b))
	}
	return append(out, payload...)
}

// DeserializeDataSection parses the format Serialize produces, returning the
// section and the number of bytes consumed.
func DeserializeDataSection(buf []byte) (*DataSection, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrInvalidFormat
	}
	count := int(binary.LittleEndian.Uint16(buf[0:2]))
	headerLen := 2 + count*8
	if headerLen < 0 || len(buf) < headerLen {
		return nil, 0, ErrInvalidFormat
	}

	type span struct {
		off, length uint32
	}
	spans := make([]span, count)
	var payloadLen uint32
	for i := 0; i < count; i++ {
		entry := buf[2+i*8 : 2+i*8+8]
		off := binary.LittleEndian.Uint32(entry[0:4])
		ln := binary.LittleEndian.Uint32(entry[4:8])
		spans[i] = span{off, ln}
		if end := off + ln; end > payloadLen {
			payloadLen = end
		}
	}
	if uint64(len(buf)) < uint64(headerLen)+uint64(payloadLen) {
		return nil, 0, ErrInvalidFormat
	}
	payload := buf[headerLen : uint32(headerLen)+payloadLen]

	d := NewDataSection()
	for i, sp := range spans {
		if sp.off+sp.length > uint32(len(payload)) {
			return nil, 0, ErrInvalidFormat
		}
		id := d.AddBytes(payload[sp.off : sp.off+sp.length])
		if int(id) != i {
			return nil, 0, newFormatError(headerLen, "data section slot mismatch on deserialize", nil)
		}
	}
	return d, headerLen + int(payloadLen), nil
}
