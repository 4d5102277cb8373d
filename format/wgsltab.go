package format

import (
	"encoding/binary"
	"errors"
)

// WgslID identifies an entry in a WgslTable.
type WgslID = uint16

// WgslEntry names a WGSL fragment: the string name the DSL references it by
// (`$wgsl.foo`), the DataSection blob holding its source text, and the
// string IDs of any entry points it declares (spec §4.D).
type WgslEntry struct {
	NameStringID  StringID
	DataID        DataID
	EntryPointIDs []StringID
}

// WgslTable is the ordered list of WGSL fragment references the analyzer
// resolves `$wgsl.name` against, and the emitter converts to DataIds when
// writing create_shader_module (spec §4.D). This boundary — emitting the
// DataId, never the WgslId — is the single most failure-prone part of the
// pipeline per spec, so WgslTable deliberately exposes DataIDFor as the only
// way to go from a WgslID to the bytes the bytecode must reference.
type WgslTable struct {
	entries []WgslEntry
}

// NewWgslTable creates an empty table.
func NewWgslTable() *WgslTable {
	return &WgslTable{}
}

// ErrTooManyWgslEntries is returned when a module would need a 256th WGSL
// fragment; the table count is serialized as a single byte (spec §8
// scenario 3).
var ErrTooManyWgslEntries = errors.New("format: wgsl table holds more than 255 entries")

// Add appends an entry and returns its WgslID.
func (w *WgslTable) Add(entry WgslEntry) (WgslID, error) {
	if len(w.entries) >= 255 {
		return 0, ErrTooManyWgslEntries
	}
	id := WgslID(len(w.entries))
	w.entries = append(w.entries, entry)
	return id, nil
}

// Get returns the entry for id.
func (w *WgslTable) Get(id WgslID) (WgslEntry, error) {
	if int(id) >= len(w.entries) {
		return WgslEntry{}, ErrInvalidFormat
	}
	return w.entries[id], nil
}

// DataIDFor resolves a WgslID to the DataSection blob holding its source.
// This is the only sanctioned path from a WgslID to a DataID — the emitter
// must call this, never synthesize or guess a DataId, to keep
// create_shader_module's second argument a real DataId (spec §4.D, §8
// "Shader-data binding").
func (w *WgslTable) DataIDFor(id WgslID) (DataID, error) {
	e, err := w.Get(id)
	if err != nil {
		return 0, err
	}
	return e.DataID, nil
}

// Len returns the number of entries.
func (w *WgslTable) Len() int {
	return len(w.entries)
}

// Serialize writes `[count:u8]` then, per entry,
// `[name_string_id:u16][data_id:u16][entry_point_count:u16][entry_point_ids:u16...]`.
// The table count is a single byte (capping a module at 255 WGSL
// fragments), matching the empty-table section-layout example (spec §8
// scenario 3: an absent table contributes exactly one byte to the offset
// arithmetic).
func (w *WgslTable) Serialize() []byte {
	out := make([]byte, 1)
	out[0] = byte(len(w.entries))
	for _, e := range w.entries {
		var hdr [6]byte
		binary.LittleEndian.PutUint16(hdr[0:2], e.NameStringID)
		binary.LittleEndian.PutUint16(hdr[2:4], e.DataID)
		binary.LittleEndian.PutUint16(hdr[4:6], uint16(len(e.EntryPointIDs)))
		out = append(out, hdr[:]...)
		for _, ep := range e.EntryPointIDs {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], ep)
			out = append(out, b[:]...)
		}
	}
	return out
}

// DeserializeWgslTable parses the format Serialize produces.
func DeserializeWgslTable(buf []byte) (*WgslTable, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrInvalidFormat
	}
	count := int(buf[0])
	off := 1

	w := NewWgslTable()
	for i := 0; i < count; i++ {
		if len(buf) < off+6 {
			return nil, 0, ErrInvalidFormat
		}
		nameID := binary.LittleEndian.Uint16(buf[off : off+2])
		dataID := binary.LittleEndian.Uint16(buf[off+2 : off+4])
		epCount := int(binary.LittleEndian.Uint16(buf[off+4 : off+6]))
		off += 6

		if len(buf) < off+epCount*2 {
			return nil, 0, ErrInvalidFormat
		}
		eps := make([]StringID, epCount)
		for j := 0; j < epCount; j++ {
			eps[j] = binary.LittleEndian.Uint16(buf[off+j*2 : off+j*2+2])
		}
		off += epCount * 2

		if _, err := w.Add(WgslEntry{NameStringID: nameID, DataID: dataID, EntryPointIDs: eps}); err != nil {
			return nil, 0, err
		}
	}
	return w, off, nil
}
