package format

import "encoding/binary"

// EndBehavior controls what findSceneAtTime returns once playback runs past
// the animation's last scene (spec §4.F).
type EndBehavior uint8

const (
	EndHold EndBehavior = iota
	EndStop
	EndRestart
)

// Scene is one named interval of an animation timeline: the frame to run
// while `start_ms <= t < end_ms` (spec §4.F).
type Scene struct {
	IDStringID    StringID
	FrameStringID StringID
	StartMs       uint32
	EndMs         uint32
}

// AnimationTable is the optional timeline a module may carry: at most one
// per module (spec §3, §4.F). A zero-value AnimationTable with HasAnimation
// false serializes to just the flags byte.
type AnimationTable struct {
	HasAnimation bool
	NameStringID StringID
	DurationMs   uint32
	Loop         bool
	EndBehavior  EndBehavior
	Scenes       []Scene
}

// NewAnimationTable returns a table with no animation present.
func NewAnimationTable() *AnimationTable {
	return &AnimationTable{}
}

// FindSceneAtTime returns the index of the first scene with
// `start <= t < end`. If t is at or past the last scene's end and
// EndBehavior is EndHold, the last scene's index is returned. Otherwise
// (EndStop, EndRestart, or no animation) ok is false — wraparound for
// EndRestart is the dispatcher's responsibility (spec §4.N), since it
// requires re-deriving t modulo duration before calling back in here.
func (a *AnimationTable) FindSceneAtTime(tMs uint32) (idx int, ok bool) {
	if !a.HasAnimation || len(a.Scenes) == 0 {
		return 0, false
	}
	for i, s := range a.Scenes {
		if tMs >= s.StartMs && tMs < s.EndMs {
			return i, true
		}
	}
	last := a.Scenes[len(a.Scenes)-1]
	if tMs >= last.EndMs && a.EndBehavior == EndHold {
		return len(a.Scenes) - 1, true
	}
	return 0, false
}

// Serialize writes a leading flags byte (bit 0 = has_animation, bit 1 =
// loop). If HasAnimation is false, nothing else is written (spec §4.F).
func (a *AnimationTable) Serialize() []byte {
	var flags byte
	if a.HasAnimation {
		flags |= 1 << 0
	}
	if a.Loop {
		flags |= 1 << 1
	}
	if !a.HasAnimation {
		return []byte{flags}
	}

	out := make([]byte, 1, 1+2+4+1+2+len(a.Scenes)*12)
	out[0] = flags
	var nameBuf [2]byte
	binary.LittleEndian.PutUint16(nameBuf[:], a.NameStringID)
	out = append(out, nameBuf[:]...)

	var durBuf [4]byte
	binary.LittleEndian.PutUint32(durBuf[:], a.DurationMs)
	out = append(out, durBuf[:]...)

	out = append(out, byte(a.EndBehavior))

	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(a.Scenes)))
	out = append(out, countBuf[:]...)

	for _, s := range a.Scenes {
		var sb [12]byte
		binary.LittleEndian.PutUint16(sb[0:2], s.IDStringID)
		binary.LittleEndian.PutUint16(sb[2:4], s.FrameStringID)
		binary.LittleEndian.PutUint32(sb[4:8], s.StartMs)
		binary.LittleEndian.PutUint32(sb[8:12], s.EndMs)
		out = append(out, sb[:]...)
	}
	return out
}

// DeserializeAnimationTable parses the format Serialize produces.
func DeserializeAnimationTable(buf []byte) (*AnimationTable, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrInvalidFormat
	}
	flags := buf[0]
	a := NewAnimationTable()
	if flags&(1<<0) == 0 {
		return a, 1, nil
	}
	a.HasAnimation = true
	a.Loop = flags&(1<<1) != 0

	off := 1
	if len(buf) < off+7 {
		return nil, 0, ErrInvalidFormat
	}
	a.NameStringID = binary.LittleEndian.Uint16(buf[off : off+2])
	a.DurationMs = binary.LittleEndian.Uint32(buf[off+2 : off+6])
	a.EndBehavior = EndBehavior(buf[off+6])
	off += 7

	if len(buf) < off+2 {
		return nil, 0, ErrInvalidFormat
	}
	count := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2

	if len(buf) < off+count*12 {
		return nil, 0, ErrInvalidFormat
	}
	for i := 0; i < count; i++ {
		sb := buf[off+i*12 : off+i*12+12]
		a.Scenes = append(a.Scenes, Scene{
			IDStringID:    binary.LittleEndian.Uint16(sb[0:2]),
			FrameStringID: binary.LittleEndian.Uint16(sb[2:4]),
			StartMs:       binary.LittleEndian.Uint32(sb[4:8]),
			EndMs:         binary.LittleEndian.Uint32(sb[8:12]),
		})
	}
	off += count * 12

	return a, off, nil
}
