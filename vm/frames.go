package vm

import "github.com/HugoDaniel/pngine/bytecode"

// frameDesc is one `define_frame` segment located by indexFrames: its
// declared id and name, and the half-open byte range of everything between
// its own arguments and the next define_frame (or the bytecode's terminal
// end).
type frameDesc struct {
	id           uint32
	nameStringID uint32
	bodyStart    int
	bodyEnd      int
}

// indexFrames performs the one read-only scan Dispatch needs before it can
// execute anything: it walks every instruction from program counter 0,
// decoding (never executing) each one purely to measure its length, and
// records where the shared setup prefix ends and where each frame's body
// begins and ends. Pass bodies nested inside a frame (define_pass ...
// end_pass_def) need no special handling here — they are just more
// instructions in the flat sequence, so the generic decode loop walks
// through them like any other op.
func indexFrames(buf []byte) (prefixEnd int, frames []frameDesc, err error) {
	pc := 0
	terminator := len(buf)
	var open *frameDesc

	for pc < len(buf) {
		dec, derr := decodeAt(buf, pc)
		if derr != nil {
			return 0, nil, derr
		}
		switch dec.op {
		case bytecode.OpDefineFrame:
			if open != nil {
				open.bodyEnd = dec.startPC
				frames = append(frames, *open)
			} else if len(frames) == 0 {
				terminator = dec.startPC // first boundary also closes the prefix
			}
			open = &frameDesc{id: dec.ints[0], nameStringID: dec.ints[1], bodyStart: dec.nextPC}
		case bytecode.OpEnd:
			if open == nil && len(frames) == 0 {
				terminator = dec.startPC // no define_frame: the prefix runs up to end
			}
			if open != nil {
				open.bodyEnd = dec.startPC
				frames = append(frames, *open)
				open = nil
			}
			pc = dec.nextPC
			goto done
		}
		pc = dec.nextPC
	}
	if open != nil {
		open.bodyEnd = pc
		frames = append(frames, *open)
	}
done:
	if len(frames) == 0 {
		return terminator, nil, nil
	}
	return terminator, frames, nil
}

// selectFrame picks which frame's body to run this Dispatch call (spec
// §4.N.7): by AnimationTable.FindSceneAtTime when the module has a
// timeline and the host supplied a time, falling back to the first
// define_frame otherwise (including when the lookup finds no matching
// scene, or no scene names a frame that was actually emitted).
func (d *Dispatcher) selectFrame(frames []frameDesc, state State) int {
	if !state.HasAnimationTime || !d.mod.Animation.HasAnimation {
		return 0
	}
	idx, ok := d.mod.Animation.FindSceneAtTime(state.AnimationTimeMs)
	if !ok {
		return 0
	}
	wantName, err := d.mod.Strings.Get(d.mod.Animation.Scenes[idx].FrameStringID)
	if err != nil {
		return 0
	}
	for i, f := range frames {
		if name, err := d.mod.Strings.Get(f.nameStringID); err == nil && name == wantName {
			return i
		}
	}
	return 0
}
