// Package vm implements the command-dispatch virtual machine that walks
// compiled PNGB bytecode once per frame and translates it into a runtime
// command buffer (spec §4.N). It is grounded on the teacher's Hub/Registry
// idempotency pattern (core/hub.go, core/registry.go) for the
// ID→live-resource table §4.N.4 requires, adapted to the single-threaded,
// lock-free setting spec §5 describes ("no locks are required because no
// other party mutates these") the same way internal/ids drops the
// teacher's epoch/mutex machinery for the compiler's single-threaded
// namespaces. Pool-buffer rotation (§4.K.5, §4.N.6) and scene selection
// (§4.N.7) have no teacher analogue; they are written in the same
// small-struct-of-state style as core/command.go's CommandEncoderStatus
// state machine. The bytecode walk never recurses: it uses an explicit
// stack (frames.go, exec.go), matching §9's "no recursion is used
// anywhere"; only the pool-descriptor JSON rewrite (rewritePoolRefs)
// recurses.
package vm

import (
	"github.com/HugoDaniel/pngine/bytecode"
	"github.com/HugoDaniel/pngine/command"
	"github.com/HugoDaniel/pngine/format"
)

// State is the per-frame input the host supplies to Dispatch (spec §6 "VM
// I/O": "per-frame (time_seconds, canvas_w, canvas_h, frame_counter)").
// FrameCounter is not included here: the dispatcher owns and advances it
// itself (spec §5, "dispatcher owns ... mutable runtime state"), since pool
// rotation depends on it staying monotonic and internally consistent
// across calls regardless of what a host passes in.
type State struct {
	TimeSeconds  float32
	CanvasWidth  uint32
	CanvasHeight uint32

	// HasAnimationTime and AnimationTimeMs drive scene selection (spec
	// §4.N.7). Leave HasAnimationTime false to always run the first
	// define_frame, matching a module with no AnimationTable.
	HasAnimationTime bool
	AnimationTimeMs  uint32
}

// Option configures a Dispatcher at construction (the idiomatic-Go
// analogue of the teacher's descriptor-struct configuration, mirrored from
// compiler.Option).
type Option func(*Dispatcher)

// WithLogger routes the dispatcher's best-effort warnings through l instead
// of discarding them.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// Dispatcher is a single-threaded PNGB interpreter bound to one immutable
// Module (spec §5 "the Module is immutable after deserialization"). It
// owns everything the spec assigns the dispatcher: the current command
// buffer (reset every Dispatch call), the ID→live-resource idempotency
// table, the once-executed-pass set, the runtime data overlay pool-buffer
// rewrites and data-generation ops need, and the frame counter.
type Dispatcher struct {
	mod *format.Module
	log Logger

	created map[bytecode.Op]map[uint32]bool
	onceRun map[uint32]bool

	// runtimeData shadows the Module's immutable DataSection: any DataId
	// with an entry here takes precedence over the Module's static bytes
	// at the same id. A GPUExecutor resolving a data_id argument MUST
	// check here first (see host.GPUExecutor doc). Populated by
	// data-generation opcodes (fill_random and friends, whose realized
	// bytes have nowhere else to live since the Module can't be mutated)
	// and by pool-referencing create_bind_group descriptors (whose
	// rotation depends on frame_counter and so can never be static).
	runtimeData map[uint32][]byte

	frameCounter uint32
}

// New binds a Dispatcher to mod. The returned Dispatcher retains no
// reference to anything else the caller owns.
func New(mod *format.Module, opts ...Option) (*Dispatcher, error) {
	if mod == nil {
		return nil, ErrNoModule
	}
	d := &Dispatcher{
		mod:         mod,
		log:         NopLogger{},
		created:     make(map[bytecode.Op]map[uint32]bool),
		onceRun:     make(map[uint32]bool),
		runtimeData: make(map[uint32][]byte),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RuntimeData returns the dispatcher-realized bytes for a DataId, if any
// were produced by a prior Dispatch call. See the runtimeData field doc.
func (d *Dispatcher) RuntimeData(id uint32) ([]byte, bool) {
	if d == nil {
		return nil, false
	}
	b, ok := d.runtimeData[id]
	return b, ok
}

// Dispatch walks the bound Module's bytecode once, per spec §4.N's
// per-frame algorithm:
//  1. the shared setup prefix (every op before the first define_frame —
//     resource creation, queue writes, the #init once-pass) always runs;
//  2. one define_frame body runs, chosen by selectFrame;
//  3. the accumulated command buffer is finished and returned.
//
// Resource-creation opcodes are idempotent across calls (step 4 of the
// spec's algorithm); pass-body opcodes and queue writes are not, and run
// fresh every call. On a decode or dispatch failure, Dispatch returns an
// *ExecutionError and leaves every previously-applied side effect (the
// idempotency table, the once-run set) exactly as it was after the last
// successful op, so a later call can still recover (spec §7).
func (d *Dispatcher) Dispatch(state State) ([]byte, error) {
	if d == nil || d.mod == nil {
		return nil, ErrNotInitialized
	}
	buf := d.mod.Bytecode

	prefixEnd, frames, err := indexFrames(buf)
	if err != nil {
		return nil, err
	}

	enc := command.NewEncoder()
	passBodies := make(map[uint32][2]int)

	if err := d.run(buf, 0, prefixEnd, enc, passBodies, state); err != nil {
		return nil, err
	}

	if len(frames) > 0 {
		f := frames[d.selectFrame(frames, state)]
		if err := d.run(buf, f.bodyStart, f.bodyEnd, enc, passBodies, state); err != nil {
			return nil, err
		}
	}

	d.frameCounter++
	return enc.Finish()
}

// onceCreate records id as created under op's idempotency set and reports
// whether it was already present — true means the caller must skip
// re-emitting the create command (spec §4.N.4).
func (d *Dispatcher) onceCreate(op bytecode.Op, id uint32) bool {
	set, ok := d.created[op]
	if !ok {
		set = make(map[uint32]bool)
		d.created[op] = set
	}
	if set[id] {
		return true
	}
	set[id] = true
	return false
}
