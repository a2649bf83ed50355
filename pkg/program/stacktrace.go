package program

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/object"
)

func errNotFoundInFrame(name string) error {
	return drgerr.New(drgerr.Lookup, "%q not found in frame's module", name)
}

// StackTrace is a materialized sequence of frames from an Unwinder. It is a
// thin facade: per spec.md §1/§9, this core does not evaluate DWARF
// location lists or CFI itself, so a frame can only place an object at a
// fixed address (a global, or a local whose DIE carries a constant
// location) — resolving a register- or frame-base-relative local requires
// the DWARF runtime collaborator to have already done that work and handed
// back a concrete address or register name through DIEResolver.
type StackTrace struct {
	Frames []Frame
}

// Trace unwinds regs through unw and wraps the result.
func Trace(unw Unwinder, regs RegisterSource, caps Capabilities) (*StackTrace, error) {
	frames, err := unw.Unwind(regs, caps)
	if err != nil {
		return nil, err
	}
	return &StackTrace{Frames: frames}, nil
}

// Depth reports the number of frames.
func (t *StackTrace) Depth() int {
	return len(t.Frames)
}

// Frame returns the i'th frame, outermost (index 0) to innermost.
func (t *StackTrace) Frame(i int) Frame {
	return t.Frames[i]
}

// Variable resolves name against the index entries belonging to frame i's
// module and materializes it as an object through prog. It does not search
// other frames' modules, matching the CFI-evaluation boundary above: a
// variable is only found if its module has already been identified by the
// unwinder.
func (t *StackTrace) Variable(prog *Program, i int, name string) (*object.Object, error) {
	f := t.Frames[i]
	for _, entry := range prog.Lookup(name) {
		if entry.BinaryFile() == f.Module {
			return prog.ObjectOf(entry)
		}
	}
	return nil, errNotFoundInFrame(name)
}
