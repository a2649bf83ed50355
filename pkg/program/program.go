// Package program is the glue layer above components C1-C5: it owns a
// program's index, type arena and memory connection, and exposes the
// consumed external contracts spec.md §6 names (a target-memory reader, a
// DWARF-runtime DIE resolver, a register source for stack unwinding)
// without implementing DWARF expression evaluation or CFI itself. Grounded
// on the teacher's MicroCpu composition root (main.go's makeCpu), which
// wires independently-built components into one object the same way.
package program

import (
	"debug/dwarf"
	"sync"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"github.com/Manu343726/drgo/pkg/object"
)

// DIEResolver is the "DWARF runtime" contract of spec.md §6: it opens an
// ELF handle, supplies DIEs by offset on demand, and materializes a
// dtype.Type from one. The core consumes DIE offsets from the index and
// defers to this collaborator to open the full DIE structure only at use
// time (lazy), never evaluating DWARF itself beyond that.
type DIEResolver interface {
	// ResolveType returns the type materialized from the DIE at offset in
	// f's .debug_info, interning through arena so repeated resolutions of
	// the same DIE return the identical *dtype.Type.
	ResolveType(f *binfmt.File, offset uint32, arena *dtype.Arena) (*dtype.Type, error)

	// ResolveObject returns the object layer's view of a variable or
	// function DIE: its qualified type plus, when the DIE carries a
	// location expression resolvable without a live frame (a fixed
	// address, not a register or frame-base-relative location), the
	// object bound to that address.
	ResolveObject(f *binfmt.File, offset uint32, prog *Program) (*object.Object, error)
}

// Unwinder is the stack-unwinding contract of spec.md §6: given a register
// source, it hands back a sequence of frames with PC, register file and a
// containing module. It evaluates CFI itself; this core only consumes the
// resulting frames. Capabilities is a reserved bitmask (spec.md §9 open
// question (iii)) so an implementation can advertise live-process
// unwinding support without changing this interface's shape.
type Unwinder interface {
	Unwind(regs RegisterSource, caps Capabilities) ([]Frame, error)
}

// Capabilities flags optional unwinder behavior. Live-process attachment is
// explicitly out of scope for this core (spec.md Non-goals) but the
// interface admits it behind this flag per spec.md §9's open question, so a
// caller's own unwinder implementation can opt in without forcing every
// other implementation to handle it.
type Capabilities uint8

const (
	CapNone Capabilities = 0
	CapLive Capabilities = 1 << iota
)

// RegisterSource supplies initial register values for unwinding: a byte
// blob per CPU or per TID for core dumps and kernel threads (spec.md §6
// "Prstatus / register state"), or a live register file for an attached
// process under CapLive.
type RegisterSource interface {
	Register(name string) (uint64, bool)
}

// Frame is one unwound stack frame: a PC, the register file active at that
// PC, and the module (compilation unit / binary file) it falls within.
type Frame struct {
	PC      uint64
	Regs    RegisterSource
	Module  *binfmt.File
	Variant dwarf.Tag
}

// Program owns everything a debugging session needs once its binaries are
// indexed: the name index, the type arena every materialized type is
// interned into, the DIE resolver that turns index entries into types and
// objects, and the memory reader objects read through. Per spec.md §5,
// type materialization is single-threaded per invocation; Program takes no
// internal lock of its own beyond what Index already provides, and a
// caller sharing one Program across goroutines must serialize its own
// calls into arena-touching operations.
type Program struct {
	Index    *dwarfidx.Index
	Arena    *dtype.Arena
	Resolver DIEResolver
	Memory   object.MemoryReader

	filesMu sync.Mutex
	files   []*binfmt.File
}

// New builds an empty program backed by flags-selected index kinds, a
// fresh type arena, and the given DIE resolver and memory reader.
func New(flags dwarfidx.Flags, resolver DIEResolver, memory object.MemoryReader) *Program {
	return &Program{
		Index:    dwarfidx.New(flags),
		Arena:    dtype.NewArena(),
		Resolver: resolver,
		Memory:   memory,
	}
}

// ReadMemory implements object.MemoryReader by delegating to the
// program's configured reader, so Program itself can be passed wherever an
// object needs a reference's backing store.
func (p *Program) ReadMemory(buf []byte, address uint64, physical bool) error {
	if p.Memory == nil {
		return drgerr.New(drgerr.InvalidArgument, "program has no memory reader configured")
	}
	return p.Memory.ReadMemory(buf, address, physical)
}

// OpenBinary opens path, registers it with the index (per dwarfidx.Open's
// contract, not yet indexed) and remembers it for Close. Relocations are
// not applied here: callers opening a batch of files call
// binfmt.ApplyRelocations once across the whole batch before Update, per
// spec.md §5's data-parallel relocation region.
func (p *Program) OpenBinary(path string) (*binfmt.File, error) {
	f, err := binfmt.Open(path)
	if err != nil {
		return nil, err
	}
	p.Index.Open(f)

	p.filesMu.Lock()
	p.files = append(p.files, f)
	p.filesMu.Unlock()

	return f, nil
}

// Update re-indexes every binary opened since the last Update call.
func (p *Program) Update() error {
	return p.Index.Update()
}

// Close releases every opened binary's OS file handle. A failure closing
// one file does not stop the rest from being closed; the first such error
// is returned.
func (p *Program) Close() error {
	p.filesMu.Lock()
	defer p.filesMu.Unlock()

	var firstErr error
	for _, f := range p.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = drgerr.Wrap(drgerr.OS, err, "failed to close %q", f.Path)
		}
	}
	p.files = nil
	return firstErr
}

// TypeOf resolves the type named by an index entry, to a struct/union/enum
// tag or typedef name, interning the result in the program's arena.
func (p *Program) TypeOf(entry dwarfidx.Entry) (*dtype.Type, error) {
	if p.Resolver == nil {
		return nil, drgerr.New(drgerr.InvalidArgument, "program has no DIE resolver configured")
	}
	return p.Resolver.ResolveType(entry.BinaryFile(), entry.Offset, p.Arena)
}

// ObjectOf resolves the object (value or reference) named by a variable or
// function index entry.
func (p *Program) ObjectOf(entry dwarfidx.Entry) (*object.Object, error) {
	if p.Resolver == nil {
		return nil, drgerr.New(drgerr.InvalidArgument, "program has no DIE resolver configured")
	}
	return p.Resolver.ResolveObject(entry.BinaryFile(), entry.Offset, p)
}

// Lookup finds every indexed entry named name, optionally filtered to a
// set of DIE tags; a nil/empty tags iterates every tag.
func (p *Program) Lookup(name string, tags ...dwarf.Tag) []dwarfidx.Entry {
	if len(tags) == 0 {
		return p.Index.Lookup(name)
	}
	return p.Index.LookupTag(name, tags...)
}
