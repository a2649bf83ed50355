package dwarfidx

import (
	"debug/dwarf"

	"github.com/Manu343726/drgo/pkg/drgerr"
)

// dieRecord is everything interpretOne extracts from a single DIE using its
// abbreviation's compiled instruction stream.
type dieRecord struct {
	offset      uint32
	dieFlags    uint8
	name        string
	haveDecl    bool
	declFile    int64
	haveSpec    bool
	specOffset  uint32
	haveLine    bool
	lineOffset  uint64
	endOfSibling bool // true when the abbrev code read was 0 (end-of-children)
}

func (r *dieRecord) tag() dwarf.Tag     { return dwarf.Tag(r.dieFlags & tagMask) }
func (r *dieRecord) hasChildren() bool  { return r.dieFlags&tagFlagChilds != 0 }
func (r *dieRecord) isDeclaration() bool { return r.dieFlags&tagFlagDecl != 0 }

// interpretOne reads one DIE (its abbreviation code, then the compiled
// instruction stream for that code) starting at c's current position.
func interpretOne(f *openFile, cu *compilationUnit, table *abbrevTable, c *cursor) (dieRecord, error) {
	var rec dieRecord
	rec.offset = uint32(c.pos)

	code, err := c.uleb()
	if err != nil {
		return rec, err
	}
	if code == 0 {
		rec.endOfSibling = true
		return rec, nil
	}
	if int(code) < 1 || int(code) > len(table.decls) {
		return rec, drgerr.New(drgerr.DWARFFormat, "%q: DIE at offset %d uses unknown abbreviation code %d", f.Path, rec.offset, code)
	}

	pos := table.decls[code-1]
	for {
		insn := table.insns[pos]
		pos++
		if insn == 0 {
			rec.dieFlags = table.insns[pos]
			pos++
			break
		}
		if insn <= insnMaxSkip {
			if err := c.skip(int(insn)); err != nil {
				return rec, err
			}
			continue
		}

		switch insn {
		case insnBlock1:
			n, err := c.u8()
			if err != nil {
				return rec, err
			}
			if err := c.skip(int(n)); err != nil {
				return rec, err
			}
		case insnBlock2:
			n, err := c.u16(f.Swap)
			if err != nil {
				return rec, err
			}
			if err := c.skip(int(n)); err != nil {
				return rec, err
			}
		case insnBlock4:
			n, err := c.u32(f.Swap)
			if err != nil {
				return rec, err
			}
			if err := c.skip(int(n)); err != nil {
				return rec, err
			}
		case insnExprloc:
			n, err := c.uleb()
			if err != nil {
				return rec, err
			}
			if err := c.skip(int(n)); err != nil {
				return rec, err
			}
		case insnLEB128:
			if _, err := c.uleb(); err != nil {
				return rec, err
			}
		case insnString:
			if _, err := c.cstring(); err != nil {
				return rec, err
			}
		case insnSiblingRef1, insnSpecificationRef1:
			v, err := c.u8()
			if err != nil {
				return rec, err
			}
			if insn == insnSpecificationRef1 {
				rec.haveSpec, rec.specOffset = true, cu.offset+uint32(v)
			}
		case insnSiblingRef2, insnSpecificationRef2:
			v, err := c.u16(f.Swap)
			if err != nil {
				return rec, err
			}
			if insn == insnSpecificationRef2 {
				rec.haveSpec, rec.specOffset = true, cu.offset+uint32(v)
			}
		case insnSiblingRef4, insnSpecificationRef4:
			v, err := c.u32(f.Swap)
			if err != nil {
				return rec, err
			}
			if insn == insnSpecificationRef4 {
				rec.haveSpec, rec.specOffset = true, cu.offset+v
			}
		case insnSiblingRef8, insnSpecificationRef8:
			v, err := c.u64(f.Swap)
			if err != nil {
				return rec, err
			}
			if insn == insnSpecificationRef8 {
				rec.haveSpec, rec.specOffset = true, cu.offset+uint32(v)
			}
		case insnSiblingRefUdata, insnSpecificationRefUdata:
			v, err := c.uleb()
			if err != nil {
				return rec, err
			}
			if insn == insnSpecificationRefUdata {
				rec.haveSpec, rec.specOffset = true, cu.offset+uint32(v)
			}
		case insnNameStrp4:
			off, err := c.u32(f.Swap)
			if err != nil {
				return rec, err
			}
			s, err := cstringAt(f.Str, uint64(off))
			if err != nil {
				return rec, err
			}
			rec.name = s
		case insnNameStrp8:
			off, err := c.u64(f.Swap)
			if err != nil {
				return rec, err
			}
			s, err := cstringAt(f.Str, off)
			if err != nil {
				return rec, err
			}
			rec.name = s
		case insnNameString:
			s, err := c.cstring()
			if err != nil {
				return rec, err
			}
			rec.name = s
		case insnStmtListLineptr4:
			v, err := c.u32(f.Swap)
			if err != nil {
				return rec, err
			}
			rec.haveLine, rec.lineOffset = true, uint64(v)
		case insnStmtListLineptr8:
			v, err := c.u64(f.Swap)
			if err != nil {
				return rec, err
			}
			rec.haveLine, rec.lineOffset = true, v
		case insnDeclFileData1:
			v, err := c.u8()
			if err != nil {
				return rec, err
			}
			rec.haveDecl, rec.declFile = true, int64(v)
		case insnDeclFileData2:
			v, err := c.u16(f.Swap)
			if err != nil {
				return rec, err
			}
			rec.haveDecl, rec.declFile = true, int64(v)
		case insnDeclFileData4:
			v, err := c.u32(f.Swap)
			if err != nil {
				return rec, err
			}
			rec.haveDecl, rec.declFile = true, int64(v)
		case insnDeclFileData8:
			v, err := c.u64(f.Swap)
			if err != nil {
				return rec, err
			}
			rec.haveDecl, rec.declFile = true, int64(v)
		case insnDeclFileUdata:
			v, err := c.uleb()
			if err != nil {
				return rec, err
			}
			rec.haveDecl, rec.declFile = true, int64(v)
		default:
			return rec, drgerr.New(drgerr.DWARFFormat, "%q: unknown compiled instruction %d", f.Path, insn)
		}
	}

	return rec, nil
}

// stackFrame tracks one open parent while the DFS walks its children.
type stackFrame struct {
	offset uint32
	tag    dwarf.Tag
}

// walkResult accumulates entries produced while walking a single CU; the
// caller inserts them into the shard set under the shard lock, once per
// name, after the whole CU has been parsed (keeping the CU's own work
// entirely lock-free, per spec.md §5 item 2).
type walkResult struct {
	names   []string
	entries []Entry
}

func (w *walkResult) add(name string, e Entry) {
	w.names = append(w.names, name)
	w.entries = append(w.entries, e)
}

// walkCU performs the depth-tracked DFS described in spec.md §4.2: it
// bootstraps the CU's file-name table from the root DIE's stmt_list, indexes
// depth-1 definitions, and re-parents depth-2 DW_TAG_enumerator children of
// a depth-1 DW_TAG_enumeration_type onto the enum's own offset.
func walkCU(cu *compilationUnit, table *abbrevTable, flags Flags) (*walkResult, error) {
	f := cu.file
	c := newCursor(f.Info)
	c.pos = int(cu.headerEnd)

	result := &walkResult{}
	var stack []stackFrame
	var ft *fileTable

	for c.pos < int(cu.end) {
		rec, err := interpretOne(f, cu, table, c)
		if err != nil {
			return nil, err
		}
		if rec.endOfSibling {
			if len(stack) == 0 {
				return nil, drgerr.New(drgerr.DWARFFormat, "%q: unbalanced DIE tree in CU at offset %d", f.Path, cu.offset)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		depth := len(stack)
		tag := rec.tag()

		switch depth {
		case 0:
			if rec.haveLine {
				ft, err = buildFileTable(f, rec.lineOffset)
				if err != nil {
					return nil, err
				}
			}
			if ft == nil {
				ft = &fileTable{}
			}
		case 1:
			if tag != 0 && !rec.isDeclaration() {
				name, declFile := rec.name, rec.declFile
				if rec.haveSpec && (name == "" || !rec.haveDecl) {
					spec, err := resolveSpecification(f, cu, table, rec.specOffset)
					if err == nil {
						if name == "" {
							name = spec.name
						}
						if !rec.haveDecl && spec.haveDecl {
							declFile = spec.declFile
						}
					}
				}
				if name != "" {
					result.add(name, Entry{File: f, Offset: rec.offset, Tag: tag, FileHash: ft.hashOf(declFile)})
				}
			}
		case 2:
			if len(stack) > 0 && stack[len(stack)-1].tag == dwarf.TagEnumerationType &&
				tag == dwarf.TagEnumerator && !rec.isDeclaration() && rec.name != "" {
				parent := stack[len(stack)-1]
				result.add(rec.name, Entry{File: f, Offset: parent.offset, Tag: dwarf.TagEnumerationType, FileHash: ft.hashOf(rec.declFile)})
			}
		}

		if rec.hasChildren() {
			stack = append(stack, stackFrame{offset: rec.offset, tag: tag})
		}
	}

	return result, nil
}

// resolveSpecification reads the DIE a DW_AT_specification reference points
// to and returns its name/decl_file, for the single level of indirection
// spec.md §4.2 describes: "missing name or decl-file attributes are
// borrowed from the referenced DIE".
func resolveSpecification(f *openFile, cu *compilationUnit, table *abbrevTable, offset uint32) (dieRecord, error) {
	c := newCursor(f.Info)
	c.pos = int(offset)
	return interpretOne(f, cu, table, c)
}
