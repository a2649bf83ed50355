package dwarfidx

import (
	"debug/dwarf"

	"github.com/Manu343726/drgo/pkg/drgerr"
)

// Instead of interpreting the DWARF abbreviation table per DIE, each
// abbreviation code is compiled once into a compact instruction stream. An
// instruction byte <= insnMaxSkip means "skip that many bytes of attribute
// payload"; the instructions above it name a specific attribute parse; every
// declaration's instruction stream is terminated by a zero byte followed by
// a flags+tag byte (tag truncated to the low 6 bits, TAG_FLAG_CHILDREN and
// TAG_FLAG_DECLARATION in the top two).
const insnMaxSkip uint8 = 229

const (
	insnBlock1 = insnMaxSkip + 1 + iota
	insnBlock2
	insnBlock4
	insnExprloc
	insnLEB128
	insnString
	insnSiblingRef1
	insnSiblingRef2
	insnSiblingRef4
	insnSiblingRef8
	insnSiblingRefUdata
	insnNameStrp4
	insnNameStrp8
	insnNameString
	insnStmtListLineptr4
	insnStmtListLineptr8
	insnDeclFileData1
	insnDeclFileData2
	insnDeclFileData4
	insnDeclFileData8
	insnDeclFileUdata
	insnSpecificationRef1
	insnSpecificationRef2
	insnSpecificationRef4
	insnSpecificationRef8
	insnSpecificationRefUdata
)

const (
	tagBits       = 6
	tagMask       = (1 << tagBits) - 1
	tagFlagDecl   = 0x40
	tagFlagChilds = 0x80
)

// abbrevTable is one compiled abbreviation table: decls[code-1] is the
// index into insns where that abbreviation code's instruction stream
// begins (GCC emits sequential codes starting at one, so a flat array
// suffices, as in the teacher's DWARF reader and the reference indexer).
type abbrevTable struct {
	decls []int
	insns []uint8
}

func isTypeTag(tag dwarf.Tag) bool {
	switch tag {
	case dwarf.TagBaseType, dwarf.TagClassType, dwarf.TagEnumerationType,
		dwarf.TagStructType, dwarf.TagTypedef, dwarf.TagUnionType:
		return true
	}
	return false
}

// compileAbbrevTable walks the raw .debug_abbrev bytes for one table
// (terminated by an abbreviation code of zero) and compiles every
// declaration's attribute list into the instruction stream above, gated by
// which entry kinds flags asks to index.
func compileAbbrevTable(data []byte, offset uint64, flags Flags, cu *compilationUnit) (*abbrevTable, error) {
	c := newCursor(data)
	if err := c.skip(int(offset)); err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "bad abbrev offset %d", offset)
	}

	table := &abbrevTable{}
	for {
		code, err := c.uleb()
		if err != nil {
			return nil, err
		}
		if code == 0 {
			break
		}
		if int(code) != len(table.decls)+1 {
			return nil, drgerr.New(drgerr.DWARFFormat, "DWARF abbreviation table is not sequential")
		}
		table.decls = append(table.decls, len(table.insns))
		if err := compileOneDecl(c, flags, cu, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func compileOneDecl(c *cursor, flags Flags, cu *compilationUnit, table *abbrevTable) error {
	tagCode, err := c.uleb()
	if err != nil {
		return err
	}
	tag := dwarf.Tag(tagCode)

	hasChildren, err := c.u8()
	if err != nil {
		return err
	}

	shouldIndex := (flags.has(IndexTypes) && isTypeTag(tag)) ||
		(flags.has(IndexVariables) && tag == dwarf.TagVariable) ||
		(flags.has(IndexEnumerators) && tag == dwarf.TagEnumerator) ||
		(flags.has(IndexFunctions) && tag == dwarf.TagSubprogram)

	var dieFlags uint8
	if shouldIndex || tag == dwarf.TagCompileUnit ||
		(flags.has(IndexEnumerators) && tag == dwarf.TagEnumerationType) {
		dieFlags = uint8(tag) & tagMask
	}
	if hasChildren != 0 {
		dieFlags |= tagFlagChilds
	}

	indexingEnumeratorsIntoThisEnum := flags.has(IndexEnumerators) && tag == dwarf.TagEnumerationType

	// Skips coalesce only within this declaration's own stream, never into
	// the previous declaration's flags+tag byte.
	declStart := len(table.insns)
	appendInsn := func(insn uint16) {
		if insn <= uint16(insnMaxSkip) && len(table.insns) > declStart && table.insns[len(table.insns)-1] < insnMaxSkip {
			prev := uint16(table.insns[len(table.insns)-1])
			if prev+insn <= uint16(insnMaxSkip) {
				table.insns[len(table.insns)-1] = uint8(prev + insn)
				return
			}
			table.insns[len(table.insns)-1] = insnMaxSkip
			insn = prev + insn - uint16(insnMaxSkip)
		}
		table.insns = append(table.insns, uint8(insn))
	}

	for {
		nameA, err := c.uleb()
		if err != nil {
			return err
		}
		formA, err := c.uleb()
		if err != nil {
			return err
		}
		if nameA == 0 && formA == 0 {
			break
		}
		name := dwarf.Attr(nameA)
		f := form(formA)

		if f == formImplicitConst {
			if _, err := c.sleb(); err != nil {
				return err
			}
		}

		switch {
		case name == dwarf.AttrSibling && !indexingEnumeratorsIntoThisEnum:
			switch f {
			case formRef1:
				appendInsn(insnSiblingRef1)
				continue
			case formRef2:
				appendInsn(insnSiblingRef2)
				continue
			case formRef4:
				appendInsn(insnSiblingRef4)
				continue
			case formRef8:
				appendInsn(insnSiblingRef8)
				continue
			case formRefUdata:
				appendInsn(insnSiblingRefUdata)
				continue
			}
		case name == dwarf.AttrName && shouldIndex:
			switch f {
			case formStrp:
				if cu.is64Bit {
					appendInsn(insnNameStrp8)
				} else {
					appendInsn(insnNameStrp4)
				}
				continue
			case formString:
				appendInsn(insnNameString)
				continue
			}
		case name == dwarf.AttrStmtList && tag == dwarf.TagCompileUnit:
			switch f {
			case formData4:
				appendInsn(insnStmtListLineptr4)
				continue
			case formData8:
				appendInsn(insnStmtListLineptr8)
				continue
			case formSecOffset:
				if cu.is64Bit {
					appendInsn(insnStmtListLineptr8)
				} else {
					appendInsn(insnStmtListLineptr4)
				}
				continue
			}
		case name == dwarf.AttrDeclFile && shouldIndex:
			switch f {
			case formData1:
				appendInsn(insnDeclFileData1)
				continue
			case formData2:
				appendInsn(insnDeclFileData2)
				continue
			case formData4:
				appendInsn(insnDeclFileData4)
				continue
			case formData8:
				appendInsn(insnDeclFileData8)
				continue
			case formSdata, formUdata:
				appendInsn(insnDeclFileUdata)
				continue
			}
		case name == dwarf.AttrDeclaration:
			dieFlags |= tagFlagDecl
		case name == dwarf.AttrSpecification && shouldIndex:
			switch f {
			case formRef1:
				appendInsn(insnSpecificationRef1)
				continue
			case formRef2:
				appendInsn(insnSpecificationRef2)
				continue
			case formRef4:
				appendInsn(insnSpecificationRef4)
				continue
			case formRef8:
				appendInsn(insnSpecificationRef8)
				continue
			case formRefUdata:
				appendInsn(insnSpecificationRefUdata)
				continue
			}
		}

		switch f {
		case formAddr:
			appendInsn(uint16(cu.addressSize))
		case formData1, formRef1, formFlag:
			appendInsn(1)
		case formData2, formRef2:
			appendInsn(2)
		case formData4, formRef4:
			appendInsn(4)
		case formData8, formRef8, formRefSig8:
			appendInsn(8)
		case formData16:
			appendInsn(16)
		case formBlock1:
			appendInsn(uint16(insnBlock1))
		case formBlock2:
			appendInsn(uint16(insnBlock2))
		case formBlock4:
			appendInsn(uint16(insnBlock4))
		case formExprloc:
			appendInsn(uint16(insnExprloc))
		case formSdata, formUdata, formRefUdata, formStrx, formAddrx, formLoclistx, formRnglistx:
			appendInsn(uint16(insnLEB128))
		case formRefAddr, formSecOffset, formStrp, formLineStrp, formRefSup4:
			if cu.is64Bit {
				appendInsn(8)
			} else {
				appendInsn(4)
			}
		case formString:
			appendInsn(uint16(insnString))
		case formFlagPresent, formImplicitConst:
			// zero-width; nothing to skip or store.
		case formIndirect:
			return drgerr.New(drgerr.DWARFFormat, "DW_FORM_indirect is not implemented")
		default:
			return drgerr.New(drgerr.DWARFFormat, "unknown attribute form %#x", formA)
		}
	}

	table.insns = append(table.insns, 0, dieFlags)
	return nil
}

func (f Flags) has(bit Flags) bool { return f&bit != 0 }
