package binfmt

import (
	"debug/elf"
	"encoding/binary"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/sourcegraph/conc/pool"
)

// pendingReloc is a relocation entry collected at Open time but not yet
// applied: it names the destination section by name (rather than holding a
// byte-slice pointer directly) so ApplyRelocations can resolve it against
// the File's current section buffer regardless of processing order.
type pendingReloc struct {
	section string
	offset  uint64
	symbol  uint32
	typ     elf.R_X86_64
	addend  int64
	wide    bool // 64-bit write vs 32-bit
}

// collectRelocations walks every SHT_RELA section targeting one of the four
// debug sections and records its entries. x86_64 objects use RELA
// (explicit addend); relocation sections of any other type, SHT_REL
// included, are skipped, so their entries are never applied.
func collectRelocations(f *File, elfFile *elf.File) ([]pendingReloc, error) {
	var out []pendingReloc

	debugSectionNames := map[string]bool{
		".debug_abbrev": true,
		".debug_info":   true,
		".debug_line":   true,
		".debug_str":    true,
	}

	for _, sec := range elfFile.Sections {
		if sec.Type != elf.SHT_RELA {
			continue
		}

		target := targetSectionName(sec.Name)
		if !debugSectionNames[target] {
			continue
		}
		if f.debugSectionData(target) == nil {
			continue
		}

		if len(f.Symbols) == 0 {
			return nil, drgerr.New(drgerr.ELFFormat, "%q: relocation section %q targets %q but the file has no symbol table", f.Path, sec.Name, target)
		}

		data, err := sec.Data()
		if err != nil {
			return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to read relocation section %q of %q", sec.Name, f.Path)
		}

		const relaEntrySize = 24 // r_offset(8) + r_info(8) + r_addend(8)
		for off := 0; off+relaEntrySize <= len(data); off += relaEntrySize {
			offset := binary.LittleEndian.Uint64(data[off : off+8])
			info := binary.LittleEndian.Uint64(data[off+8 : off+16])
			addend := int64(binary.LittleEndian.Uint64(data[off+16 : off+24]))

			symIdx := uint32(info >> 32)
			typ := elf.R_X86_64(uint32(info))
			if typ == elf.R_X86_64_NONE {
				continue
			}

			wide, err := relocationWidth(typ)
			if err != nil {
				return nil, drgerr.Wrap(drgerr.ELFFormat, err, "%q: relocation section %q", f.Path, sec.Name)
			}

			out = append(out, pendingReloc{
				section: target,
				offset:  offset,
				symbol:  symIdx,
				typ:     typ,
				addend:  addend,
				wide:    wide,
			})
		}
	}

	return out, nil
}

func targetSectionName(relaName string) string {
	const prefix = ".rela"
	if len(relaName) > len(prefix) && relaName[:len(prefix)] == prefix {
		return relaName[len(prefix):]
	}
	return relaName
}

func relocationWidth(typ elf.R_X86_64) (wide bool, err error) {
	switch typ {
	case elf.R_X86_64_32, elf.R_X86_64_32S, elf.R_X86_64_PC32:
		return false, nil
	case elf.R_X86_64_64:
		return true, nil
	default:
		return false, drgerr.New(drgerr.ELFFormat, "unknown relocation type %v", typ)
	}
}

// relocJob is one unit of relocation work: a file paired with one of its
// pending relocations, handed to a pool worker as is.
type relocJob struct {
	file *File
	rel  pendingReloc
}

// ApplyRelocations writes symbol.value+addend into each file's debug
// sections for every relocation collected by Open, across all files in one
// parallel pass. Bounds violations (symbol index or write extent) abort the
// whole pass with an ELF-format error; the first worker error wins.
func ApplyRelocations(files []*File) error {
	var jobs []relocJob
	for _, f := range files {
		for _, rel := range f.pending {
			jobs = append(jobs, relocJob{file: f, rel: rel})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithFirstError()
	for _, job := range jobs {
		job := job
		p.Go(func() error {
			return applyOne(job)
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	for _, f := range files {
		f.pending = nil
	}
	return nil
}

func applyOne(job relocJob) error {
	f := job.file
	rel := job.rel

	// debug/elf's Symbols() drops the mandatory leading STN_UNDEF entry,
	// so a raw ELF symbol index is off by one against f.Symbols.
	symIdx := int(rel.symbol) - 1
	if symIdx < 0 || symIdx >= len(f.Symbols) {
		return drgerr.New(drgerr.ELFFormat, "%q: relocation references out-of-range symbol %d", f.Path, rel.symbol)
	}
	sym := f.Symbols[symIdx]
	value := sym.Value + uint64(rel.addend)

	section := f.debugSectionData(rel.section)
	width := uint64(4)
	if rel.wide {
		width = 8
	}
	if rel.offset+width > uint64(len(section)) {
		return drgerr.New(drgerr.ELFFormat, "%q: relocation write at offset %d, width %d exceeds section %q of size %d",
			f.Path, rel.offset, width, rel.section, len(section))
	}

	if rel.wide {
		binary.LittleEndian.PutUint64(section[rel.offset:rel.offset+8], value)
	} else {
		binary.LittleEndian.PutUint32(section[rel.offset:rel.offset+4], uint32(value))
	}
	return nil
}
