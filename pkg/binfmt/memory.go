package binfmt

import "github.com/Manu343726/drgo/pkg/drgerr"

// ReadMemory implements the object package's MemoryReader contract (spec.md
// §6) by reading directly out of this file's own loaded ELF sections,
// rather than a live process or core dump. This is the "read an
// initialized global out of the binary that declared it" case a caller
// without an attached target still wants; a real debugging session
// supplies its own MemoryReader backed by ptrace or a core dump instead.
// physical is ignored: an ELF file has no physical/virtual distinction of
// its own.
func (f *File) ReadMemory(buf []byte, address uint64, physical bool) error {
	for _, sec := range f.elfFile.Sections {
		if sec.Addr == 0 {
			continue
		}
		if address < sec.Addr || address+uint64(len(buf)) > sec.Addr+sec.Size {
			continue
		}

		off := address - sec.Addr
		if sec.Type == 0x8 { // SHT_NOBITS (.bss): zero-initialized, not stored.
			for i := range buf {
				buf[i] = 0
			}
			return nil
		}

		data, err := sec.Data()
		if err != nil {
			return drgerr.Wrap(drgerr.ELFFormat, err, "%q: failed to read section %q", f.Path, sec.Name)
		}
		if off+uint64(len(buf)) > uint64(len(data)) {
			return drgerr.Faultf(address, "%q: short section data for address 0x%x", f.Path, address)
		}
		copy(buf, data[off:off+uint64(len(buf))])
		return nil
	}
	return drgerr.Faultf(address, "%q: address 0x%x is not mapped in any loaded section", f.Path, address)
}
