package dwarfidx

import (
	"debug/dwarf"
	"sync"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// openFile wraps a binfmt.File with the bookkeeping Update needs: whether
// it has been folded into the index yet, and (on a failed update) whether
// it should be purged from every shard again.
type openFile struct {
	*binfmt.File
	indexed bool
}

// Index is the concurrent, sharded name index described in spec.md §4.2.
// Open registers files without indexing them; Update folds every
// newly-opened file into the index in one all-or-nothing step.
type Index struct {
	flags Flags

	mu    sync.Mutex // protects files; insertions only, per spec.md §5.
	files []*openFile

	shards [numShards]*shard
}

// New creates an empty index that will keep the entry kinds named by flags.
func New(flags Flags) *Index {
	idx := &Index{flags: flags}
	for i := range idx.shards {
		idx.shards[i] = newShard()
	}
	return idx
}

// Open registers an already-parsed binfmt.File with the index. The file is
// not indexed until the next Update call; relocations must have been
// applied (binfmt.ApplyRelocations) before that Update.
func (idx *Index) Open(f *binfmt.File) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.files = append(idx.files, &openFile{File: f})
}

// Update indexes every file that Open has registered but a prior Update
// hasn't yet processed. It gives at-once consistency: before Update
// returns, either every newly-opened file is fully indexed or none of them
// are (spec.md §4.2 "Update semantics").
func (idx *Index) Update() error {
	idx.mu.Lock()
	var pending []*openFile
	for _, f := range idx.files {
		if !f.indexed {
			pending = append(pending, f)
		}
	}
	idx.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	type cuJob struct {
		file *openFile
		cu   *compilationUnit
	}
	var jobs []cuJob
	abbrevCache := map[abbrevCacheKey]*abbrevTable{}

	for _, f := range pending {
		cus, err := scanCompilationUnits(f)
		if err != nil {
			idx.rollback(pending)
			return err
		}
		for _, cu := range cus {
			jobs = append(jobs, cuJob{file: f, cu: cu})
		}
	}

	p := pool.NewWithResults[*walkResult]().WithErrors()
	for _, job := range jobs {
		job := job
		p.Go(func() (*walkResult, error) {
			table, err := compiledAbbrevFor(abbrevCache, job.file, job.cu, idx.flags)
			if err != nil {
				return nil, err
			}
			return walkCU(job.cu, table, idx.flags)
		})
	}

	results, err := p.Wait()
	if err != nil {
		idx.rollback(pending)
		return err
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		for i, name := range r.names {
			s, _ := shardFor(idx.shards[:], name)
			s.insert(name, r.entries[i])
		}
	}

	idx.mu.Lock()
	for _, f := range pending {
		f.indexed = true
	}
	idx.mu.Unlock()
	return nil
}

// rollback truncates any entries the failed batch contributed and marks
// none of pending as indexed, so a retried Update starts clean.
func (idx *Index) rollback(pending []*openFile) {
	failed := make(map[*openFile]bool, len(pending))
	for _, f := range pending {
		failed[f] = true
	}
	for _, s := range idx.shards {
		s.truncateFailedInsertions(failed)
	}
}

// abbrevCacheKey identifies one compiled abbreviation table: the owning
// file plus the byte offset of its table in .debug_abbrev, plus the flag
// set it was compiled for (two indexes with different Flags over the same
// file must not share a cache entry, since compilation depends on flags).
type abbrevCacheKey struct {
	file   *openFile
	offset uint64
	flags  Flags
}

var abbrevCacheMu sync.Mutex

func compiledAbbrevFor(cache map[abbrevCacheKey]*abbrevTable, f *openFile, cu *compilationUnit, flags Flags) (*abbrevTable, error) {
	key := abbrevCacheKey{file: f, offset: cu.abbrevOffset, flags: flags}

	abbrevCacheMu.Lock()
	if t, ok := cache[key]; ok {
		abbrevCacheMu.Unlock()
		return t, nil
	}
	abbrevCacheMu.Unlock()

	table, err := compileAbbrevTable(f.Abbrev, cu.abbrevOffset, flags, cu)
	if err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to compile abbreviation table at offset %d", f.Path, cu.abbrevOffset)
	}

	abbrevCacheMu.Lock()
	cache[key] = table
	abbrevCacheMu.Unlock()
	return table, nil
}

// Lookup returns every entry registered under name. A caller that also
// wants to filter by tag should do so on the result with lo.Filter; tag
// filtering is applied after lookup per spec.md §6.
func (idx *Index) Lookup(name string) []Entry {
	s, _ := shardFor(idx.shards[:], name)
	return s.chain(name)
}

// LookupTag returns every entry registered under name whose tag is in tags.
func (idx *Index) LookupTag(name string, tags ...dwarf.Tag) []Entry {
	return lo.Filter(idx.Lookup(name), func(e Entry, _ int) bool {
		for _, t := range tags {
			if e.Tag == t {
				return true
			}
		}
		return false
	})
}

// All returns every entry across every shard (a null-name lookup per
// spec.md §6's produced lookup-iterator contract).
func (idx *Index) All() []Entry {
	var out []Entry
	for _, s := range idx.shards {
		out = append(out, s.all()...)
	}
	return out
}
