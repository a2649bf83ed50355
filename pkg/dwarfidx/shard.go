package dwarfidx

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// shardBits controls the shard count (S = 256 per spec.md §4.2).
const shardBits = 8
const numShards = 1 << shardBits

// shardEntry is one entry stored in a shard's contiguous array. next chains
// to the previous entry with the same name (index into the same shard's
// entries array, or -1 for the head), so an entry chain's head is the first
// entry inserted for a name and new entries are appended at the tail.
type shardEntry struct {
	Entry
	name string
	next int32
}

// shard is one of the 256 independent maps the index is sharded into. It is
// guarded by its own mutex so concurrent CU workers only contend with each
// other when they land on the same shard.
type shard struct {
	mu      sync.Mutex
	heads   map[string]int32 // name -> tail index of its chain (most recent insertion)
	entries []shardEntry
}

func newShard() *shard {
	return &shard{heads: make(map[string]int32)}
}

// shardFor selects the shard for a name, taking the shard index from the
// middle bits of the hash (the top byte is conventionally reserved by
// open-addressed hash tables as a tag; avoiding it here keeps the shard
// selection independent of any such tag a caller-side cache might derive
// from the same hash).
func shardFor(shards []*shard, name string) (*shard, uint64) {
	h := xxhash.Sum64String(name)
	idx := (h >> (64 - 8 - shardBits)) & (numShards - 1)
	return shards[idx], h
}

// insert appends e to name's chain under the shard's lock; the new entry
// becomes the tail for subsequent insertions of the same name within this
// shard.
func (s *shard) insert(name string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := int32(len(s.entries))
	prevTail, ok := s.heads[name]
	next := int32(-1)
	if ok {
		next = prevTail
	}
	s.entries = append(s.entries, shardEntry{Entry: e, name: name, next: next})
	s.heads[name] = idx
}

// chain returns every entry registered under name, head first (insertion
// order), by walking the tail-to-head next links and reversing.
func (s *shard) chain(name string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail, ok := s.heads[name]
	if !ok {
		return nil
	}
	var rev []Entry
	for idx := tail; idx != -1; idx = s.entries[idx].next {
		rev = append(rev, s.entries[idx].Entry)
	}
	out := make([]Entry, len(rev))
	for i, e := range rev {
		out[len(rev)-1-i] = e
	}
	return out
}

// all returns every entry currently stored in the shard, used by the
// null-name lookup iterator.
func (s *shard) all() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	for i, se := range s.entries {
		out[i] = se.Entry
	}
	return out
}

// truncateFailedInsertions drops every entry whose File is one of the given
// failed files, used to roll back a partially-indexed update that failed
// partway through. It filters the shard's whole array in place, keeping the
// surviving entries in their original order, then rebuilds the chain map;
// no pre-update length is recorded and the array is not truncated to one.
func (s *shard) truncateFailedInsertions(failed map[*openFile]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, se := range s.entries {
		if !failed[se.File] {
			kept = append(kept, se)
		}
	}
	s.entries = kept

	s.heads = make(map[string]int32, len(s.heads))
	for idx, se := range s.entries {
		// Re-chain by scanning forward: later insertions still overwrite
		// earlier ones as the new tail, preserving original relative order
		// since kept retains the original array order.
		name := se.name
		if name == "" {
			continue
		}
		prev, ok := s.heads[name]
		next := int32(-1)
		if ok {
			next = prev
		}
		s.entries[idx].next = next
		s.heads[name] = int32(idx)
	}
}
