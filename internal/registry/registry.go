// Package registry tracks which profiles have been checked during one
// run. Entries are never removed: re-checking the same identity within
// a run must be impossible, so the registry only grows. The same table
// partitions checked profiles into result buckets that the relative
// expansion passes consume later.
package registry

import "sync"

// Entry is the minimal checked-marker for one profile.
type Entry struct {
	ID   int64
	Name string
}

// Registry is safe for concurrent use. Add is first-write-wins; Has is
// a pure membership test; Reserve is the counted lookup the traversal
// engine uses at fetch-issue time, so the duplicate counter reflects
// identities surfaced by more than one discovery path.
type Registry struct {
	mu         sync.Mutex
	entries    map[int64]Entry
	duplicates int

	style     map[int64]bool
	unsourced map[int64]bool
	possibly  map[int64]bool
	expanded  map[int64]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries:   map[int64]Entry{},
		style:     map[int64]bool{},
		unsourced: map[int64]bool{},
		possibly:  map[int64]bool{},
		expanded:  map[int64]bool{},
	}
}

// Add records id if it is not already present. Duplicate adds are
// silently ignored; the first recorded entry wins.
func (r *Registry) Add(id int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		r.entries[id] = Entry{ID: id, Name: name}
	}
}

// Has reports membership without side effects.
func (r *Registry) Has(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Reserve atomically claims id for checking. It returns false and
// increments the duplicate counter when id was already claimed, so a
// profile surfaced by overlapping discovery paths is fetched at most
// once per reservation winner.
func (r *Registry) Reserve(id int64, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		r.duplicates++
		return false
	}
	r.entries[id] = Entry{ID: id, Name: name}
	return true
}

// Duplicates returns how many reservations hit an already-claimed id.
func (r *Registry) Duplicates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duplicates
}

// Len returns the number of registered profiles. It never decreases
// within a run.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// MarkStyle adds id to the style-issue bucket.
func (r *Registry) MarkStyle(id int64) { r.mark(r.style, id) }

// MarkUnsourced adds id to the marked-unsourced bucket.
func (r *Registry) MarkUnsourced(id int64) { r.mark(r.unsourced, id) }

// MarkPossiblyUnsourced adds id to the possibly-unsourced bucket.
func (r *Registry) MarkPossiblyUnsourced(id int64) { r.mark(r.possibly, id) }

func (r *Registry) mark(bucket map[int64]bool, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket[id] = true
}

// IssueIDs returns a snapshot of every profile currently in any result
// bucket.
func (r *Registry) IssueIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, bucket := range []map[int64]bool{r.style, r.unsourced, r.possibly} {
		for id := range bucket {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// ClaimUnexpanded filters ids down to those not yet relative-expanded
// this run and marks them expanded. Each call strictly grows the
// expanded set, so repeated expansion terminates even on cyclic graphs.
func (r *Registry) ClaimUnexpanded(ids []int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, id := range ids {
		if !r.expanded[id] {
			r.expanded[id] = true
			out = append(out, id)
		}
	}
	return out
}
