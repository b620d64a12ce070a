// Package registry keeps the in-memory set of readers and their counts.
package registry

import (
	"fmt"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/types"
)

// Registry maps reader IDs to readers, preserving insertion order.
// It is owned by a single goroutine (the UI event loop) and is not locked.
type Registry struct {
	order   []string
	readers map[string]*types.Reader
}

// New builds a registry from configured seeds. Counts are taken from counts,
// typically the per-reader row tally of the book log. Duplicate seeds keep
// their first position.
func New(seeds []types.ReaderSeed, counts map[string]int) *Registry {
	r := &Registry{readers: make(map[string]*types.Reader, len(seeds))}
	for _, seed := range seeds {
		if seed.ID == "" {
			continue
		}
		if _, ok := r.readers[seed.ID]; ok {
			continue
		}
		reader := &types.Reader{ID: seed.ID, ReadCount: counts[seed.ID]}
		if seed.AvatarRef != nil {
			avatar := *seed.AvatarRef
			reader.AvatarRef = &avatar
		}
		r.order = append(r.order, seed.ID)
		r.readers[seed.ID] = reader
	}
	return r
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.readers[id]
	return ok
}

// Get returns a copy of the reader with id.
func (r *Registry) Get(id string) (types.Reader, error) {
	reader, ok := r.readers[id]
	if !ok {
		return types.Reader{}, fmt.Errorf("get %q: %w", id, core.ErrUnknownReader)
	}
	return clone(reader), nil
}

// Increment advances a reader's count by one and returns the updated reader.
// It is the only mutation the registry exposes.
func (r *Registry) Increment(id string) (types.Reader, error) {
	reader, ok := r.readers[id]
	if !ok {
		return types.Reader{}, fmt.Errorf("increment %q: %w", id, core.ErrUnknownReader)
	}
	reader.ReadCount++
	return clone(reader), nil
}

// Resync replaces every reader's count with the tally in counts. It is used
// when the book log changed outside this process; readers missing from
// counts drop to zero.
func (r *Registry) Resync(counts map[string]int) {
	for _, id := range r.order {
		r.readers[id].ReadCount = counts[id]
	}
}

// List returns copies of all readers in insertion order.
func (r *Registry) List() []types.Reader {
	out := make([]types.Reader, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.readers[id]))
	}
	return out
}

// Len returns the number of readers.
func (r *Registry) Len() int {
	return len(r.order)
}

func clone(reader *types.Reader) types.Reader {
	out := *reader
	if reader.AvatarRef != nil {
		avatar := *reader.AvatarRef
		out.AvatarRef = &avatar
	}
	return out
}
