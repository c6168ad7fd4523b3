package component

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/spatial/internal/core/models"
)

// Tracker marks an object as opted into collision reporting and holds the
// objects it overlapped during the most recent collision pass, in ascending ID
// order. Only the collision broadcaster writes it.
type Tracker struct {
	Overlapping []models.EntityID
	Fingerprint uint64
}

// Contains reports whether id overlapped during the last pass.
func (t Tracker) Contains(id models.EntityID) bool {
	_, found := slices.BinarySearch(t.Overlapping, id)
	return found
}

// Snapshot returns a copy safe to hand to callers.
func (t Tracker) Snapshot() []models.EntityID {
	return slices.Clone(t.Overlapping)
}

// Replace swaps in a freshly computed overlap list and returns the previous
// one.
func (t *Tracker) Replace(ids []models.EntityID) []models.EntityID {
	prev := t.Overlapping
	t.Overlapping = ids
	t.Fingerprint = FingerprintOf(ids)
	return prev
}

// FingerprintOf hashes an ID list; equal lists hash equally.
func FingerprintOf(ids []models.EntityID) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
