package models

import "strconv"

// EntityID identifies an object in the world. IDs are assigned in creation
// order starting at 1 and never reused, so ascending ID order is the stable
// iteration order used wherever "first seen wins".
type EntityID uint64

// None is the zero ID; no live entity ever carries it.
const None EntityID = 0

func (id EntityID) Valid() bool { return id != None }

func (id EntityID) String() string {
	if id == None {
		return "none"
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}
