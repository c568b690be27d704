// Package od implements the Object Dictionary (C4), the DataLink
// capability and its primitive adapters (C3), and the OdCell locking
// discipline used by the SDO server.
package od

import "sort"

// Position is an opaque handle to a previously located slot, obtained from
// Search and consumed by Get/GetPlus. It avoids repeating the binary
// search when the same slot is revisited (e.g. once per SDO segment).
type Position int

type slot struct {
	index    uint16
	subindex uint8
	flags    Flags
	link     DataLink
}

// Dictionary is the ordered, binary-searchable (index,subindex) -> slot
// directory of spec.md §3. It owns every slot's DataLink (each of which,
// in turn, typically points at a field of the application's own aggregate
// struct) and never reallocates once Build has returned successfully -
// the Go equivalent of the spec's "N is a compile-time constant" and
// "offsets/vtables materialized once" requirements, achieved via a frozen
// slice of (position -> DataLink) pairs rather than raw offsets.
type Dictionary struct {
	slots []slot
}

// Builder accumulates slots before a single Build() call freezes them into
// a Dictionary. Mirrors the role the derive/macro front-end plays in the
// original: all slots are known before the node starts processing frames.
type Builder struct {
	slots []slot
	err   error
}

// NewBuilder starts a new Object Dictionary under construction.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add declares one slot at (index,subindex) backed by link, with the given
// access flags. Safe to call in any order; Build sorts and validates.
func (b *Builder) Add(index uint16, subindex uint8, link DataLink, flags Flags) *Builder {
	if b.err != nil {
		return b
	}
	if link == nil {
		b.err = Error{ErrGeneralError}
		return b
	}
	b.slots = append(b.slots, slot{index: index, subindex: subindex, flags: flags, link: link})
	return b
}

// Build validates uniqueness of (index,subindex) pairs, sorts the slots,
// and freezes them into a Dictionary. Duplicates are a build-time error,
// per spec.md §3.
func (b *Builder) Build() (*Dictionary, error) {
	if b.err != nil {
		return nil, b.err
	}
	slots := make([]slot, len(b.slots))
	copy(slots, b.slots)
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].index != slots[j].index {
			return slots[i].index < slots[j].index
		}
		return slots[i].subindex < slots[j].subindex
	})
	for i := 1; i < len(slots); i++ {
		if slots[i].index == slots[i-1].index && slots[i].subindex == slots[i-1].subindex {
			return nil, Error{ErrGeneralError}
		}
	}
	return &Dictionary{slots: slots}, nil
}

// Search locates (index,subindex) without materializing a borrow, via
// binary search on index followed by a linear walk over the (short) run
// of equal indices - O(log N + R) as specified in spec.md §4.2.
func (d *Dictionary) Search(index uint16, subindex uint8) (Position, error) {
	n := len(d.slots)
	start := sort.Search(n, func(i int) bool { return d.slots[i].index >= index })
	if start >= n || d.slots[start].index != index {
		return 0, Error{ErrObjectDoesNotExist}
	}
	for i := start; i < n && d.slots[i].index == index; i++ {
		if d.slots[i].subindex == subindex {
			return Position(i), nil
		}
	}
	return 0, Error{ErrSubindexDoesNotExist}
}

// Get dereferences a previously obtained Position.
func (d *Dictionary) Get(pos Position) DataLink {
	return d.slots[pos].link
}

// Flags returns the access flags of a previously obtained Position.
func (d *Dictionary) Flags(pos Position) Flags {
	return d.slots[pos].flags
}

// Info is the read-only companion returned alongside a slot by GetPlus,
// used by handlers (e.g. TPDO mapping-word writes) that must look up
// *other* entries while holding one.
type Info struct {
	d *Dictionary
}

// FlagsAt returns the flags of the slot at an arbitrary Position.
func (i Info) FlagsAt(pos Position) Flags { return i.d.slots[pos].flags }

// IndexAt returns the index of the slot at an arbitrary Position.
func (i Info) IndexAt(pos Position) uint16 { return i.d.slots[pos].index }

// SubindexAt returns the subindex of the slot at an arbitrary Position.
func (i Info) SubindexAt(pos Position) uint8 { return i.d.slots[pos].subindex }

// Search locates (index,subindex) from within a DataLink.Write call,
// mirroring Dictionary.Search for the cross-entry lookups a write handler
// (e.g. a TPDO mapping-word write validating the object it names) needs.
func (i Info) Search(index uint16, subindex uint8) (Position, error) {
	return i.d.Search(index, subindex)
}

// GetPlus dereferences pos and pairs it with a read-only Info view over
// the whole dictionary, per spec.md §4.2.
func (d *Dictionary) GetPlus(pos Position) (DataLink, Info) {
	return d.slots[pos].link, Info{d: d}
}

// Info returns a read-only view over the whole dictionary, for callers
// that need to hand a DataLink.Write an Info without also wanting a
// Position's DataLink (GetPlus covers the case where both are wanted at
// once).
func (d *Dictionary) Info() Info {
	return Info{d: d}
}

// Find locates (index,subindex) and returns its DataLink directly.
func (d *Dictionary) Find(index uint16, subindex uint8) (DataLink, error) {
	pos, err := d.Search(index, subindex)
	if err != nil {
		return nil, err
	}
	return d.Get(pos), nil
}

// Read is a convenience wrapper around Find + DataLink.Read.
func (d *Dictionary) Read(index uint16, subindex uint8) (ReadData, error) {
	link, err := d.Find(index, subindex)
	if err != nil {
		return ReadData{}, err
	}
	return link.Read(index, subindex)
}
