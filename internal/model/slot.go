package model

import (
	"fmt"
	"sort"
)

// Slot is one bookable time range of a day.
type Slot struct {
	ID    int    `json:"slot" yaml:"slot"`
	Label string `json:"label" yaml:"label"`
}

// SlotAvailability is the per-slot answer to an availability query.
type SlotAvailability struct {
	Slot      int    `json:"slot"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// Catalog is the immutable, ordered set of daily slots.  The zero value is
// an empty catalog; use NewCatalog or DefaultCatalog.
type Catalog struct {
	slots  []Slot
	labels map[int]string
}

// DefaultSlots are the three daily slots used when configuration provides
// no labels.
var DefaultSlots = []Slot{
	{ID: 1, Label: "9:00 AM - 12:00 PM"},
	{ID: 2, Label: "12:00 PM - 3:00 PM"},
	{ID: 3, Label: "3:00 PM - 6:00 PM"},
}

// NewCatalog copies slots into a catalog ordered by ascending id.  Later
// duplicates of an id replace earlier ones.
func NewCatalog(slots []Slot) Catalog {
	labels := make(map[int]string, len(slots))
	for _, s := range slots {
		labels[s.ID] = s.Label
	}
	ordered := make([]Slot, 0, len(labels))
	for id, label := range labels {
		ordered = append(ordered, Slot{ID: id, Label: label})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return Catalog{slots: ordered, labels: labels}
}

// DefaultCatalog returns a catalog built from DefaultSlots.
func DefaultCatalog() Catalog { return NewCatalog(DefaultSlots) }

// Slots returns a copy of the catalog entries in ascending id order.
func (c Catalog) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Len returns the number of slots.
func (c Catalog) Len() int { return len(c.slots) }

// Contains reports whether id is a known slot.
func (c Catalog) Contains(id int) bool {
	_, ok := c.labels[id]
	return ok
}

// Label returns the human-readable range for id, or "Slot {id}" when the
// id is not in the catalog.
func (c Catalog) Label(id int) string {
	if l, ok := c.labels[id]; ok {
		return l
	}
	return fmt.Sprintf("Slot %d", id)
}
