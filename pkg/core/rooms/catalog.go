package rooms

import (
	"github.com/jakechorley/caregiver-rota/pkg/core/errs"
)

// Catalog enumerates the configured rooms, numbered 1..count
type Catalog struct {
	count int
}

// New creates a Catalog with the given number of rooms
func New(count int) (*Catalog, error) {
	if count < 1 {
		return nil, errs.Configuration("rooms", "room count must be at least 1, got %d", count)
	}
	return &Catalog{count: count}, nil
}

// Count returns the number of configured rooms
func (c *Catalog) Count() int {
	return c.count
}

// All returns every room number in ascending order
func (c *Catalog) All() []int {
	all := make([]int, c.count)
	for i := range all {
		all[i] = i + 1
	}
	return all
}

// Contains reports whether room lies within the configured range
func (c *Catalog) Contains(room int) bool {
	return room >= 1 && room <= c.count
}

// Available returns all rooms not present in taken, ascending.
// Taken rooms outside the configured range are ignored.
func (c *Catalog) Available(taken []int) []int {
	takenSet := make(map[int]bool, len(taken))
	for _, room := range taken {
		takenSet[room] = true
	}

	available := make([]int, 0, c.count)
	for _, room := range c.All() {
		if !takenSet[room] {
			available = append(available, room)
		}
	}
	return available
}
