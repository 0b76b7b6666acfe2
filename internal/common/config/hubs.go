// internal/common/config/hubs.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownHub is returned when a hub reference matches no directory entry.
var ErrUnknownHub = errors.New("unknown hub")

// Hub is a tenant-group: one brand deployment sharing the database.
type Hub struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// HubDirectory is the single id<->name table for hubs. Every other package
// resolves hub references through it.
type HubDirectory struct {
	byID   map[int]Hub
	byName map[string]Hub
	order  []int
}

// NewHubDirectory builds the directory and rejects duplicate ids or names.
func NewHubDirectory(entries []HubConfig) (*HubDirectory, error) {
	if len(entries) == 0 {
		return nil, errors.New("at least one hub is required")
	}

	d := &HubDirectory{
		byID:   make(map[int]Hub, len(entries)),
		byName: make(map[string]Hub, len(entries)),
	}

	for _, e := range entries {
		name := normalizeHubName(e.Name)
		if e.ID <= 0 {
			return nil, fmt.Errorf("hub %q: id must be positive", e.Name)
		}
		if name == "" {
			return nil, fmt.Errorf("hub %d: name is required", e.ID)
		}
		if _, dup := d.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate hub id %d", e.ID)
		}
		if _, dup := d.byName[name]; dup {
			return nil, fmt.Errorf("duplicate hub name %q", e.Name)
		}

		display := e.DisplayName
		if display == "" {
			display = e.Name
		}
		hub := Hub{ID: e.ID, Name: name, DisplayName: display}
		d.byID[e.ID] = hub
		d.byName[name] = hub
		d.order = append(d.order, e.ID)
	}

	sort.Ints(d.order)
	return d, nil
}

// MustHubDirectory panics on invalid input. Intended for tests and fixed tables.
func MustHubDirectory(entries []HubConfig) *HubDirectory {
	d, err := NewHubDirectory(entries)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *HubDirectory) ByID(id int) (Hub, bool) {
	h, ok := d.byID[id]
	return h, ok
}

func (d *HubDirectory) ByName(name string) (Hub, bool) {
	h, ok := d.byName[normalizeHubName(name)]
	return h, ok
}

// Name returns the hub name for id, or "" when the id is unknown.
func (d *HubDirectory) Name(id int) string {
	return d.byID[id].Name
}

// ID returns the hub id for name, or 0 when the name is unknown.
func (d *HubDirectory) ID(name string) int {
	return d.byName[normalizeHubName(name)].ID
}

func (d *HubDirectory) Contains(id int) bool {
	_, ok := d.byID[id]
	return ok
}

// Resolve accepts either a numeric id ("2") or a name ("Westside") and
// returns the matching hub.
func (d *HubDirectory) Resolve(ref string) (Hub, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Hub{}, fmt.Errorf("%w: empty reference", ErrUnknownHub)
	}

	if id, err := strconv.Atoi(ref); err == nil {
		if h, ok := d.byID[id]; ok {
			return h, nil
		}
		return Hub{}, fmt.Errorf("%w: id %d", ErrUnknownHub, id)
	}

	if h, ok := d.ByName(ref); ok {
		return h, nil
	}
	return Hub{}, fmt.Errorf("%w: %q", ErrUnknownHub, ref)
}

// IDs returns the known hub ids in ascending order.
func (d *HubDirectory) IDs() []int {
	out := make([]int, len(d.order))
	copy(out, d.order)
	return out
}

// Hubs returns the directory entries ordered by id.
func (d *HubDirectory) Hubs() []Hub {
	out := make([]Hub, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

func normalizeHubName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
