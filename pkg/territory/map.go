package territory

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Level is a territory's depth in the world hierarchy.
type Level int

const (
	Region Level = iota
	District
	Zone
	Outpost
)

var levelNames = map[Level]string{
	Region:   "region",
	District: "district",
	Zone:     "zone",
	Outpost:  "outpost",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a level name back to a Level. Returns -1 if unknown.
func ParseLevel(s string) Level {
	for l, name := range levelNames {
		if name == s {
			return l
		}
	}
	return Level(-1)
}

// MarshalJSON renders the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts a level name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed := ParseLevel(s)
	if parsed < 0 {
		return fmt.Errorf("unknown level %q", s)
	}
	*l = parsed
	return nil
}

// Influence value bounds. All stored influence is clamped into this range.
const (
	InfluenceMin = 0.0
	InfluenceMax = 100.0
)

// Territory is a node in the world hierarchy. Fields are fixed at
// authoring time; live influence is held separately.
type Territory struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Level              Level   `json:"level"`
	ParentID           int     `json:"parent_id,omitempty"` // 0 = no parent
	Links              []int   `json:"links,omitempty"`     // cross-links, must be symmetric
	StrategicValue     int     `json:"strategic_value"`     // 1..10
	ResourceMultiplier float64 `json:"resource_multiplier"`
	DecayRate          float64 `json:"decay_rate,omitempty"` // influence lost per sweep; 0 = world default
}

// WorldMap holds the validated territory graph: the hierarchy plus
// symmetric cross-links.
type WorldMap struct {
	territories map[int]*Territory
	children    map[int][]int
	ids         []int // sorted, for deterministic iteration
}

// NewWorldMap validates a territory list and builds the graph.
// Rejects duplicate IDs, dangling or same-level parents, parent chains
// that do not strictly ascend the hierarchy, asymmetric cross-links,
// self-links, and strategic values outside 1..10.
func NewWorldMap(list []Territory) (*WorldMap, error) {
	m := &WorldMap{
		territories: make(map[int]*Territory, len(list)),
		children:    make(map[int][]int),
	}

	for i := range list {
		t := list[i]
		if t.ID <= 0 {
			return nil, fmt.Errorf("territory %q: id must be positive, got %d", t.Name, t.ID)
		}
		if _, dup := m.territories[t.ID]; dup {
			return nil, fmt.Errorf("duplicate territory id %d", t.ID)
		}
		if t.StrategicValue < 1 || t.StrategicValue > 10 {
			return nil, fmt.Errorf("territory %d: strategic value %d out of range 1..10", t.ID, t.StrategicValue)
		}
		if t.Level < Region || t.Level > Outpost {
			return nil, fmt.Errorf("territory %d: invalid level %d", t.ID, t.Level)
		}
		c := t
		m.territories[t.ID] = &c
		m.ids = append(m.ids, t.ID)
	}
	sort.Ints(m.ids)

	for _, id := range m.ids {
		t := m.territories[id]
		if t.ParentID != 0 {
			parent, ok := m.territories[t.ParentID]
			if !ok {
				return nil, fmt.Errorf("territory %d: parent %d does not exist", t.ID, t.ParentID)
			}
			// Parent exactly one level up also rules out cycles: levels
			// strictly decrease along any parent chain.
			if parent.Level != t.Level-1 {
				return nil, fmt.Errorf("territory %d (%s): parent %d is %s, want %s",
					t.ID, t.Level, parent.ID, parent.Level, t.Level-1)
			}
			m.children[t.ParentID] = append(m.children[t.ParentID], t.ID)
		}
		for _, link := range t.Links {
			if link == t.ID {
				return nil, fmt.Errorf("territory %d links to itself", t.ID)
			}
			other, ok := m.territories[link]
			if !ok {
				return nil, fmt.Errorf("territory %d links to unknown territory %d", t.ID, link)
			}
			if !containsInt(other.Links, t.ID) {
				return nil, fmt.Errorf("asymmetric cross-link: %d -> %d has no reverse", t.ID, link)
			}
		}
	}

	for _, kids := range m.children {
		sort.Ints(kids)
	}
	return m, nil
}

// Territory returns the territory with the given ID, or nil.
func (m *WorldMap) Territory(id int) *Territory {
	return m.territories[id]
}

// IDs returns all territory IDs in ascending order.
func (m *WorldMap) IDs() []int {
	out := make([]int, len(m.ids))
	copy(out, m.ids)
	return out
}

// Len returns the number of territories.
func (m *WorldMap) Len() int {
	return len(m.ids)
}

// Children returns the immediate children of a territory, sorted by ID.
func (m *WorldMap) Children(id int) []int {
	kids := m.children[id]
	out := make([]int, len(kids))
	copy(out, kids)
	return out
}

// Neighborhood returns the cascade-connected set for a territory:
// its parent, its immediate children, and its cross-links, deduplicated
// and sorted by ID.
func (m *WorldMap) Neighborhood(id int) []int {
	t := m.territories[id]
	if t == nil {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	add := func(n int) {
		if n != 0 && n != id && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	add(t.ParentID)
	for _, c := range m.children[id] {
		add(c)
	}
	for _, l := range t.Links {
		add(l)
	}
	sort.Ints(out)
	return out
}

// Degree returns the size of a territory's neighborhood.
func (m *WorldMap) Degree(id int) int {
	return len(m.Neighborhood(id))
}

// RegionOf walks the parent chain up to the enclosing region.
// Returns nil for unknown IDs.
func (m *WorldMap) RegionOf(id int) *Territory {
	t := m.territories[id]
	for t != nil && t.Level != Region {
		t = m.territories[t.ParentID]
	}
	return t
}

// ByLevel returns all territory IDs at the given level, sorted.
func (m *WorldMap) ByLevel(level Level) []int {
	var out []int
	for _, id := range m.ids {
		if m.territories[id].Level == level {
			out = append(out, id)
		}
	}
	return out
}

// List returns all territories sorted by ID. The returned values are
// copies; mutating them does not affect the map.
func (m *WorldMap) List() []Territory {
	out := make([]Territory, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, *m.territories[id])
	}
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
