package territory

import (
	"strings"
	"testing"
)

func TestNewWorldMap_Fixture(t *testing.T) {
	m, err := NewWorldMap(FixtureWorld())
	if err != nil {
		t.Fatalf("fixture world should validate: %v", err)
	}
	if m.Len() != len(FixtureWorld()) {
		t.Errorf("expected %d territories, got %d", len(FixtureWorld()), m.Len())
	}
	if got := m.Territory(11).Name; got != "Ashfall District" {
		t.Errorf("territory 11: got %q", got)
	}
}

func TestNewWorldMap_RejectsDuplicateID(t *testing.T) {
	_, err := NewWorldMap([]Territory{
		{ID: 1, Name: "A", Level: Region, StrategicValue: 5},
		{ID: 1, Name: "B", Level: Region, StrategicValue: 5},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate id error, got %v", err)
	}
}

func TestNewWorldMap_RejectsDanglingParent(t *testing.T) {
	_, err := NewWorldMap([]Territory{
		{ID: 1, Name: "A", Level: District, ParentID: 99, StrategicValue: 5},
	})
	if err == nil {
		t.Fatal("expected error for missing parent")
	}
}

func TestNewWorldMap_RejectsWrongParentLevel(t *testing.T) {
	// A district parented to another district violates the one-level rule,
	// which also forbids any cycle in the parent chain.
	_, err := NewWorldMap([]Territory{
		{ID: 1, Name: "A", Level: District, ParentID: 2, StrategicValue: 5},
		{ID: 2, Name: "B", Level: District, ParentID: 1, StrategicValue: 5},
	})
	if err == nil {
		t.Fatal("expected error for same-level parent cycle")
	}
}

func TestNewWorldMap_RejectsAsymmetricLink(t *testing.T) {
	_, err := NewWorldMap([]Territory{
		{ID: 1, Name: "A", Level: Region, StrategicValue: 5, Links: []int{2}},
		{ID: 2, Name: "B", Level: Region, StrategicValue: 5},
	})
	if err == nil || !strings.Contains(err.Error(), "asymmetric") {
		t.Errorf("expected asymmetric link error, got %v", err)
	}
}

func TestNewWorldMap_RejectsSelfLink(t *testing.T) {
	_, err := NewWorldMap([]Territory{
		{ID: 1, Name: "A", Level: Region, StrategicValue: 5, Links: []int{1}},
	})
	if err == nil {
		t.Fatal("expected error for self-link")
	}
}

func TestNewWorldMap_RejectsStrategicValueOutOfRange(t *testing.T) {
	for _, sv := range []int{0, 11} {
		_, err := NewWorldMap([]Territory{
			{ID: 1, Name: "A", Level: Region, StrategicValue: sv},
		})
		if err == nil {
			t.Errorf("strategic value %d should be rejected", sv)
		}
	}
}

func TestNeighborhood(t *testing.T) {
	m, err := NewWorldMap(FixtureWorld())
	if err != nil {
		t.Fatal(err)
	}

	// District 11: parent region 1, children 111+112, cross-link 21.
	got := m.Neighborhood(11)
	want := []int{1, 21, 111, 112}
	if len(got) != len(want) {
		t.Fatalf("neighborhood of 11: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighborhood of 11: got %v, want %v", got, want)
		}
	}

	if n := m.Neighborhood(9999); n != nil {
		t.Errorf("unknown territory should have nil neighborhood, got %v", n)
	}
}

func TestRegionOf(t *testing.T) {
	m, _ := NewWorldMap(FixtureWorld())

	if r := m.RegionOf(2111); r == nil || r.ID != 2 {
		t.Errorf("region of outpost 2111 should be 2, got %v", r)
	}
	if r := m.RegionOf(1); r == nil || r.ID != 1 {
		t.Errorf("region of a region is itself, got %v", r)
	}
}

func TestChildren_Sorted(t *testing.T) {
	m, _ := NewWorldMap(FixtureWorld())
	kids := m.Children(1)
	if len(kids) != 2 || kids[0] != 11 || kids[1] != 12 {
		t.Errorf("children of region 1: got %v", kids)
	}
}
