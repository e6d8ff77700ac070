package territory

import "testing"

func state(vals map[string]float64) InfluenceState {
	return InfluenceState{TerritoryID: 1, Influence: vals, Thresholds: DefaultThresholds}
}

func TestController_RequiresThreshold(t *testing.T) {
	s := state(map[string]float64{"crimson": 55, "azure": 45})
	if id, ok := s.Controller(); ok {
		t.Errorf("no faction reaches 60, but %q reported as controller", id)
	}

	s = state(map[string]float64{"crimson": 60})
	id, ok := s.Controller()
	if !ok || id != "crimson" {
		t.Errorf("expected crimson to control at exactly 60, got %q ok=%v", id, ok)
	}
}

func TestController_TieBreaksByFactionID(t *testing.T) {
	s := state(map[string]float64{"zeta": 70, "alpha": 70})
	id, ok := s.Controller()
	if !ok || id != "alpha" {
		t.Errorf("tie should resolve to smallest faction id, got %q ok=%v", id, ok)
	}
}

func TestContested(t *testing.T) {
	cases := []struct {
		name string
		vals map[string]float64
		want bool
	}{
		{"both above contest", map[string]float64{"a": 55, "b": 45}, true},
		{"one above contest", map[string]float64{"a": 55, "b": 20}, false},
		{"exactly at contest", map[string]float64{"a": 40, "b": 40}, true},
		{"empty", map[string]float64{}, false},
	}
	for _, c := range cases {
		if got := state(c.vals).Contested(); got != c.want {
			t.Errorf("%s: contested=%v, want %v", c.name, got, c.want)
		}
	}
}

func TestLeader_EmptyState(t *testing.T) {
	id, v := state(nil).Leader()
	if id != "" || v != 0 {
		t.Errorf("empty state should have no leader, got %q %v", id, v)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-5) != 0 {
		t.Error("negative values clamp to 0")
	}
	if Clamp(120) != 100 {
		t.Error("values over 100 clamp to 100")
	}
	if Clamp(42.5) != 42.5 {
		t.Error("in-range values pass through")
	}
}

func TestClone_Independent(t *testing.T) {
	s := state(map[string]float64{"a": 50})
	c := s.Clone()
	c.Influence["a"] = 99
	if s.Influence["a"] != 50 {
		t.Error("mutating clone affected original")
	}
}
