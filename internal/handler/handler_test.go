package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/feralgames/frontline/internal/engine"
	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/service"
	"github.com/feralgames/frontline/internal/store"
	"github.com/feralgames/frontline/internal/tuning"
	"github.com/feralgames/frontline/pkg/territory"
)

type mockEventRepo struct {
	mu     sync.Mutex
	events []model.TerritorialEvent
	nextID int64
}

func (m *mockEventRepo) Append(_ context.Context, ev model.TerritorialEvent) (model.TerritorialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ev.ID = m.nextID
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *mockEventRepo) ListByTerritorySince(_ context.Context, territoryID int, sinceSeq int64, limit int) ([]model.TerritorialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TerritorialEvent
	for _, ev := range m.events {
		if ev.TerritoryID == territoryID && ev.Seq > sinceSeq {
			out = append(out, ev)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListAll(_ context.Context) ([]model.TerritorialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TerritorialEvent, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *mockEventRepo) PruneBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// repoSink journals engine events straight into the mock repo.
type repoSink struct {
	repo *mockEventRepo
}

func (s repoSink) Append(ev model.TerritorialEvent) {
	s.repo.Append(context.Background(), ev)
}

type testEnv struct {
	store   *store.Store
	events  *mockEventRepo
	actions *ActionHandler
	status  *StatusHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	world, err := territory.NewWorldMap(territory.FixtureWorld())
	if err != nil {
		t.Fatal(err)
	}
	st := store.New(world, territory.FixtureFactions(), territory.DefaultThresholds)
	events := &mockEventRepo{}
	eng := engine.New(st, tuning.Default(), repoSink{repo: events}, engine.NoopNotifier{}, 1)
	actionSvc := service.NewActionService(eng)

	return &testEnv{
		store:   st,
		events:  events,
		actions: NewActionHandler(actionSvc),
		status:  NewStatusHandler(st, events),
	}
}

func TestSubmitAction_Accepted(t *testing.T) {
	env := newTestEnv(t)

	body := `{"territory_id": 11, "faction_id": "crimson", "kind": "capture", "magnitude": 10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.actions.Submit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if v, _ := env.store.GetInfluence(11, "crimson"); v != 10 {
		t.Errorf("influence = %.1f, want 10", v)
	}
}

func TestSubmitAction_ValidationStatuses(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad kind", `{"territory_id": 11, "faction_id": "crimson", "kind": "nuke", "magnitude": 5}`, http.StatusUnprocessableEntity},
		{"bad magnitude", `{"territory_id": 11, "faction_id": "crimson", "kind": "capture", "magnitude": -1}`, http.StatusUnprocessableEntity},
		{"unknown territory", `{"territory_id": 999, "faction_id": "crimson", "kind": "capture", "magnitude": 5}`, http.StatusNotFound},
		{"unknown faction", `{"territory_id": 11, "faction_id": "ghost", "kind": "capture", "magnitude": 5}`, http.StatusNotFound},
		{"sabotage empty", `{"territory_id": 11, "faction_id": "crimson", "kind": "sabotage", "magnitude": 5}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/actions", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			env.actions.Submit(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestSubmitAction_ReportsControlChange(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetInfluence(1111, "crimson", 55)

	body := `{"territory_id": 1111, "faction_id": "crimson", "kind": "capture", "magnitude": 10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.actions.Submit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Accepted      bool                        `json:"accepted"`
		ControlChange *engine.ControlChangeResult `json:"control_change"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ControlChange == nil || resp.ControlChange.NewControllerID != "crimson" {
		t.Errorf("expected control change to crimson, got %+v", resp.ControlChange)
	}
}

func TestWorldEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetInfluence(11, "azure", 70)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/world", nil)
	w := httptest.NewRecorder()
	env.status.World(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Territories []struct {
			ID         int    `json:"id"`
			Controller string `json:"controller"`
		} `json:"territories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Territories) != len(territory.FixtureWorld()) {
		t.Errorf("territories = %d, want %d", len(resp.Territories), len(territory.FixtureWorld()))
	}
	found := false
	for _, tv := range resp.Territories {
		if tv.ID == 11 && tv.Controller == "azure" {
			found = true
		}
	}
	if !found {
		t.Error("controller of 11 not reported as azure")
	}
}

func TestTerritoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetInfluence(11, "crimson", 45)
	env.store.SetInfluence(11, "azure", 42)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/territories/11", nil)
	req.SetPathValue("id", "11")
	w := httptest.NewRecorder()
	env.status.Territory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Contested bool               `json:"contested"`
		Influence map[string]float64 `json:"influence"`
		Connected []int              `json:"connected"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Contested {
		t.Error("two factions above contest threshold should report contested")
	}
	if resp.Influence["crimson"] != 45 {
		t.Errorf("crimson influence = %.1f, want 45", resp.Influence["crimson"])
	}
	if len(resp.Connected) == 0 {
		t.Error("connected territories missing")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/territories/999", nil)
	req.SetPathValue("id", "999")
	w = httptest.NewRecorder()
	env.status.Territory(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown territory status = %d, want 404", w.Code)
	}
}

func TestTerritoryEventsSinceSeq(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		body := `{"territory_id": 11, "faction_id": "crimson", "kind": "defend", "magnitude": 5}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/actions", strings.NewReader(body))
		env.actions.Submit(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/territories/11/events?since=1", nil)
	req.SetPathValue("id", "11")
	w := httptest.NewRecorder()
	env.status.TerritoryEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Events []model.TerritorialEvent `json:"events"`
		Seq    int64                    `json:"seq"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 2 {
		t.Errorf("events since seq 1 = %d, want 2", len(resp.Events))
	}
	for _, ev := range resp.Events {
		if ev.Seq <= 1 {
			t.Errorf("event with seq %d leaked past the since filter", ev.Seq)
		}
	}
	if resp.Seq != 3 {
		t.Errorf("current seq = %d, want 3", resp.Seq)
	}
}

func TestFactionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetInfluence(11, "verdant", 80)
	env.store.SetInfluence(21, "verdant", 65)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/factions", nil)
	w := httptest.NewRecorder()
	env.status.Factions(w, req)

	var resp struct {
		Factions []struct {
			ID       string `json:"id"`
			Holdings []int  `json:"holdings"`
		} `json:"factions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Factions) != 3 {
		t.Fatalf("factions = %d, want 3", len(resp.Factions))
	}
	for _, f := range resp.Factions {
		if f.ID == "verdant" {
			if len(f.Holdings) != 2 {
				t.Errorf("verdant holdings = %v, want [11 21]", f.Holdings)
			}
		}
	}
}
