// Package engine applies influence-changing actions to the territory
// store, resolves control flips, and propagates cascade effects.
package engine

import (
	"errors"
	"math"
	"time"

	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/store"
	"github.com/feralgames/frontline/internal/tuning"
)

var (
	ErrBadDelta = errors.New("delta is not a finite number")
)

// EventSink receives every applied influence change as an immutable
// audit record. Implementations must not block the caller for long;
// the production sink hands off to an async writer.
type EventSink interface {
	Append(ev model.TerritorialEvent)
}

// Notifier receives higher-level notifications for fan-out to
// observers and downstream collaborators.
type Notifier interface {
	Notify(n model.Notification)
}

// NoopNotifier discards notifications. Useful in tests and tools.
type NoopNotifier struct{}

func (NoopNotifier) Notify(model.Notification) {}

// ControlChangeResult reports a change of controlling faction.
type ControlChangeResult struct {
	TerritoryID     int    `json:"territory_id"`
	OldControllerID string `json:"old_controller_id,omitempty"`
	NewControllerID string `json:"new_controller_id,omitempty"`
	WasContested    bool   `json:"was_contested"`
	IsContested     bool   `json:"is_contested"`
	Seq             int64  `json:"seq"`
	Cause           string `json:"cause"`
}

// Engine is the influence update engine. All mutation of live
// territorial state funnels through ApplyAction or the decay sweep.
type Engine struct {
	store    *store.Store
	tun      *tuning.Tuning
	sink     EventSink
	notifier Notifier
	cascade  *cascadeRunner
	now      func() time.Time
}

// New wires an engine over the store. seed fixes the cascade RNG for
// reproducible propagation; pass time-derived seeds in production.
func New(st *store.Store, tun *tuning.Tuning, sink EventSink, notifier Notifier, seed int64) *Engine {
	e := &Engine{
		store:    st,
		tun:      tun,
		sink:     sink,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
	e.cascade = newCascadeRunner(e, seed)
	return e
}

// SetClock overrides the engine clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Store returns the underlying territory store.
func (e *Engine) Store() *store.Store { return e.store }

// Tuning returns the active tuning parameters.
func (e *Engine) Tuning() *tuning.Tuning { return e.tun }

// activeCause reports whether a cause represents a deliberate action,
// as opposed to passive decay or a secondary cascade effect.
func activeCause(cause string) bool {
	switch cause {
	case model.ActionCapture, model.ActionDefend, model.ActionSabotage, model.ActionReinforce, model.CauseWithdraw:
		return true
	}
	return false
}

// ApplyAction applies a faction-modified delta to the given faction's
// influence in a territory. The delta is clamped, never rejected for
// range. Returns a ControlChangeResult when the controlling faction
// changed, nil otherwise. Active flips trigger cascade propagation
// synchronously, within the configured latency budget.
func (e *Engine) ApplyAction(territoryID int, factionID string, rawDelta float64, cause, actorID string) (*ControlChangeResult, error) {
	if math.IsNaN(rawDelta) || math.IsInf(rawDelta, 0) {
		return nil, ErrBadDelta
	}

	now := e.now()
	refresh := rawDelta > 0 && activeCause(cause)
	ch, err := e.store.ApplyDelta(territoryID, factionID, rawDelta, now, refresh)
	if err != nil {
		return nil, err
	}

	e.sink.Append(model.TerritorialEvent{
		TerritoryID: territoryID,
		Seq:         ch.Seq,
		FactionID:   factionID,
		ActorID:     actorID,
		Delta:       ch.AppliedDelta,
		Value:       ch.Value,
		Cause:       cause,
		Priority:    model.PriorityHigh,
		CreatedAt:   now,
	})

	e.notifyTransitions(ch, cause, model.PriorityHigh, 0)

	if !ch.Flipped() {
		return nil, nil
	}

	res := &ControlChangeResult{
		TerritoryID:     territoryID,
		OldControllerID: ch.OldController,
		NewControllerID: ch.NewController,
		WasContested:    ch.WasContested,
		IsContested:     ch.IsContested,
		Seq:             ch.Seq,
		Cause:           cause,
	}

	if activeCause(cause) {
		e.cascade.propagate(*res)
	}
	return res, nil
}

// notifyTransitions emits ControlChanged and Contested notifications
// for a store change. wave > 0 marks cascade-originated changes.
func (e *Engine) notifyTransitions(ch store.Change, cause, priority string, wave int) {
	t := e.store.GetTerritory(ch.TerritoryID)
	if t == nil {
		return
	}

	if ch.Flipped() {
		e.notifier.Notify(model.Notification{
			Kind:                  model.NotifyControlChanged,
			TerritoryID:           ch.TerritoryID,
			TerritoryName:         t.Name,
			PreviousControllerID:  ch.OldController,
			NewControllerID:       ch.NewController,
			StrategicValue:        t.StrategicValue,
			Contested:             ch.IsContested,
			ConnectedTerritoryIDs: e.store.GetConnected(ch.TerritoryID),
			Seq:                   ch.Seq,
			Cause:                 cause,
			Priority:              priority,
			Wave:                  wave,
		})
	}

	// Passive loss must not raise the same alarms as an assault, so
	// decay-caused contest transitions stay silent.
	if !ch.WasContested && ch.IsContested && cause != model.CauseDecay {
		e.notifier.Notify(model.Notification{
			Kind:            model.NotifyContested,
			TerritoryID:     ch.TerritoryID,
			TerritoryName:   t.Name,
			NewControllerID: ch.NewController,
			StrategicValue:  t.StrategicValue,
			Contested:       true,
			Seq:             ch.Seq,
			Cause:           cause,
			Priority:        priority,
			Wave:            wave,
		})
	}
}
