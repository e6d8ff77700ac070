package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/feralgames/frontline/internal/ai"
	"github.com/feralgames/frontline/internal/engine"
	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/store"
)

var (
	ErrInvalidKind      = errors.New("invalid action kind")
	ErrInvalidMagnitude = errors.New("magnitude must be positive and within the limit")
	ErrNoLeader         = errors.New("territory has no leading faction to sabotage")
)

// ActionService is the single submission boundary for influence
// actions. Player submissions and faction decision loops both enter
// here; both end up in the same engine pipeline.
type ActionService struct {
	eng *engine.Engine
}

// NewActionService creates an ActionService over the engine.
func NewActionService(eng *engine.Engine) *ActionService {
	return &ActionService{eng: eng}
}

// Submit validates and applies one action submission. The magnitude is
// a positive effort figure; the action kind decides sign and target:
// capture, defend, and reinforce raise the acting faction's influence,
// sabotage lowers the current leader's.
func (s *ActionService) Submit(ctx context.Context, sub model.ActionSubmission) (*engine.ControlChangeResult, error) {
	if !model.ValidActionKind(sub.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, sub.Kind)
	}
	max := s.eng.Tuning().Action.MaxMagnitude
	if sub.Magnitude <= 0 || sub.Magnitude > max {
		return nil, fmt.Errorf("%w: got %.2f, limit %.2f", ErrInvalidMagnitude, sub.Magnitude, max)
	}
	st := s.eng.Store()
	if _, ok := st.Faction(sub.FactionID); !ok {
		return nil, store.ErrUnknownFaction
	}
	if st.GetTerritory(sub.TerritoryID) == nil {
		return nil, store.ErrUnknownTerritory
	}

	targetFaction := sub.FactionID
	delta := sub.Magnitude
	if sub.Kind == model.ActionSabotage {
		// Sabotage erodes whoever currently leads the territory.
		leader, ok, err := st.GetControllingFaction(sub.TerritoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			leader, ok = leaderOf(st, sub.TerritoryID)
			if !ok {
				return nil, ErrNoLeader
			}
		}
		targetFaction = leader
		delta = -sub.Magnitude
	}

	return s.eng.ApplyAction(sub.TerritoryID, targetFaction, delta, sub.Kind, sub.ActorID)
}

// SubmitStrategic implements the faction decision loop submitter. The
// strategic posture maps onto a boundary action: expansion and attack
// both press influence into the target, defensive postures shore it
// up, fortify reinforces, and retreat withdraws the faction's own
// standing.
func (s *ActionService) SubmitStrategic(ctx context.Context, factionID string, d ai.Decision) error {
	if d.Kind == ai.Retreat {
		_, err := s.eng.ApplyAction(d.TerritoryID, factionID, -d.Magnitude, model.CauseWithdraw, factionID)
		return err
	}

	kind := model.ActionDefend
	switch d.Kind {
	case ai.Expand, ai.Attack:
		kind = model.ActionCapture
	case ai.Fortify:
		kind = model.ActionReinforce
	case ai.Defend, ai.Patrol, ai.Negotiate:
		kind = model.ActionDefend
	}

	_, err := s.Submit(ctx, model.ActionSubmission{
		TerritoryID: d.TerritoryID,
		FactionID:   factionID,
		Kind:        kind,
		Magnitude:   d.Magnitude,
		ActorID:     factionID,
	})
	return err
}

// leaderOf finds the faction with the highest influence even below the
// control threshold. ok=false when the territory is empty.
func leaderOf(st *store.Store, territoryID int) (string, bool) {
	state, err := st.State(territoryID)
	if err != nil {
		return "", false
	}
	leader, value := state.Leader()
	return leader, leader != "" && value > 0
}
