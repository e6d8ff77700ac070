package model

import "time"

// Action kinds accepted at the submission boundary.
const (
	ActionCapture   = "capture"
	ActionDefend    = "defend"
	ActionSabotage  = "sabotage"
	ActionReinforce = "reinforce"
)

// ValidActionKind reports whether a submitted kind is accepted.
func ValidActionKind(kind string) bool {
	switch kind {
	case ActionCapture, ActionDefend, ActionSabotage, ActionReinforce:
		return true
	}
	return false
}

// Causes recorded on territorial events. The boundary action kinds are
// reused as causes; decay, cascade, and admin force-sets add their own.
const (
	CauseDecay    = "decay"
	CauseCascade  = "cascade"
	CauseAdmin    = "admin"
	CauseWithdraw = "withdraw" // AI retreat
)

// Event priorities. Decay-caused control flips are recorded low
// priority and never start a cascade.
const (
	PriorityHigh = "high"
	PriorityLow  = "low"
)

// TerritorialEvent is the immutable audit record of one applied
// influence change. Never mutated after creation; the event log is
// append-only and replayable.
type TerritorialEvent struct {
	ID          int64     `json:"id,omitempty"`
	TerritoryID int       `json:"territory_id"`
	Seq         int64     `json:"seq"` // per-territory, monotonically increasing
	FactionID   string    `json:"faction_id"`
	ActorID     string    `json:"actor_id,omitempty"` // player session or faction id
	Delta       float64   `json:"delta"`              // applied (post-clamp) delta
	Value       float64   `json:"value"`              // influence after applying
	Cause       string    `json:"cause"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notification kinds on the observer feed.
const (
	NotifyControlChanged = "control_changed"
	NotifyContested      = "contested"
	NotifyDominance      = "dominance"
	NotifyStrategicLoss  = "strategic_loss"
)

// Notification is a higher-level event published to observers and
// downstream collaborators. Delivery is at-least-once; Seq is the
// per-territory sequence observers use to detect gaps.
type Notification struct {
	Kind                  string  `json:"kind"`
	TerritoryID           int     `json:"territory_id"`
	TerritoryName         string  `json:"territory_name"`
	PreviousControllerID  string  `json:"previous_controller_id,omitempty"`
	NewControllerID       string  `json:"new_controller_id,omitempty"`
	StrategicValue        int     `json:"strategic_value"`
	Contested             bool    `json:"contested"`
	ConnectedTerritoryIDs []int   `json:"connected_territory_ids,omitempty"`
	Seq                   int64   `json:"seq"`
	Cause                 string  `json:"cause,omitempty"`
	Priority              string  `json:"priority,omitempty"`
	Wave                  int     `json:"wave,omitempty"` // cascade wave depth, 0 = direct
	RegionID              int     `json:"region_id,omitempty"`
	FactionID             string  `json:"faction_id,omitempty"` // dominance/loss subject
	Magnitude             float64 `json:"magnitude,omitempty"`
}

// ActionSubmission is an inbound action from a player session or a
// faction decision loop.
type ActionSubmission struct {
	TerritoryID int     `json:"territory_id"`
	FactionID   string  `json:"faction_id"`
	Kind        string  `json:"kind"`
	Magnitude   float64 `json:"magnitude"`
	ActorID     string  `json:"actor_id,omitempty"`
	Timestamp   time.Time
}

// Session represents an authenticated player session.
type Session struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InfluenceRow is the persisted form of one (territory, faction)
// influence record.
type InfluenceRow struct {
	TerritoryID int       `json:"territory_id"`
	FactionID   string    `json:"faction_id"`
	Value       float64   `json:"value"`
	LastUpdated time.Time `json:"last_updated"`
}
