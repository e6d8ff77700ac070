package territory

// Profile is a faction's fixed behavioral tuning. All fields are in
// [0,1]. Profiles are read-only simulation parameters, shared freely
// across goroutines without synchronization.
type Profile struct {
	Aggression         float64 `json:"aggression"`
	RiskTolerance      float64 `json:"risk_tolerance"`
	ExpansionPriority  float64 `json:"expansion_priority"`
	ResourceFocus      float64 `json:"resource_focus"`
	DiplomaticTendency float64 `json:"diplomatic_tendency"`
}

// Faction is a playable power competing for territorial control.
// Defined at world-authoring time; static for the session.
type Faction struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Profile Profile `json:"profile"`
}
