package territory

// FixtureWorld returns the authored demo world used by the headless
// simulator and the test suite: two regions, four districts, five
// zones, and three outposts, with strategic corridors crossing the
// region boundary at the district, zone, and outpost levels.
func FixtureWorld() []Territory {
	return []Territory{
		{ID: 1, Name: "Northreach", Level: Region, StrategicValue: 9, ResourceMultiplier: 1.5},
		{ID: 2, Name: "Sunder Coast", Level: Region, StrategicValue: 8, ResourceMultiplier: 1.4},

		{ID: 11, Name: "Ashfall District", Level: District, ParentID: 1, StrategicValue: 7, ResourceMultiplier: 1.2, Links: []int{21}},
		{ID: 12, Name: "Greywood District", Level: District, ParentID: 1, StrategicValue: 5, ResourceMultiplier: 1.1},
		{ID: 21, Name: "Harbor District", Level: District, ParentID: 2, StrategicValue: 8, ResourceMultiplier: 1.3, Links: []int{11}},
		{ID: 22, Name: "Dune District", Level: District, ParentID: 2, StrategicValue: 4, ResourceMultiplier: 0.9},

		{ID: 111, Name: "Cinder Gate", Level: Zone, ParentID: 11, StrategicValue: 6, ResourceMultiplier: 1.1, Links: []int{121}},
		{ID: 112, Name: "Slag Quarter", Level: Zone, ParentID: 11, StrategicValue: 4, ResourceMultiplier: 1.0},
		{ID: 121, Name: "Old Mill Row", Level: Zone, ParentID: 12, StrategicValue: 5, ResourceMultiplier: 1.0, Links: []int{111}},
		{ID: 211, Name: "Wharfside", Level: Zone, ParentID: 21, StrategicValue: 7, ResourceMultiplier: 1.2, Links: []int{221}},
		{ID: 221, Name: "Saltflat Verge", Level: Zone, ParentID: 22, StrategicValue: 3, ResourceMultiplier: 0.8, Links: []int{211}},

		{ID: 1111, Name: "Gatehouse Post", Level: Outpost, ParentID: 111, StrategicValue: 2, ResourceMultiplier: 0.9, Links: []int{2111}},
		{ID: 1211, Name: "Mill Watch", Level: Outpost, ParentID: 121, StrategicValue: 1, ResourceMultiplier: 0.8},
		{ID: 2111, Name: "Quay Watch", Level: Outpost, ParentID: 211, StrategicValue: 3, ResourceMultiplier: 1.0, Links: []int{1111}},
	}
}

// FixtureFactions returns the three demo factions. Profiles are spread
// so each favors a different strategic posture.
func FixtureFactions() []Faction {
	return []Faction{
		{ID: "crimson", Name: "Crimson Pact", Profile: Profile{
			Aggression: 0.9, RiskTolerance: 0.7, ExpansionPriority: 0.6, ResourceFocus: 0.3, DiplomaticTendency: 0.1,
		}},
		{ID: "azure", Name: "Azure Syndicate", Profile: Profile{
			Aggression: 0.3, RiskTolerance: 0.4, ExpansionPriority: 0.5, ResourceFocus: 0.9, DiplomaticTendency: 0.6,
		}},
		{ID: "verdant", Name: "Verdant Compact", Profile: Profile{
			Aggression: 0.5, RiskTolerance: 0.2, ExpansionPriority: 0.9, ResourceFocus: 0.5, DiplomaticTendency: 0.4,
		}},
	}
}
