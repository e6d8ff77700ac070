package territory

import (
	"encoding/json"
	"fmt"
	"os"
)

// WorldFile is the on-disk authoring format for a campaign world.
type WorldFile struct {
	Territories []Territory `json:"territories"`
	Factions    []Faction   `json:"factions"`
}

// LoadWorldFile reads and validates a world definition from a JSON file.
func LoadWorldFile(path string) ([]Territory, []Faction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read world file: %w", err)
	}
	var wf WorldFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, nil, fmt.Errorf("parse world file: %w", err)
	}
	if _, err := NewWorldMap(wf.Territories); err != nil {
		return nil, nil, fmt.Errorf("world file %s: %w", path, err)
	}
	if len(wf.Factions) == 0 {
		return nil, nil, fmt.Errorf("world file %s: no factions defined", path)
	}
	return wf.Territories, wf.Factions, nil
}
