package models

// Faction is an organized group with a stance on the universe's axes.
type Faction struct {
	// ID is the faction slug.
	ID FactionID `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Ideology summarizes what the faction wants and why.
	Ideology string `json:"ideology"`
	// PositionOnAxes maps axis ids to a stance in [-1, 1].
	PositionOnAxes map[AxisID]float64 `json:"position_on_axes"`
	// Resources lists what the faction controls.
	Resources []string `json:"resources"`
	// KeyFigures is back-filled with affiliated character ids once the
	// characters stage completes.
	KeyFigures []CharID `json:"key_figures"`
}

// FactionsBundle is the factions stage output: two or more factions.
type FactionsBundle struct {
	Factions []Faction `json:"factions"`
}

// IDs returns every faction id in order.
func (b *FactionsBundle) IDs() []FactionID {
	ids := make([]FactionID, len(b.Factions))
	for i, f := range b.Factions {
		ids[i] = f.ID
	}
	return ids
}

// ByID returns the faction with the given id, or nil.
func (b *FactionsBundle) ByID(id FactionID) *Faction {
	for i := range b.Factions {
		if b.Factions[i].ID == id {
			return &b.Factions[i]
		}
	}
	return nil
}
