package models

// Location is a recurring place scenes are staged in.
type Location struct {
	// ID is the location slug.
	ID LocID `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Description sets the place in prose.
	Description string `json:"description"`
	// SensoryDetails lists concrete sights, sounds, and smells.
	SensoryDetails []string `json:"sensory_details"`
	// BlockingAffordances lists physical features scenes can stage action
	// around (doorways, counters, sightlines).
	BlockingAffordances []string `json:"blocking_affordances"`
	// DiffusionGuide is a fixed prompt fragment for rendering the place.
	DiffusionGuide string `json:"diffusion_guide"`
}

// LocationsBundle is the locations stage output: five or more locations.
type LocationsBundle struct {
	Locations []Location `json:"locations"`
}

// IDs returns every location id in order.
func (b *LocationsBundle) IDs() []LocID {
	ids := make([]LocID, len(b.Locations))
	for i, l := range b.Locations {
		ids[i] = l.ID
	}
	return ids
}
