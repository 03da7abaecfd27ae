package models

// ValueSpectrum names one dramatic axis the universe argues over and what
// the two poles mean.
type ValueSpectrum struct {
	// Axis is the unique id for this spectrum (e.g., "freedom_vs_control").
	Axis AxisID `json:"axis"`
	// Definition explains the poles of the spectrum in prose.
	Definition string `json:"definition"`
}

// Universe is the root entity. Its value spectrums are the closed set of
// axes every downstream entity may reference. The two catalogs start empty
// and are back-filled by the locations and factions stages.
type Universe struct {
	// ID is the slug identifying this universe.
	ID string `json:"id"`
	// Title is the display name of the universe.
	Title string `json:"title"`
	// Genres lists the genres the universe blends.
	Genres []string `json:"genres"`
	// Tones lists tonal descriptors.
	Tones []string `json:"tones"`
	// WorldRules lists hard setting rules that generation must respect.
	WorldRules []string `json:"world_rules"`
	// ValueSpectrums defines the 2-5 dramatic axes of the universe.
	ValueSpectrums []ValueSpectrum `json:"value_spectrums"`
	// Motifs lists recurring images and ideas.
	Motifs []string `json:"motifs"`
	// Lexicon lists in-world vocabulary.
	Lexicon []string `json:"lexicon"`
	// LocationsCatalog is back-filled with every location id once the
	// locations stage completes.
	LocationsCatalog []LocID `json:"locations_catalog"`
	// FactionsCatalog is back-filled with every faction id once the
	// factions stage completes.
	FactionsCatalog []FactionID `json:"factions_catalog"`
}

// Axes returns the ids of every value spectrum in definition order.
func (u *Universe) Axes() []AxisID {
	axes := make([]AxisID, len(u.ValueSpectrums))
	for i, vs := range u.ValueSpectrums {
		axes[i] = vs.Axis
	}
	return axes
}

// HasAxis reports whether the universe defines the given axis.
func (u *Universe) HasAxis(axis AxisID) bool {
	for _, vs := range u.ValueSpectrums {
		if vs.Axis == axis {
			return true
		}
	}
	return false
}

// ControllingIdea is the thematic statement of the season, anchored to a
// non-empty subset of the universe's axes.
type ControllingIdea struct {
	// Statement is the controlling idea in one or two sentences.
	Statement string `json:"statement"`
	// Axes lists the universe axes the idea argues over.
	Axes []AxisID `json:"axes"`
	// Counterargument states the opposing view the season dramatizes.
	Counterargument string `json:"counterargument"`
}
