package models

// EscalationTiers is the fixed height of the escalation ladder.
const EscalationTiers = 3

// PairwisePressure is a standing tension between exactly two characters
// on one axis.
type PairwisePressure struct {
	// Characters are the two distinct character ids under pressure.
	Characters []CharID `json:"characters"`
	// Axis is the spectrum the pressure plays out on.
	Axis AxisID `json:"axis"`
	// Description states the pressure in prose.
	Description string `json:"description"`
}

// EscalationTier is one rung of the season's escalation ladder.
type EscalationTier struct {
	// Tier is the 1-indexed rung number.
	Tier int `json:"tier"`
	// Stakes describes what is at risk at this rung.
	Stakes string `json:"stakes"`
	// Irreversible names what can no longer be undone once crossed.
	Irreversible string `json:"irreversible"`
}

// ConflictMatrix maps the season's standing conflicts.
type ConflictMatrix struct {
	// ConflictAxes lists the axes conflict runs along.
	ConflictAxes []AxisID `json:"conflict_axes"`
	// PairwisePressures lists character-pair tensions.
	PairwisePressures []PairwisePressure `json:"pairwise_pressures"`
	// EscalationLadder has exactly EscalationTiers rungs.
	EscalationLadder []EscalationTier `json:"escalation_ladder"`
}
