package models

// SeasonActs is the fixed number of acts in a season arc.
const SeasonActs = 3

// ValueShift is a before/after pair on one axis. Every shift must turn:
// From and To are never equal in a finalized entity.
type ValueShift struct {
	// Axis is the spectrum the shift happens on.
	Axis AxisID `json:"axis"`
	// From is the value charge before.
	From string `json:"from"`
	// To is the value charge after.
	To string `json:"to"`
}

// Turns reports whether the shift actually changes value.
func (s ValueShift) Turns() bool { return s.From != s.To }

// IncitingIncident kicks the season off with a value shift.
type IncitingIncident struct {
	// Description states the incident in prose.
	Description string `json:"description"`
	// Shift is the value change the incident forces.
	Shift ValueShift `json:"shift"`
}

// Act is one of the season's three acts.
type Act struct {
	// Act is the 1-indexed act number.
	Act int `json:"act"`
	// Focus states what the act is about.
	Focus string `json:"focus"`
	// Climax states the act's turning point.
	Climax string `json:"climax"`
}

// EpisodePromise commits one episode to a turn on one axis within an act.
type EpisodePromise struct {
	// Episode is the 1-indexed episode number.
	Episode int `json:"episode"`
	// Axis is the spectrum the episode turns on.
	Axis AxisID `json:"axis"`
	// Act is the act the episode belongs to.
	Act int `json:"act"`
	// Turn states the promised turn in prose.
	Turn string `json:"turn"`
}

// SeasonArc is the season-level shape: inciting incident, three acts, and
// one promise per episode.
type SeasonArc struct {
	// IncitingIncident starts the season.
	IncitingIncident IncitingIncident `json:"inciting_incident"`
	// Acts has exactly SeasonActs entries.
	Acts []Act `json:"acts"`
	// EpisodeCount is the number of episodes in the season.
	EpisodeCount int `json:"episode_count"`
	// EpisodePromises has one entry per episode.
	EpisodePromises []EpisodePromise `json:"episode_promises"`
}
