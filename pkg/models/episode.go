package models

// EpisodePlan is the beat-level plan for one episode.
type EpisodePlan struct {
	// Episode is the 1-indexed episode number.
	Episode int `json:"episode"`
	// Title is the episode title.
	Title string `json:"title"`
	// Protagonist is the character id the episode follows.
	Protagonist CharID `json:"protagonist"`
	// ValueTurn is the episode's turn on one axis.
	ValueTurn ValueShift `json:"value_turn"`
	// Locations lists the location ids the episode uses.
	Locations []LocID `json:"locations"`
	// Synopsis summarizes the episode.
	Synopsis string `json:"synopsis"`
}
