package models

import "sort"

// MaxRecastTraits caps the per-character trait list in a scene recast.
const MaxRecastTraits = 3

// MaxBrollSubjects caps the subjects of a b-roll brief.
const MaxBrollSubjects = 2

// BrollKeywords is the exact keyword set every b-roll brief must carry.
var BrollKeywords = []string{"candid", "amateur"}

// HasBrollKeywords reports whether keywords equals the required set,
// regardless of order.
func HasBrollKeywords(keywords []string) bool {
	if len(keywords) != len(BrollKeywords) {
		return false
	}
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	want := append([]string(nil), BrollKeywords...)
	sort.Strings(want)
	for i := range sorted {
		if sorted[i] != want[i] {
			return false
		}
	}
	return true
}

// SceneRecast adjusts a character's look for one scene, with at most
// MaxRecastTraits traits; overflow lands in Avoid rather than being lost.
type SceneRecast struct {
	// Character is the recast character's id.
	Character CharID `json:"character"`
	// Traits lists the visual traits to apply (at most MaxRecastTraits).
	Traits []string `json:"traits"`
	// Avoid lists traits to steer away from.
	Avoid []string `json:"avoid"`
}

// BrollBrief is a constrained image request derived from a scene: at most
// two subjects drawn from the characters present, with a fixed style
// keyword set.
type BrollBrief struct {
	// SubjectIDs is a non-empty subset of the scene's characters present,
	// at most MaxBrollSubjects long.
	SubjectIDs []CharID `json:"subject_ids"`
	// SubjectCount equals len(SubjectIDs).
	SubjectCount int `json:"subject_count"`
	// Keywords equals BrollKeywords exactly.
	Keywords []string `json:"keywords"`
	// Prompt is the rendered image prompt.
	Prompt string `json:"prompt"`
}

// SceneValueShift is the scene's turn on one axis; From and To must differ.
type SceneValueShift struct {
	// From is the value charge entering the scene.
	From string `json:"from"`
	// To is the value charge leaving the scene.
	To string `json:"to"`
	// Axis is the spectrum the scene turns on.
	Axis AxisID `json:"axis"`
}

// Turns reports whether the shift actually changes value.
func (s SceneValueShift) Turns() bool { return s.From != s.To }

// SceneUnit is one scene of an episode.
type SceneUnit struct {
	// Scene is the 1-indexed scene number within the episode.
	Scene int `json:"scene"`
	// Location is the location id the scene plays in.
	Location LocID `json:"location"`
	// CharactersPresent lists the character ids in the scene.
	CharactersPresent []CharID `json:"characters_present"`
	// ConflictAxis is the axis the scene's conflict runs on.
	ConflictAxis AxisID `json:"conflict_axis"`
	// ValueShift is the scene's value turn.
	ValueShift SceneValueShift `json:"scene_value_shift"`
	// Recasts lists per-scene visual adjustments.
	Recasts []SceneRecast `json:"scene_character_recasts"`
	// Broll is the scene's image brief.
	Broll BrollBrief `json:"broll_image_brief"`
	// Summary states what happens.
	Summary string `json:"summary"`
}

// ScenePlan lists the scenes of one episode.
type ScenePlan struct {
	// Episode is the 1-indexed episode number.
	Episode int `json:"episode"`
	// Scenes lists the episode's scenes in order.
	Scenes []SceneUnit `json:"scenes"`
}

// HasCharacter reports whether id is among the characters present.
func (s *SceneUnit) HasCharacter(id CharID) bool {
	for _, c := range s.CharactersPresent {
		if c == id {
			return true
		}
	}
	return false
}
