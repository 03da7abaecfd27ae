package models

// RelationshipKind is the closed set of relationship labels between
// characters. Generated free-text labels are normalized onto this set.
type RelationshipKind string

const (
	RelationshipAlly   RelationshipKind = "ally"
	RelationshipRival  RelationshipKind = "rival"
	RelationshipMentor RelationshipKind = "mentor"
	RelationshipFamily RelationshipKind = "family"
	RelationshipLover  RelationshipKind = "lover"
	RelationshipEnemy  RelationshipKind = "enemy"
)

// RelationshipKinds lists every valid relationship kind.
var RelationshipKinds = []RelationshipKind{
	RelationshipAlly,
	RelationshipRival,
	RelationshipMentor,
	RelationshipFamily,
	RelationshipLover,
	RelationshipEnemy,
}

// DefaultRelationshipKind is used when a generated label matches nothing.
const DefaultRelationshipKind = RelationshipAlly

// Valid reports whether the kind is a known value.
func (k RelationshipKind) Valid() bool {
	for _, known := range RelationshipKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Relationship ties one character to another along a dramatic axis.
type Relationship struct {
	// With is the other character's id.
	With CharID `json:"with"`
	// Kind labels the relationship.
	Kind RelationshipKind `json:"kind"`
	// Axis is the value spectrum the relationship plays out on.
	Axis AxisID `json:"axis"`
}

// VisualBible pins down a character's look for consistent image output.
type VisualBible struct {
	// ApparelCore lists the signature wardrobe pieces.
	ApparelCore []string `json:"apparel_core"`
	// PhysicalTraits lists fixed physical descriptors.
	PhysicalTraits []string `json:"physical_traits"`
	// Palette lists the character's color palette.
	Palette []string `json:"palette"`
}

// DiffusionControl carries the deterministic knobs for image generation.
// Seed is a stable hash of (universe id, character id) so renders are
// reproducible across runs and runtimes.
type DiffusionControl struct {
	// Seed is the non-negative sampler seed.
	Seed int32 `json:"seed"`
	// PromptCore is the fixed prompt fragment describing the character.
	PromptCore string `json:"prompt_core"`
	// NegativePrompt lists traits to steer away from.
	NegativePrompt []string `json:"negative_prompt"`
}

// Character is one member of the roster.
type Character struct {
	// ID is the character slug.
	ID CharID `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Role describes the character's narrative function.
	Role string `json:"role"`
	// Want is the character's conscious goal.
	Want string `json:"want"`
	// Need is the unconscious need the season tests.
	Need string `json:"need"`
	// Relationships lists ties to other characters.
	Relationships []Relationship `json:"relationships"`
	// FactionAffiliations lists faction ids the character belongs to.
	FactionAffiliations []FactionID `json:"faction_affiliations"`
	// PositionOnAxes maps axis ids to a stance in [-1, 1].
	PositionOnAxes map[AxisID]float64 `json:"position_on_axes"`
	// VisualBible pins the character's appearance.
	VisualBible VisualBible `json:"visual_bible"`
	// DiffusionControl carries image-generation controls.
	DiffusionControl DiffusionControl `json:"diffusion_control"`
}

// CharacterRoster is the characters stage output: four or more characters.
type CharacterRoster struct {
	Characters []Character `json:"characters"`
}

// IDs returns every character id in order.
func (r *CharacterRoster) IDs() []CharID {
	ids := make([]CharID, len(r.Characters))
	for i, c := range r.Characters {
		ids[i] = c.ID
	}
	return ids
}

// ByID returns the character with the given id, or nil.
func (r *CharacterRoster) ByID(id CharID) *Character {
	for i := range r.Characters {
		if r.Characters[i].ID == id {
			return &r.Characters[i]
		}
	}
	return nil
}
