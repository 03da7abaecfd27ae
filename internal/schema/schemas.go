package schema

import (
	"fmt"

	"github.com/even/showrunner/pkg/models"
)

// Schema names, one per generation stage.
const (
	SchemaUniverse        = "universe"
	SchemaControllingIdea = "controlling_idea"
	SchemaFactions        = "factions"
	SchemaCharacters      = "characters"
	SchemaLocations       = "locations"
	SchemaConflictMatrix  = "conflict_matrix"
	SchemaSeasonArc       = "season_arc"
	SchemaEpisodePlans    = "episode_plans"
	SchemaScenePlans      = "scene_plans"
)

// Schemas maps schema names to their checkers. Field sets are closed;
// structural counts live here, while cross-entity reference resolution and
// purely semantic invariants belong to the integrity checker.
var Schemas = map[string]Checker{
	SchemaUniverse:        universeSchema(),
	SchemaControllingIdea: controllingIdeaSchema(),
	SchemaFactions:        factionsSchema(),
	SchemaCharacters:      charactersSchema(),
	SchemaLocations:       locationsSchema(),
	SchemaConflictMatrix:  conflictMatrixSchema(),
	SchemaSeasonArc:       seasonArcSchema(),
	SchemaEpisodePlans:    episodePlansSchema(),
	SchemaScenePlans:      scenePlansSchema(),
}

func universeSchema() Checker {
	spectrum := Object(map[string]Checker{
		"axis":       Slug(),
		"definition": NonEmptyStr(),
	}, "axis", "definition")

	return Object(map[string]Checker{
		"id":              Slug(),
		"title":           NonEmptyStr(),
		"genres":          StrArray(1),
		"tones":           StrArray(1),
		"world_rules":     StrArray(1),
		"value_spectrums": Also(ArrayOf(spectrum, 2, 5), uniqueObjectField("axis")),
		"motifs":          StrArray(1),
		"lexicon":         StrArray(1),
		// Catalogs are back-filled by later stages; generation may omit
		// them or emit them empty.
		"locations_catalog": SlugArray(0, -1),
		"factions_catalog":  SlugArray(0, -1),
	}, "id", "title", "genres", "tones", "world_rules", "value_spectrums", "motifs", "lexicon")
}

func controllingIdeaSchema() Checker {
	return Object(map[string]Checker{
		"statement":       NonEmptyStr(),
		"axes":            UniqueSlugs(SlugArray(1, -1)),
		"counterargument": NonEmptyStr(),
	}, "statement", "axes")
}

func factionsSchema() Checker {
	faction := Object(map[string]Checker{
		"id":               Slug(),
		"name":             NonEmptyStr(),
		"ideology":         NonEmptyStr(),
		"position_on_axes": AxisPositions(),
		"resources":        StrArray(0),
		// key_figures is back-filled after the characters stage.
		"key_figures": SlugArray(0, -1),
	}, "id", "name", "ideology", "position_on_axes")

	return Object(map[string]Checker{
		"factions": Also(ArrayOf(faction, 2, -1), uniqueObjectField("id")),
	}, "factions")
}

func charactersSchema() Checker {
	relationship := Object(map[string]Checker{
		"with": Slug(),
		"kind": relationshipKind(),
		"axis": Slug(),
	}, "with", "kind", "axis")

	visualBible := Object(map[string]Checker{
		"apparel_core":    StrArray(1),
		"physical_traits": StrArray(1),
		"palette":         StrArray(0),
	}, "apparel_core", "physical_traits")

	diffusion := Object(map[string]Checker{
		// The orchestrator overwrites seed with the deterministic hash of
		// (universe id, character id); a generated value is tolerated.
		"seed":            Int(0),
		"prompt_core":     NonEmptyStr(),
		"negative_prompt": StrArray(0),
	}, "prompt_core")

	character := Object(map[string]Checker{
		"id":                   Slug(),
		"name":                 NonEmptyStr(),
		"role":                 NonEmptyStr(),
		"want":                 NonEmptyStr(),
		"need":                 NonEmptyStr(),
		"relationships":        ArrayOf(relationship, 1, -1),
		"faction_affiliations": SlugArray(0, -1),
		"position_on_axes":     AxisPositions(),
		"visual_bible":         visualBible,
		"diffusion_control":    diffusion,
	}, "id", "name", "role", "relationships", "position_on_axes", "visual_bible", "diffusion_control")

	return Object(map[string]Checker{
		"characters": Also(ArrayOf(character, 4, -1), uniqueObjectField("id")),
	}, "characters")
}

func locationsSchema() Checker {
	location := Object(map[string]Checker{
		"id":                   Slug(),
		"name":                 NonEmptyStr(),
		"description":          NonEmptyStr(),
		"sensory_details":      StrArray(1),
		"blocking_affordances": StrArray(1),
		"diffusion_guide":      NonEmptyStr(),
	}, "id", "name", "description", "sensory_details", "blocking_affordances", "diffusion_guide")

	return Object(map[string]Checker{
		"locations": Also(ArrayOf(location, 5, -1), uniqueObjectField("id")),
	}, "locations")
}

func conflictMatrixSchema() Checker {
	pressure := Object(map[string]Checker{
		"characters":  UniqueSlugs(SlugArray(2, 2)),
		"axis":        Slug(),
		"description": NonEmptyStr(),
	}, "characters", "axis", "description")

	tier := Object(map[string]Checker{
		"tier":         Int(1),
		"stakes":       NonEmptyStr(),
		"irreversible": NonEmptyStr(),
	}, "tier", "stakes", "irreversible")

	return Object(map[string]Checker{
		"conflict_axes":      UniqueSlugs(SlugArray(1, -1)),
		"pairwise_pressures": ArrayOf(pressure, 1, -1),
		"escalation_ladder":  ArrayOf(tier, models.EscalationTiers, models.EscalationTiers),
	}, "conflict_axes", "pairwise_pressures", "escalation_ladder")
}

func valueShiftSchema() Checker {
	return Object(map[string]Checker{
		"axis": Slug(),
		"from": NonEmptyStr(),
		"to":   NonEmptyStr(),
	}, "axis", "from", "to")
}

func seasonArcSchema() Checker {
	incident := Object(map[string]Checker{
		"description": NonEmptyStr(),
		"shift":       valueShiftSchema(),
	}, "description", "shift")

	act := Object(map[string]Checker{
		"act":    Int(1),
		"focus":  NonEmptyStr(),
		"climax": NonEmptyStr(),
	}, "act", "focus", "climax")

	promise := Object(map[string]Checker{
		"episode": Int(1),
		"axis":    Slug(),
		"act":     Int(1),
		"turn":    NonEmptyStr(),
	}, "episode", "axis", "act", "turn")

	return Object(map[string]Checker{
		"inciting_incident": incident,
		"acts":              ArrayOf(act, models.SeasonActs, models.SeasonActs),
		"episode_count":     Int(1),
		"episode_promises":  ArrayOf(promise, 1, -1),
	}, "inciting_incident", "acts", "episode_count", "episode_promises")
}

func episodePlansSchema() Checker {
	episode := Object(map[string]Checker{
		"episode":     Int(1),
		"title":       NonEmptyStr(),
		"protagonist": Slug(),
		"value_turn":  valueShiftSchema(),
		"locations":   SlugArray(1, -1),
		"synopsis":    NonEmptyStr(),
	}, "episode", "title", "protagonist", "value_turn", "locations", "synopsis")

	return Object(map[string]Checker{
		"episodes": ArrayOf(episode, 1, -1),
	}, "episodes")
}

func scenePlansSchema() Checker {
	recast := Object(map[string]Checker{
		"character": Slug(),
		"traits":    ArrayOf(NonEmptyStr(), 1, models.MaxRecastTraits),
		"avoid":     StrArray(0),
	}, "character", "traits")

	brief := Object(map[string]Checker{
		"subject_ids":   SlugArray(1, models.MaxBrollSubjects),
		"subject_count": Int(1),
		"keywords":      StrArray(len(models.BrollKeywords)),
		"prompt":        Str(),
	}, "subject_ids", "subject_count", "keywords")

	scene := Object(map[string]Checker{
		"scene":                   Int(1),
		"location":                Slug(),
		"characters_present":      SlugArray(1, -1),
		"conflict_axis":           Slug(),
		"scene_value_shift":       sceneValueShiftSchema(),
		"scene_character_recasts": ArrayOf(recast, 0, -1),
		"broll_image_brief":       brief,
		"summary":                 NonEmptyStr(),
	}, "scene", "location", "characters_present", "conflict_axis", "scene_value_shift", "broll_image_brief", "summary")

	plan := Object(map[string]Checker{
		"episode": Int(1),
		"scenes":  ArrayOf(scene, 1, -1),
	}, "episode", "scenes")

	return Object(map[string]Checker{
		"scene_plans": ArrayOf(plan, 1, -1),
	}, "scene_plans")
}

func sceneValueShiftSchema() Checker {
	return Object(map[string]Checker{
		"from": NonEmptyStr(),
		"to":   NonEmptyStr(),
		"axis": Slug(),
	}, "from", "to", "axis")
}

// relationshipKind accepts only the closed relationship kind set; free
// text is expected to have been normalized by repair first.
func relationshipKind() Checker {
	return func(path string, value any) []Violation {
		s, ok := value.(string)
		if !ok {
			return one(path, fmt.Sprintf("expected relationship kind, got %s", typeName(value)))
		}
		if !models.RelationshipKind(s).Valid() {
			return one(path, fmt.Sprintf("unknown relationship kind %q", s))
		}
		return nil
	}
}

// uniqueObjectField flags array elements whose named string field repeats
// an earlier element's value.
func uniqueObjectField(field string) Checker {
	return func(path string, value any) []Violation {
		arr, ok := value.([]any)
		if !ok {
			return nil
		}
		seen := make(map[string]bool, len(arr))
		var out []Violation
		for i, item := range arr {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			s, ok := obj[field].(string)
			if !ok {
				continue
			}
			if seen[s] {
				out = append(out, Violation{
					Path:   fmt.Sprintf("%s[%d].%s", path, i, field),
					Reason: fmt.Sprintf("duplicate %s %q", field, s),
				})
			}
			seen[s] = true
		}
		return out
	}
}
