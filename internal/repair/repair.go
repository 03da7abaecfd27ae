// Package repair normalizes raw generated payloads before schema
// validation. Every rule is pure and idempotent: repairing an already
// repaired payload is a no-op, and no rule ever invents a cross-entity
// reference. Rules are scoped by field name, not by generation order, so
// the same registry runs unchanged against every stage's output.
package repair

import (
	"sort"
	"strings"

	"github.com/even/showrunner/pkg/models"
)

// stringArrayFields are the fields declared as arrays of strings across
// the entity schemas. A comma-joined string in one of these positions is
// split; an object is flattened to its values.
var stringArrayFields = map[string]bool{
	"genres":               true,
	"tones":                true,
	"world_rules":          true,
	"motifs":               true,
	"lexicon":              true,
	"resources":            true,
	"sensory_details":      true,
	"blocking_affordances": true,
	"apparel_core":         true,
	"physical_traits":      true,
	"palette":              true,
	"negative_prompt":      true,
	"keywords":             true,
	"traits":               true,
	"avoid":                true,
	"axes":                 true,
	"conflict_axes":        true,
	"faction_affiliations": true,
	"locations":            true,
	"subject_ids":          true,
	"characters_present":   true,
	"characters":           true,
	"key_figures":          true,
	"locations_catalog":    true,
	"factions_catalog":     true,
}

// objectArrayFields are fields declared as arrays of objects. An object
// keyed by arbitrary names in one of these positions is flattened to its
// values, ordered by key for determinism.
var objectArrayFields = map[string]bool{
	"value_spectrums":         true,
	"factions":                true,
	"relationships":           true,
	"scenes":                  true,
	"episodes":                true,
	"scene_plans":             true,
	"pairwise_pressures":      true,
	"escalation_ladder":       true,
	"acts":                    true,
	"episode_promises":        true,
	"scene_character_recasts": true,
}

// antonyms drives the deterministic toggle for non-turning value shifts.
// Both directions are present so the toggle is a pure lookup.
var antonyms = map[string]string{
	"trusting":   "suspicious",
	"suspicious": "trusting",
	"free":       "controlled",
	"controlled": "free",
	"open":       "closed",
	"closed":     "open",
	"hopeful":    "despairing",
	"despairing": "hopeful",
	"loyal":      "betrayed",
	"betrayed":   "loyal",
	"safe":       "threatened",
	"threatened": "safe",
	"honest":     "deceitful",
	"deceitful":  "honest",
	"united":     "divided",
	"divided":    "united",
	"known":      "hidden",
	"hidden":     "known",
	"positive":   "negative",
	"negative":   "positive",
}

// Repair returns a normalized deep copy of payload with every rule
// applied. The input is never mutated.
func Repair(payload map[string]any) map[string]any {
	copied := deepCopy(payload).(map[string]any)
	repairMap(copied)
	return copied
}

// repairMap applies rules to one object node, then recurses.
func repairMap(node map[string]any) {
	for key, value := range node {
		node[key] = coerceArrays(key, value)
	}

	fixRelationshipKind(node)
	fixSceneValueShift(node)
	fixBroll(node)
	fixRecast(node)

	for _, value := range node {
		switch v := value.(type) {
		case map[string]any:
			repairMap(v)
		case []any:
			for _, elem := range v {
				if m, ok := elem.(map[string]any); ok {
					repairMap(m)
				}
			}
		}
	}
}

// coerceArrays handles rules (a) and (c): comma-joined strings and
// object-shaped values in positions declared as arrays.
func coerceArrays(key string, value any) any {
	if stringArrayFields[key] {
		switch v := value.(type) {
		case string:
			return splitCommaList(v)
		case map[string]any:
			return sortedValues(v)
		}
	}
	if objectArrayFields[key] {
		if v, ok := value.(map[string]any); ok {
			return sortedValues(v)
		}
	}
	return value
}

// splitCommaList splits a comma-joined string into trimmed parts,
// dropping empties.
func splitCommaList(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// sortedValues flattens an object to its values ordered by key.
func sortedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// fixRelationshipKind handles rule (b): free-text relationship labels are
// mapped to the nearest enum member by substring containment, falling back
// to the default kind. Only relationship-shaped nodes are touched.
func fixRelationshipKind(node map[string]any) {
	if _, hasWith := node["with"]; !hasWith {
		return
	}
	raw, ok := node["kind"].(string)
	if !ok {
		return
	}
	node["kind"] = string(NearestRelationshipKind(raw))
}

// NearestRelationshipKind maps a free-text label onto the closed kind set
// via case-insensitive substring containment in either direction, with a
// fixed default when nothing matches.
func NearestRelationshipKind(label string) models.RelationshipKind {
	lowered := strings.ToLower(strings.TrimSpace(label))
	if models.RelationshipKind(lowered).Valid() {
		return models.RelationshipKind(lowered)
	}
	for _, kind := range models.RelationshipKinds {
		k := string(kind)
		if strings.Contains(lowered, k) || (lowered != "" && strings.Contains(k, lowered)) {
			return kind
		}
	}
	return models.DefaultRelationshipKind
}

// fixSceneValueShift handles rule (d): a scene shift whose from and to are
// equal toggles to a fixed antonym so the shift turns.
func fixSceneValueShift(node map[string]any) {
	shift, ok := node["scene_value_shift"].(map[string]any)
	if !ok {
		return
	}
	from, fromOK := shift["from"].(string)
	to, toOK := shift["to"].(string)
	if !fromOK || !toOK || from != to {
		return
	}
	shift["to"] = Antonym(from)
}

// Antonym returns the toggled value charge for a non-turning shift: a
// fixed antonym when the charge is known, otherwise the hardcoded
// positive/negative pair.
func Antonym(charge string) string {
	if opposite, ok := antonyms[strings.ToLower(charge)]; ok {
		return opposite
	}
	if strings.EqualFold(charge, "negative") {
		return "positive"
	}
	return "negative"
}

// fixBroll handles rules (e) and (f) on a scene node that carries both a
// brief and its characters_present. Keywords are forced to the required
// set; subject ids are clipped to the first two entries, filtered to the
// characters actually present, and fall back to the first present
// character when the clipped set empties out. subject_count always equals
// the final subject list length.
func fixBroll(node map[string]any) {
	brief, ok := node["broll_image_brief"].(map[string]any)
	if !ok {
		return
	}

	keywords := make([]any, len(models.BrollKeywords))
	for i, k := range models.BrollKeywords {
		keywords[i] = k
	}
	brief["keywords"] = keywords

	present, _ := node["characters_present"].([]any)
	presentSet := make(map[string]bool, len(present))
	for _, p := range present {
		if s, ok := p.(string); ok {
			presentSet[s] = true
		}
	}

	subjects, _ := brief["subject_ids"].([]any)
	if len(subjects) > models.MaxBrollSubjects {
		subjects = subjects[:models.MaxBrollSubjects]
	}
	kept := make([]any, 0, len(subjects))
	for _, s := range subjects {
		if id, ok := s.(string); ok && presentSet[id] {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 && len(present) > 0 {
		if id, ok := present[0].(string); ok {
			kept = append(kept, id)
		}
	}
	brief["subject_ids"] = kept
	brief["subject_count"] = float64(len(kept))
}

// fixRecast handles rule (g): trait lists longer than the ceiling are
// truncated with the overflow moved to the avoid list rather than lost.
func fixRecast(node map[string]any) {
	if _, hasChar := node["character"]; !hasChar {
		return
	}
	traits, ok := node["traits"].([]any)
	if !ok || len(traits) <= models.MaxRecastTraits {
		return
	}

	overflow := traits[models.MaxRecastTraits:]
	node["traits"] = traits[:models.MaxRecastTraits]

	avoid, _ := node["avoid"].([]any)
	node["avoid"] = append(append([]any{}, avoid...), overflow...)
}

// deepCopy clones a decoded JSON value.
func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = deepCopy(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = deepCopy(elem)
		}
		return out
	default:
		return v
	}
}
