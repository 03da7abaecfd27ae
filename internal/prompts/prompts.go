// Package prompts holds the instruction strings fed to the generation
// collaborator, one builder per stage. The pipeline treats these as
// opaque; everything the stages depend on structurally lives in the
// schemas, not here.
package prompts

import (
	"fmt"
	"strings"

	"github.com/even/showrunner/pkg/models"
)

// System is the session-level system prompt shared by every stage.
const System = `You are a story architect building one internally
consistent series bible. Respond with a single JSON object matching the
requested shape exactly: no extra fields, no commentary outside the JSON.
All ids are lowercase slugs (letters, digits, and - _ . separators). Only
reference ids that appear in the provided context.`

// Universe asks for the root universe entity seeded from a concept.
func Universe(concept string) string {
	return fmt.Sprintf(`Create the universe for this show concept:

%s

Return a JSON object with: id, title, genres, tones, world_rules,
value_spectrums (2-5 entries, each {axis, definition}, axes pairwise
distinct), motifs, lexicon. The value spectrums are the complete set of
dramatic axes the whole season will argue over; choose them carefully,
nothing later may invent new ones. Leave out locations_catalog and
factions_catalog; they are filled in later.`, concept)
}

// ControllingIdea asks for the season's thematic statement.
func ControllingIdea() string {
	return `From the universe in context, state the season's controlling
idea. Return a JSON object with: statement, axes (a non-empty subset of
the universe's value spectrum axes), counterargument.`
}

// Factions asks for two or more factions positioned on the axes.
func Factions() string {
	return `Invent the factions of this universe. Return a JSON object
{factions: [...]} with at least 2 entries, each: id, name, ideology,
position_on_axes (axis id -> number in [-1, 1], using only axes from the
universe), resources. Leave key_figures out; it is filled in after
characters exist.`
}

// Characters asks for the roster.
func Characters() string {
	return fmt.Sprintf(`Cast the roster for this season. Return a JSON
object {characters: [...]} with at least 4 entries, each: id, name, role,
want, need, relationships (each {with: another character's id, kind: one
of %s, axis}), faction_affiliations (faction ids from context),
position_on_axes, visual_bible {apparel_core, physical_traits, palette},
diffusion_control {prompt_core, negative_prompt}. Every relationship must
point at another character in this same roster.`, kindList())
}

// Locations asks for five or more locations.
func Locations() string {
	return `Design the recurring locations. Return a JSON object
{locations: [...]} with at least 5 entries, each: id, name, description,
sensory_details, blocking_affordances (physical features scenes can stage
action around), diffusion_guide (a fixed image-prompt fragment).`
}

// ConflictMatrix asks for the standing conflicts.
func ConflictMatrix() string {
	return `Map the season's standing conflicts. Return a JSON object
with: conflict_axes (axis ids from the universe), pairwise_pressures
(each {characters: exactly 2 distinct character ids, axis, description}),
escalation_ladder (exactly 3 tiers, each {tier, stakes, irreversible}).`
}

// SeasonArc asks for the season shape.
func SeasonArc() string {
	return `Shape the season arc. Return a JSON object with:
inciting_incident {description, shift {axis, from, to}}, acts (exactly 3,
each {act, focus, climax}), episode_count, episode_promises (exactly one
per episode, each {episode, axis, act, turn}). Every shift must actually
turn: from and to must differ.`
}

// EpisodePlans asks for one plan per episode.
func EpisodePlans() string {
	return `Plan every episode promised by the season arc. Return a JSON
object {episodes: [...]} with one entry per episode, each: episode,
title, protagonist (a character id), value_turn {axis, from, to},
locations (location ids), synopsis.`
}

// ScenePlans asks for the scene breakdown of every episode.
func ScenePlans() string {
	return fmt.Sprintf(`Break every episode into scenes. Return a JSON
object {scene_plans: [...]} with one entry per episode, each {episode,
scenes: [...]}. Each scene: scene, location (a location id),
characters_present (character ids), conflict_axis, scene_value_shift
{from, to, axis} where from and to differ, scene_character_recasts (each
{character, traits (at most %d), avoid}), broll_image_brief
{subject_ids (1-%d ids drawn from characters_present), subject_count,
keywords: ["candid", "amateur"], prompt}, summary.`,
		models.MaxRecastTraits, models.MaxBrollSubjects)
}

func kindList() string {
	kinds := make([]string, len(models.RelationshipKinds))
	for i, k := range models.RelationshipKinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, "/")
}
