package pipeline

import (
	"fmt"

	"github.com/even/showrunner/internal/ids"
	"github.com/even/showrunner/internal/prompts"
	"github.com/even/showrunner/internal/schema"
	"github.com/even/showrunner/pkg/models"
)

// Stage is one fixed step of the pipeline. Stage order and count are
// known at compile time; each stage depends only on entities produced by
// earlier stages.
type Stage struct {
	// Name is the stage name, doubling as schema name and artifact key.
	Name string
	// MaxOutputTokens bounds the generation response for this stage.
	MaxOutputTokens int64
	// instructions builds the opaque instruction string from the context.
	instructions func(s Snapshot) string
	// contextSlice selects the context parts the stage's prompt carries.
	contextSlice func(s Snapshot) map[string]any
	// apply decodes the validated payload into the typed entity and
	// appends it to the context, performing any declared back-fills.
	apply func(c *Context, payload map[string]any) error
}

// StageCount is the fixed number of generation stages.
const StageCount = 9

// Stages lists the pipeline's stages in dependency order.
var Stages = [StageCount]Stage{
	{
		Name:            schema.SchemaUniverse,
		MaxOutputTokens: 4096,
		instructions:    func(s Snapshot) string { return prompts.Universe(s.Concept) },
		contextSlice:    func(s Snapshot) map[string]any { return nil },
		apply:           applyUniverse,
	},
	{
		Name:            schema.SchemaControllingIdea,
		MaxOutputTokens: 2048,
		instructions:    func(s Snapshot) string { return prompts.ControllingIdea() },
		contextSlice:    func(s Snapshot) map[string]any { return s.contextSlice("universe") },
		apply:           applyControllingIdea,
	},
	{
		Name:            schema.SchemaFactions,
		MaxOutputTokens: 4096,
		instructions:    func(s Snapshot) string { return prompts.Factions() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "controlling_idea")
		},
		apply: applyFactions,
	},
	{
		Name:            schema.SchemaCharacters,
		MaxOutputTokens: 8192,
		instructions:    func(s Snapshot) string { return prompts.Characters() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "controlling_idea", "factions")
		},
		apply: applyCharacters,
	},
	{
		Name:            schema.SchemaLocations,
		MaxOutputTokens: 4096,
		instructions:    func(s Snapshot) string { return prompts.Locations() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "controlling_idea", "factions")
		},
		apply: applyLocations,
	},
	{
		Name:            schema.SchemaConflictMatrix,
		MaxOutputTokens: 4096,
		instructions:    func(s Snapshot) string { return prompts.ConflictMatrix() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "controlling_idea", "factions", "characters")
		},
		apply: applyConflictMatrix,
	},
	{
		Name:            schema.SchemaSeasonArc,
		MaxOutputTokens: 4096,
		instructions:    func(s Snapshot) string { return prompts.SeasonArc() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "controlling_idea", "conflict_matrix")
		},
		apply: applySeasonArc,
	},
	{
		Name:            schema.SchemaEpisodePlans,
		MaxOutputTokens: 8192,
		instructions:    func(s Snapshot) string { return prompts.EpisodePlans() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "characters", "locations", "season_arc")
		},
		apply: applyEpisodePlans,
	},
	{
		Name:            schema.SchemaScenePlans,
		MaxOutputTokens: 16384,
		instructions:    func(s Snapshot) string { return prompts.ScenePlans() },
		contextSlice: func(s Snapshot) map[string]any {
			return s.contextSlice("universe", "characters", "locations", "conflict_matrix", "season_arc", "episode_plans")
		},
		apply: applyScenePlans,
	},
}

func applyUniverse(c *Context, payload map[string]any) error {
	var u models.Universe
	if err := schema.Decode(payload, &u); err != nil {
		return err
	}
	if u.LocationsCatalog == nil {
		u.LocationsCatalog = []models.LocID{}
	}
	if u.FactionsCatalog == nil {
		u.FactionsCatalog = []models.FactionID{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.universe = &u
	return nil
}

func applyControllingIdea(c *Context, payload map[string]any) error {
	var idea models.ControllingIdea
	if err := schema.Decode(payload, &idea); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idea = &idea
	return nil
}

// applyFactions appends the bundle and back-fills the universe's
// factions catalog.
func applyFactions(c *Context, payload map[string]any) error {
	var bundle models.FactionsBundle
	if err := schema.Decode(payload, &bundle); err != nil {
		return err
	}
	for i := range bundle.Factions {
		if bundle.Factions[i].KeyFigures == nil {
			bundle.Factions[i].KeyFigures = []models.CharID{}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factions = &bundle
	c.universe.FactionsCatalog = bundle.IDs()
	return nil
}

// applyCharacters appends the roster, derives each character's diffusion
// seed from (universe id, character id), and back-fills faction key
// figures from the roster's affiliations.
func applyCharacters(c *Context, payload map[string]any) error {
	var roster models.CharacterRoster
	if err := schema.Decode(payload, &roster); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range roster.Characters {
		ch := &roster.Characters[i]
		ch.DiffusionControl.Seed = ids.HashSeed(c.universe.ID, string(ch.ID))
	}

	c.roster = &roster

	for fi := range c.factions.Factions {
		faction := &c.factions.Factions[fi]
		faction.KeyFigures = faction.KeyFigures[:0]
		for _, ch := range roster.Characters {
			for _, affiliation := range ch.FactionAffiliations {
				if affiliation == faction.ID {
					faction.KeyFigures = append(faction.KeyFigures, ch.ID)
					break
				}
			}
		}
	}
	return nil
}

// applyLocations appends the bundle and back-fills the universe's
// locations catalog.
func applyLocations(c *Context, payload map[string]any) error {
	var bundle models.LocationsBundle
	if err := schema.Decode(payload, &bundle); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locations = &bundle
	c.universe.LocationsCatalog = bundle.IDs()
	return nil
}

func applyConflictMatrix(c *Context, payload map[string]any) error {
	var matrix models.ConflictMatrix
	if err := schema.Decode(payload, &matrix); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conflict = &matrix
	return nil
}

func applySeasonArc(c *Context, payload map[string]any) error {
	var arc models.SeasonArc
	if err := schema.Decode(payload, &arc); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.season = &arc
	return nil
}

type episodePlansPayload struct {
	Episodes []models.EpisodePlan `json:"episodes"`
}

func applyEpisodePlans(c *Context, payload map[string]any) error {
	var plans episodePlansPayload
	if err := schema.Decode(payload, &plans); err != nil {
		return err
	}
	if len(plans.Episodes) == 0 {
		return fmt.Errorf("episode plans payload decoded empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.episodes = plans.Episodes
	return nil
}

type scenePlansPayload struct {
	ScenePlans []models.ScenePlan `json:"scene_plans"`
}

func applyScenePlans(c *Context, payload map[string]any) error {
	var plans scenePlansPayload
	if err := schema.Decode(payload, &plans); err != nil {
		return err
	}
	if len(plans.ScenePlans) == 0 {
		return fmt.Errorf("scene plans payload decoded empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenes = plans.ScenePlans
	return nil
}
