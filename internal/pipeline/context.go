// Package pipeline sequences the nine dependent generation stages,
// wiring each stage's inputs from the accumulated context and running
// retry, repair, and schema validation around every generation call.
package pipeline

import (
	"encoding/json"
	"sync"

	"github.com/even/showrunner/pkg/models"
)

// Context is the append-only accumulator for one generation session. The
// orchestrator is its only writer; concurrent readers (progress
// reporters, the TUI) see an entity only after its stage's validation has
// succeeded. Back-fill mutations (universe catalogs, faction key figures)
// happen inside the writing stage's apply step, never from outside.
type Context struct {
	mu sync.RWMutex

	concept   string
	universe  *models.Universe
	idea      *models.ControllingIdea
	factions  *models.FactionsBundle
	roster    *models.CharacterRoster
	locations *models.LocationsBundle
	conflict  *models.ConflictMatrix
	season    *models.SeasonArc
	episodes  []models.EpisodePlan
	scenes    []models.ScenePlan
}

// NewContext creates an empty context for the given show concept.
func NewContext(concept string) *Context {
	return &Context{concept: concept}
}

// Concept returns the show concept the session was seeded with.
func (c *Context) Concept() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.concept
}

// Universe returns the universe entity, or nil before its stage.
func (c *Context) Universe() *models.Universe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.universe
}

// ControllingIdea returns the controlling idea, or nil before its stage.
func (c *Context) ControllingIdea() *models.ControllingIdea {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idea
}

// Factions returns the factions bundle, or nil before its stage.
func (c *Context) Factions() *models.FactionsBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.factions
}

// Roster returns the character roster, or nil before its stage.
func (c *Context) Roster() *models.CharacterRoster {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roster
}

// Locations returns the locations bundle, or nil before its stage.
func (c *Context) Locations() *models.LocationsBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locations
}

// Conflict returns the conflict matrix, or nil before its stage.
func (c *Context) Conflict() *models.ConflictMatrix {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conflict
}

// Season returns the season arc, or nil before its stage.
func (c *Context) Season() *models.SeasonArc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.season
}

// Episodes returns the episode plans, or nil before their stage.
func (c *Context) Episodes() []models.EpisodePlan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.episodes
}

// Scenes returns the scene plans, or nil before their stage.
func (c *Context) Scenes() []models.ScenePlan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scenes
}

// Snapshot is the serializable form of a context, used for artifact
// persistence and resume.
type Snapshot struct {
	Concept   string                  `json:"concept"`
	Universe  *models.Universe        `json:"universe,omitempty"`
	Idea      *models.ControllingIdea `json:"controlling_idea,omitempty"`
	Factions  *models.FactionsBundle  `json:"factions,omitempty"`
	Roster    *models.CharacterRoster `json:"characters,omitempty"`
	Locations *models.LocationsBundle `json:"locations,omitempty"`
	Conflict  *models.ConflictMatrix  `json:"conflict_matrix,omitempty"`
	Season    *models.SeasonArc       `json:"season_arc,omitempty"`
	Episodes  []models.EpisodePlan    `json:"episode_plans,omitempty"`
	Scenes    []models.ScenePlan      `json:"scene_plans,omitempty"`
}

// Snapshot returns a copy of the current context state.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Concept:   c.concept,
		Universe:  c.universe,
		Idea:      c.idea,
		Factions:  c.factions,
		Roster:    c.roster,
		Locations: c.locations,
		Conflict:  c.conflict,
		Season:    c.season,
		Episodes:  c.episodes,
		Scenes:    c.scenes,
	}
}

// FromSnapshot rebuilds a context from a persisted snapshot, enabling a
// caller to resume a partial run.
func FromSnapshot(s Snapshot) *Context {
	return &Context{
		concept:   s.Concept,
		universe:  s.Universe,
		idea:      s.Idea,
		factions:  s.Factions,
		roster:    s.Roster,
		locations: s.Locations,
		conflict:  s.Conflict,
		season:    s.Season,
		episodes:  s.Episodes,
		scenes:    s.Scenes,
	}
}

// CompletedStages returns how many leading stages already have their
// entity in the context. A resumed run re-enters at this index.
func (c *Context) CompletedStages() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	done := 0
	for _, present := range []bool{
		c.universe != nil,
		c.idea != nil,
		c.factions != nil,
		c.roster != nil,
		c.locations != nil,
		c.conflict != nil,
		c.season != nil,
		c.episodes != nil,
		c.scenes != nil,
	} {
		if !present {
			break
		}
		done++
	}
	return done
}

// MarshalJSON serializes the context as its snapshot.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// contextSlice marshals the named parts of the snapshot into the loose
// map form the generation request carries.
func (s Snapshot) contextSlice(keys ...string) map[string]any {
	full := map[string]any{
		"universe":         s.Universe,
		"controlling_idea": s.Idea,
		"factions":         s.Factions,
		"characters":       s.Roster,
		"locations":        s.Locations,
		"conflict_matrix":  s.Conflict,
		"season_arc":       s.Season,
		"episode_plans":    s.Episodes,
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := full[k]; ok {
			out[k] = toLoose(v)
		}
	}
	return out
}

// toLoose converts a typed entity to its JSON-shaped map form.
func toLoose(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
