// Package integrity verifies the assembled entity graph as a whole:
// every cross-entity reference must resolve against its catalog, and the
// semantic invariants schema validation cannot express structurally must
// hold. The checker is read-only and diagnostic; unlike per-stage repair
// it never mutates the context, and it never stops at the first problem.
package integrity

import (
	"fmt"
	"strings"

	"github.com/even/showrunner/internal/ids"
	"github.com/even/showrunner/internal/pipeline"
	"github.com/even/showrunner/pkg/models"
)

// Violation is one integrity problem at one structural path.
type Violation struct {
	// Path locates the offending reference or value.
	Path string `json:"path"`
	// Reason describes the problem.
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Reason)
}

// IntegrityError aggregates every violation found in one pass. It is
// always fatal: an inconsistent graph is not partially recoverable.
type IntegrityError struct {
	Violations []Violation
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integrity check failed with %d violation(s)", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}

// Check walks every cross-entity reference in the context and re-checks
// the graph-level invariants. For partial runs only the entities present
// are checked. Returns nil or an *IntegrityError listing every violation.
func Check(c *pipeline.Context) error {
	chk := newChecker(c.Snapshot())
	chk.run()
	if len(chk.violations) == 0 {
		return nil
	}
	return &IntegrityError{Violations: chk.violations}
}

// CheckSnapshot is Check for a context loaded from disk.
func CheckSnapshot(s pipeline.Snapshot) error {
	chk := newChecker(s)
	chk.run()
	if len(chk.violations) == 0 {
		return nil
	}
	return &IntegrityError{Violations: chk.violations}
}

type checker struct {
	s          pipeline.Snapshot
	axes       map[models.AxisID]bool
	characters map[models.CharID]bool
	factions   map[models.FactionID]bool
	locations  map[models.LocID]bool
	violations []Violation
}

func newChecker(s pipeline.Snapshot) *checker {
	chk := &checker{
		s:          s,
		axes:       make(map[models.AxisID]bool),
		characters: make(map[models.CharID]bool),
		factions:   make(map[models.FactionID]bool),
		locations:  make(map[models.LocID]bool),
	}
	if s.Universe != nil {
		for _, vs := range s.Universe.ValueSpectrums {
			chk.axes[vs.Axis] = true
		}
	}
	if s.Roster != nil {
		for _, ch := range s.Roster.Characters {
			chk.characters[ch.ID] = true
		}
	}
	if s.Factions != nil {
		for _, f := range s.Factions.Factions {
			chk.factions[f.ID] = true
		}
	}
	if s.Locations != nil {
		for _, l := range s.Locations.Locations {
			chk.locations[l.ID] = true
		}
	}
	return chk
}

func (c *checker) add(path, format string, args ...any) {
	c.violations = append(c.violations, Violation{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (c *checker) run() {
	c.checkUniverse()
	c.checkControllingIdea()
	c.checkFactions()
	c.checkCharacters()
	c.checkConflict()
	c.checkSeason()
	c.checkEpisodes()
	c.checkScenes()
}

func (c *checker) axisRef(path string, axis models.AxisID) {
	if c.s.Universe == nil {
		return
	}
	if !c.axes[axis] {
		c.add(path, "axis %q is not defined by the universe", axis)
	}
}

func (c *checker) charRef(path string, id models.CharID) {
	if c.s.Roster == nil {
		return
	}
	if !c.characters[id] {
		c.add(path, "character %q does not exist", id)
	}
}

func (c *checker) locRef(path string, id models.LocID) {
	if c.s.Locations == nil {
		return
	}
	if !c.locations[id] {
		c.add(path, "location %q does not exist", id)
	}
}

func (c *checker) factionRef(path string, id models.FactionID) {
	if c.s.Factions == nil {
		return
	}
	if !c.factions[id] {
		c.add(path, "faction %q does not exist", id)
	}
}

// checkUniverse re-checks the axis-set invariants and that the
// back-filled catalogs agree with the bundles.
func (c *checker) checkUniverse() {
	u := c.s.Universe
	if u == nil {
		return
	}
	if n := len(u.ValueSpectrums); n < 2 || n > 5 {
		c.add("universe.value_spectrums", "expected 2-5 value spectrums, got %d", n)
	}
	if len(c.axes) != len(u.ValueSpectrums) {
		c.add("universe.value_spectrums", "axis ids are not pairwise distinct")
	}
	for i, id := range u.FactionsCatalog {
		c.factionRef(fmt.Sprintf("universe.factions_catalog[%d]", i), id)
	}
	for i, id := range u.LocationsCatalog {
		c.locRef(fmt.Sprintf("universe.locations_catalog[%d]", i), id)
	}
	if c.s.Factions != nil {
		cataloged := make(map[models.FactionID]bool, len(u.FactionsCatalog))
		for _, id := range u.FactionsCatalog {
			cataloged[id] = true
		}
		for _, f := range c.s.Factions.Factions {
			if !cataloged[f.ID] {
				c.add("universe.factions_catalog", "faction %q is missing from the catalog", f.ID)
			}
		}
	}
	if c.s.Locations != nil {
		cataloged := make(map[models.LocID]bool, len(u.LocationsCatalog))
		for _, id := range u.LocationsCatalog {
			cataloged[id] = true
		}
		for _, l := range c.s.Locations.Locations {
			if !cataloged[l.ID] {
				c.add("universe.locations_catalog", "location %q is missing from the catalog", l.ID)
			}
		}
	}
}

func (c *checker) checkControllingIdea() {
	idea := c.s.Idea
	if idea == nil {
		return
	}
	if len(idea.Axes) == 0 {
		c.add("controlling_idea.axes", "controlling idea references no axes")
	}
	for i, axis := range idea.Axes {
		c.axisRef(fmt.Sprintf("controlling_idea.axes[%d]", i), axis)
	}
}

func (c *checker) checkFactions() {
	if c.s.Factions == nil {
		return
	}
	for i, f := range c.s.Factions.Factions {
		path := fmt.Sprintf("factions[%d]", i)
		for axis := range f.PositionOnAxes {
			c.axisRef(fmt.Sprintf("%s.position_on_axes.%s", path, axis), axis)
		}
		for j, figure := range f.KeyFigures {
			c.charRef(fmt.Sprintf("%s.key_figures[%d]", path, j), figure)
		}
	}
}

func (c *checker) checkCharacters() {
	if c.s.Roster == nil {
		return
	}
	for i, ch := range c.s.Roster.Characters {
		path := fmt.Sprintf("characters[%d]", i)
		for j, rel := range ch.Relationships {
			relPath := fmt.Sprintf("%s.relationships[%d]", path, j)
			c.charRef(relPath+".with", rel.With)
			if rel.With == ch.ID {
				c.add(relPath+".with", "character %q is related to itself", ch.ID)
			}
			if !rel.Kind.Valid() {
				c.add(relPath+".kind", "unknown relationship kind %q", rel.Kind)
			}
			c.axisRef(relPath+".axis", rel.Axis)
		}
		for j, affiliation := range ch.FactionAffiliations {
			c.factionRef(fmt.Sprintf("%s.faction_affiliations[%d]", path, j), affiliation)
		}
		for axis := range ch.PositionOnAxes {
			c.axisRef(fmt.Sprintf("%s.position_on_axes.%s", path, axis), axis)
		}
		if c.s.Universe != nil {
			want := ids.HashSeed(c.s.Universe.ID, string(ch.ID))
			if ch.DiffusionControl.Seed != want {
				c.add(path+".diffusion_control.seed",
					"seed %d is not the deterministic hash of (universe id, character id)", ch.DiffusionControl.Seed)
			}
		}
	}
}

func (c *checker) checkConflict() {
	matrix := c.s.Conflict
	if matrix == nil {
		return
	}
	for i, axis := range matrix.ConflictAxes {
		c.axisRef(fmt.Sprintf("conflict_matrix.conflict_axes[%d]", i), axis)
	}
	for i, p := range matrix.PairwisePressures {
		path := fmt.Sprintf("conflict_matrix.pairwise_pressures[%d]", i)
		if len(p.Characters) != 2 {
			c.add(path+".characters", "expected exactly 2 characters, got %d", len(p.Characters))
		} else if p.Characters[0] == p.Characters[1] {
			c.add(path+".characters", "pressure pairs character %q with itself", p.Characters[0])
		}
		for j, id := range p.Characters {
			c.charRef(fmt.Sprintf("%s.characters[%d]", path, j), id)
		}
		c.axisRef(path+".axis", p.Axis)
	}
	if n := len(matrix.EscalationLadder); n != models.EscalationTiers {
		c.add("conflict_matrix.escalation_ladder", "expected exactly %d tiers, got %d", models.EscalationTiers, n)
	}
}

func (c *checker) checkSeason() {
	arc := c.s.Season
	if arc == nil {
		return
	}
	c.axisRef("season_arc.inciting_incident.shift.axis", arc.IncitingIncident.Shift.Axis)
	if !arc.IncitingIncident.Shift.Turns() {
		c.add("season_arc.inciting_incident.shift", "value shift does not turn (%q -> %q)",
			arc.IncitingIncident.Shift.From, arc.IncitingIncident.Shift.To)
	}
	if n := len(arc.Acts); n != models.SeasonActs {
		c.add("season_arc.acts", "expected exactly %d acts, got %d", models.SeasonActs, n)
	}
	if len(arc.EpisodePromises) != arc.EpisodeCount {
		c.add("season_arc.episode_promises", "expected one promise per episode (%d), got %d",
			arc.EpisodeCount, len(arc.EpisodePromises))
	}
	for i, promise := range arc.EpisodePromises {
		path := fmt.Sprintf("season_arc.episode_promises[%d]", i)
		c.axisRef(path+".axis", promise.Axis)
		if promise.Act < 1 || promise.Act > models.SeasonActs {
			c.add(path+".act", "act %d outside [1, %d]", promise.Act, models.SeasonActs)
		}
		if promise.Episode < 1 || promise.Episode > arc.EpisodeCount {
			c.add(path+".episode", "episode %d outside [1, %d]", promise.Episode, arc.EpisodeCount)
		}
	}
}

func (c *checker) checkEpisodes() {
	if c.s.Season != nil && c.s.Episodes != nil && len(c.s.Episodes) != c.s.Season.EpisodeCount {
		c.add("episode_plans", "expected one plan per episode (%d), got %d",
			c.s.Season.EpisodeCount, len(c.s.Episodes))
	}
	for i, ep := range c.s.Episodes {
		path := fmt.Sprintf("episode_plans[%d]", i)
		c.charRef(path+".protagonist", ep.Protagonist)
		c.axisRef(path+".value_turn.axis", ep.ValueTurn.Axis)
		if !ep.ValueTurn.Turns() {
			c.add(path+".value_turn", "value shift does not turn (%q -> %q)", ep.ValueTurn.From, ep.ValueTurn.To)
		}
		for j, loc := range ep.Locations {
			c.locRef(fmt.Sprintf("%s.locations[%d]", path, j), loc)
		}
	}
}

func (c *checker) checkScenes() {
	if c.s.Episodes != nil && c.s.Scenes != nil {
		planned := make(map[int]bool, len(c.s.Episodes))
		for _, ep := range c.s.Episodes {
			planned[ep.Episode] = true
		}
		for i, plan := range c.s.Scenes {
			if !planned[plan.Episode] {
				c.add(fmt.Sprintf("scene_plans[%d].episode", i), "no episode plan for episode %d", plan.Episode)
			}
		}
	}
	for i, plan := range c.s.Scenes {
		for j, scene := range plan.Scenes {
			path := fmt.Sprintf("scene_plans[%d].scenes[%d]", i, j)
			c.locRef(path+".location", scene.Location)
			present := make(map[models.CharID]bool, len(scene.CharactersPresent))
			for k, id := range scene.CharactersPresent {
				c.charRef(fmt.Sprintf("%s.characters_present[%d]", path, k), id)
				present[id] = true
			}
			c.axisRef(path+".conflict_axis", scene.ConflictAxis)
			c.axisRef(path+".scene_value_shift.axis", scene.ValueShift.Axis)
			if !scene.ValueShift.Turns() {
				c.add(path+".scene_value_shift", "value shift does not turn (%q -> %q)",
					scene.ValueShift.From, scene.ValueShift.To)
			}
			c.checkRecasts(path, scene, present)
			c.checkBroll(path, scene, present)
		}
	}
}

func (c *checker) checkRecasts(path string, scene models.SceneUnit, present map[models.CharID]bool) {
	for k, recast := range scene.Recasts {
		recastPath := fmt.Sprintf("%s.scene_character_recasts[%d]", path, k)
		c.charRef(recastPath+".character", recast.Character)
		if !present[recast.Character] && c.characters[recast.Character] {
			c.add(recastPath+".character", "recast character %q is not present in the scene", recast.Character)
		}
		if len(recast.Traits) > models.MaxRecastTraits {
			c.add(recastPath+".traits", "expected at most %d traits, got %d", models.MaxRecastTraits, len(recast.Traits))
		}
	}
}

func (c *checker) checkBroll(path string, scene models.SceneUnit, present map[models.CharID]bool) {
	brief := scene.Broll
	briefPath := path + ".broll_image_brief"

	if len(brief.SubjectIDs) == 0 {
		c.add(briefPath+".subject_ids", "brief has no subjects")
	}
	if len(brief.SubjectIDs) > models.MaxBrollSubjects {
		c.add(briefPath+".subject_ids", "expected at most %d subjects, got %d", models.MaxBrollSubjects, len(brief.SubjectIDs))
	}
	for k, id := range brief.SubjectIDs {
		if !present[id] {
			c.add(fmt.Sprintf("%s.subject_ids[%d]", briefPath, k), "subject %q is not present in the scene", id)
		}
	}
	if brief.SubjectCount != len(brief.SubjectIDs) {
		c.add(briefPath+".subject_count", "subject_count %d does not equal len(subject_ids) %d",
			brief.SubjectCount, len(brief.SubjectIDs))
	}
	if !models.HasBrollKeywords(brief.Keywords) {
		c.add(briefPath+".keywords", "keywords %v are not exactly %v", brief.Keywords, models.BrollKeywords)
	}
}
