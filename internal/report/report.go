// Package report renders a finished context into human-readable
// outputs: a series bible, the b-roll prompt sheet the image generator
// consumes, and a YAML export of the full context.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/even/showrunner/internal/pipeline"
	"github.com/even/showrunner/pkg/models"
)

// Output file names within a run directory.
const (
	SeriesBibleFile  = "series-bible.md"
	BrollPromptsFile = "broll-prompts.md"
	ContextYAMLFile  = "context.yaml"
)

// WriteAll renders every report into dir.
func WriteAll(dir string, s pipeline.Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	files := map[string]func(pipeline.Snapshot) ([]byte, error){
		SeriesBibleFile:  func(s pipeline.Snapshot) ([]byte, error) { return []byte(SeriesBible(s)), nil },
		BrollPromptsFile: func(s pipeline.Snapshot) ([]byte, error) { return []byte(BrollPrompts(s)), nil },
		ContextYAMLFile:  ExportYAML,
	}
	for name, render := range files {
		data, err := render(s)
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// ExportYAML serializes the context snapshot as YAML.
func ExportYAML(s pipeline.Snapshot) ([]byte, error) {
	return yaml.Marshal(s)
}

// SeriesBible renders the full entity graph as a markdown document.
// Entities from stages that have not run yet are simply omitted.
func SeriesBible(s pipeline.Snapshot) string {
	var b strings.Builder

	if s.Universe != nil {
		u := s.Universe
		fmt.Fprintf(&b, "# %s\n\n", u.Title)
		fmt.Fprintf(&b, "**Genres:** %s  \n", strings.Join(u.Genres, ", "))
		fmt.Fprintf(&b, "**Tones:** %s\n\n", strings.Join(u.Tones, ", "))
		b.WriteString("## World Rules\n\n")
		for _, rule := range u.WorldRules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
		b.WriteString("\n## Value Spectrums\n\n")
		for _, vs := range u.ValueSpectrums {
			fmt.Fprintf(&b, "- **%s** — %s\n", vs.Axis, vs.Definition)
		}
		b.WriteString("\n")
	}

	if s.Idea != nil {
		b.WriteString("## Controlling Idea\n\n")
		fmt.Fprintf(&b, "> %s\n\n", s.Idea.Statement)
		if s.Idea.Counterargument != "" {
			fmt.Fprintf(&b, "Counterargument: %s\n\n", s.Idea.Counterargument)
		}
	}

	if s.Factions != nil {
		b.WriteString("## Factions\n\n")
		for _, f := range s.Factions.Factions {
			fmt.Fprintf(&b, "### %s (`%s`)\n\n", f.Name, f.ID)
			fmt.Fprintf(&b, "%s\n\n", f.Ideology)
			writeAxisPositions(&b, f.PositionOnAxes)
			if len(f.KeyFigures) > 0 {
				fmt.Fprintf(&b, "Key figures: %s\n\n", joinCharIDs(f.KeyFigures))
			}
		}
	}

	if s.Roster != nil {
		b.WriteString("## Characters\n\n")
		for _, c := range s.Roster.Characters {
			fmt.Fprintf(&b, "### %s (`%s`)\n\n", c.Name, c.ID)
			fmt.Fprintf(&b, "**Role:** %s  \n", c.Role)
			if c.Want != "" {
				fmt.Fprintf(&b, "**Want:** %s  \n", c.Want)
			}
			if c.Need != "" {
				fmt.Fprintf(&b, "**Need:** %s  \n", c.Need)
			}
			fmt.Fprintf(&b, "**Seed:** %d\n\n", c.DiffusionControl.Seed)
			if len(c.Relationships) > 0 {
				for _, rel := range c.Relationships {
					fmt.Fprintf(&b, "- %s of `%s` (on %s)\n", rel.Kind, rel.With, rel.Axis)
				}
				b.WriteString("\n")
			}
			if len(c.VisualBible.ApparelCore) > 0 {
				fmt.Fprintf(&b, "Look: %s; %s\n\n",
					strings.Join(c.VisualBible.ApparelCore, ", "),
					strings.Join(c.VisualBible.PhysicalTraits, ", "))
			}
		}
	}

	if s.Locations != nil {
		b.WriteString("## Locations\n\n")
		for _, l := range s.Locations.Locations {
			fmt.Fprintf(&b, "### %s (`%s`)\n\n%s\n\n", l.Name, l.ID, l.Description)
		}
	}

	if s.Conflict != nil {
		b.WriteString("## Conflict\n\n")
		for _, p := range s.Conflict.PairwisePressures {
			fmt.Fprintf(&b, "- `%s` vs `%s` on %s: %s\n", p.Characters[0], p.Characters[1], p.Axis, p.Description)
		}
		b.WriteString("\nEscalation:\n\n")
		for _, tier := range s.Conflict.EscalationLadder {
			fmt.Fprintf(&b, "%d. Stakes: %s. Irreversible: %s\n", tier.Tier, tier.Stakes, tier.Irreversible)
		}
		b.WriteString("\n")
	}

	if s.Season != nil {
		b.WriteString("## Season Arc\n\n")
		fmt.Fprintf(&b, "Inciting incident: %s (%s: %s → %s)\n\n",
			s.Season.IncitingIncident.Description,
			s.Season.IncitingIncident.Shift.Axis,
			s.Season.IncitingIncident.Shift.From,
			s.Season.IncitingIncident.Shift.To)
		for _, act := range s.Season.Acts {
			fmt.Fprintf(&b, "- Act %d — %s. Climax: %s\n", act.Act, act.Focus, act.Climax)
		}
		b.WriteString("\n")
	}

	if s.Episodes != nil {
		b.WriteString("## Episodes\n\n")
		for _, ep := range s.Episodes {
			fmt.Fprintf(&b, "### Episode %d: %s\n\n", ep.Episode, ep.Title)
			fmt.Fprintf(&b, "Protagonist: `%s`. Turn: %s (%s → %s).\n\n%s\n\n",
				ep.Protagonist, ep.ValueTurn.Axis, ep.ValueTurn.From, ep.ValueTurn.To, ep.Synopsis)
		}
	}

	return b.String()
}

// BrollPrompts renders the prompt sheet the image generator parses: one
// "# Episode N B-roll Prompts" section per planned episode, each scene
// under "## Scene N" with its composed prompt in a fenced block. The
// heading shapes are load-bearing; downstream tooling matches on them.
func BrollPrompts(s pipeline.Snapshot) string {
	var b strings.Builder
	for _, plan := range s.Scenes {
		fmt.Fprintf(&b, "# Episode %d B-roll Prompts\n\n", plan.Episode)
		for _, scene := range plan.Scenes {
			fmt.Fprintf(&b, "## Scene %d\n\n", scene.Scene)
			fmt.Fprintf(&b, "```\n%s\n```\n\n", ComposePrompt(s, scene))
		}
	}
	return b.String()
}

// ComposePrompt builds one scene's full diffusion prompt: the brief's
// prompt, each subject's fixed prompt core, the location's diffusion
// guide, and the style keywords.
func ComposePrompt(s pipeline.Snapshot, scene models.SceneUnit) string {
	parts := []string{strings.TrimSpace(scene.Broll.Prompt)}

	if s.Roster != nil {
		for _, id := range scene.Broll.SubjectIDs {
			if c := s.Roster.ByID(id); c != nil && c.DiffusionControl.PromptCore != "" {
				parts = append(parts, c.DiffusionControl.PromptCore)
			}
		}
	}
	if s.Locations != nil {
		for _, l := range s.Locations.Locations {
			if l.ID == scene.Location && l.DiffusionGuide != "" {
				parts = append(parts, l.DiffusionGuide)
				break
			}
		}
	}
	parts = append(parts, strings.Join(scene.Broll.Keywords, ", "))

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func writeAxisPositions(b *strings.Builder, positions map[models.AxisID]float64) {
	if len(positions) == 0 {
		return
	}
	axes := make([]string, 0, len(positions))
	for axis := range positions {
		axes = append(axes, string(axis))
	}
	sort.Strings(axes)
	for _, axis := range axes {
		fmt.Fprintf(b, "- %s: %+.1f\n", axis, positions[models.AxisID(axis)])
	}
	b.WriteString("\n")
}

func joinCharIDs(ids []models.CharID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "`" + string(id) + "`"
	}
	return strings.Join(out, ", ")
}
