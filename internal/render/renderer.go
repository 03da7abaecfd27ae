package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/even/showrunner/internal/ids"
	"github.com/even/showrunner/internal/pipeline"
	"github.com/even/showrunner/internal/report"
	"github.com/even/showrunner/pkg/models"
)

// Renderer renders a run's b-roll prompts into an images directory.
type Renderer struct {
	client   *Client
	workflow Workflow
	outDir   string
}

// NewRenderer creates a renderer writing into <outDir>/images.
func NewRenderer(client *Client, workflow Workflow, outDir string) *Renderer {
	return &Renderer{client: client, workflow: workflow, outDir: outDir}
}

// ImagePath returns where an episode/scene image lands.
func (r *Renderer) ImagePath(episode, scene int) string {
	return filepath.Join(r.outDir, "images", fmt.Sprintf("episode-%d-scene-%d.png", episode, scene))
}

// RenderSnapshot renders every scene in the snapshot's scene plans,
// seeding each render from the scene's first b-roll subject so repeat
// renders of a character stay visually stable. Scenes whose image
// already exists are skipped.
func (r *Renderer) RenderSnapshot(ctx context.Context, s pipeline.Snapshot) error {
	var prompts []SheetPrompt
	for _, plan := range s.Scenes {
		for _, scene := range plan.Scenes {
			prompts = append(prompts, SheetPrompt{
				Episode: plan.Episode,
				Scene:   scene.Scene,
				Prompt:  report.ComposePrompt(s, scene),
				Seed:    sceneSeed(s, plan.Episode, scene),
			})
		}
	}
	return r.renderPrompts(ctx, prompts)
}

// sceneSeed prefers the first b-roll subject's deterministic character
// seed; scenes without subjects fall back to an (episode, scene) hash.
func sceneSeed(s pipeline.Snapshot, episode int, scene models.SceneUnit) int32 {
	if s.Roster != nil {
		for _, id := range scene.Broll.SubjectIDs {
			if c := s.Roster.ByID(id); c != nil {
				return c.DiffusionControl.Seed
			}
		}
	}
	return ids.HashSeed("broll", strconv.Itoa(episode), strconv.Itoa(scene.Scene))
}

// RenderSheet renders prompts parsed from a broll-prompts.md file.
// Seeds are derived from (episode, scene) since the sheet carries no
// character identity.
func (r *Renderer) RenderSheet(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read prompt sheet: %w", err)
	}
	prompts := ParsePromptSheet(data)
	if len(prompts) == 0 {
		return fmt.Errorf("no prompts found in %s", path)
	}
	return r.renderPrompts(ctx, prompts)
}

func (r *Renderer) renderPrompts(ctx context.Context, prompts []SheetPrompt) error {
	if err := os.MkdirAll(filepath.Join(r.outDir, "images"), 0755); err != nil {
		return fmt.Errorf("create images directory: %w", err)
	}

	for _, p := range prompts {
		dest := r.ImagePath(p.Episode, p.Scene)
		if _, err := os.Stat(dest); err == nil {
			log.Printf("[render] episode %d scene %d already rendered, skipping", p.Episode, p.Scene)
			continue
		}
		if err := r.renderOne(ctx, p, dest); err != nil {
			return fmt.Errorf("episode %d scene %d: %w", p.Episode, p.Scene, err)
		}
		log.Printf("[render] episode %d scene %d -> %s", p.Episode, p.Scene, dest)
	}
	return nil
}

func (r *Renderer) renderOne(ctx context.Context, p SheetPrompt, dest string) error {
	w := r.workflow.Clone()
	if w == nil {
		return fmt.Errorf("clone workflow")
	}
	if err := w.SetPrompt(p.Prompt); err != nil {
		return err
	}
	w.SetSeed(p.Seed)

	id, err := r.client.Queue(ctx, w)
	if err != nil {
		return err
	}
	refs, err := r.client.Wait(ctx, id)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("render produced no images")
	}
	return r.client.Download(ctx, refs[0], dest)
}

// SheetPrompt is one renderable prompt, from a snapshot or a parsed
// prompt sheet.
type SheetPrompt struct {
	Episode int
	Scene   int
	Prompt  string
	Seed    int32
}

var (
	episodeHeading = regexp.MustCompile(`(?m)^# Episode (\d+) B-roll Prompts$`)
	scenePrompt    = regexp.MustCompile("(?s)## Scene (\\d+).*?```\n(.*?)\n```")
)

// ParsePromptSheet extracts prompts from a broll-prompts.md document:
// scenes grouped under "# Episode N B-roll Prompts" headings, each
// prompt fenced under its "## Scene N" heading.
func ParsePromptSheet(data []byte) []SheetPrompt {
	text := string(data)

	episodes := episodeHeading.FindAllStringSubmatchIndex(text, -1)
	episodeAt := func(offset int) int {
		ep := 1
		for _, m := range episodes {
			if m[0] > offset {
				break
			}
			n, err := strconv.Atoi(text[m[2]:m[3]])
			if err == nil {
				ep = n
			}
		}
		return ep
	}

	var out []SheetPrompt
	for _, m := range scenePrompt.FindAllStringSubmatchIndex(text, -1) {
		scene, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		episode := episodeAt(m[0])
		out = append(out, SheetPrompt{
			Episode: episode,
			Scene:   scene,
			Prompt:  text[m[4]:m[5]],
			Seed:    ids.HashSeed("broll", strconv.Itoa(episode), strconv.Itoa(scene)),
		})
	}
	return out
}
