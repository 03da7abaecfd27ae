package integrity

import (
	"errors"
	"strings"
	"testing"

	"github.com/even/showrunner/internal/ids"
	"github.com/even/showrunner/internal/pipeline"
	"github.com/even/showrunner/pkg/models"
)

const (
	axisFreedom = models.AxisID("freedom_vs_control")
	axisTrust   = models.AxisID("trust_vs_suspicion")
)

// validSnapshot builds a small but fully consistent context.
func validSnapshot() pipeline.Snapshot {
	universe := &models.Universe{
		ID:          "verdigris-court",
		Title:       "The Verdigris Court",
		Genres:      []string{"noir"},
		Tones:       []string{"melancholic"},
		WorldRules:  []string{"oaths bind literally"},
		Motifs:      []string{"verdigris"},
		Lexicon:     []string{"the court"},
		ValueSpectrums: []models.ValueSpectrum{
			{Axis: axisFreedom, Definition: "liberty against order"},
			{Axis: axisTrust, Definition: "faith against doubt"},
		},
		FactionsCatalog:  []models.FactionID{"iron-choir", "salt-union"},
		LocationsCatalog: []models.LocID{"dockside", "the-rookery", "mint-row", "old-baths", "gallows-green"},
	}

	charIDs := []models.CharID{"mira-voss", "joss-arden", "petra-hale", "callum-reed"}
	characters := make([]models.Character, len(charIDs))
	for i, id := range charIDs {
		other := charIDs[(i+1)%len(charIDs)]
		characters[i] = models.Character{
			ID:   id,
			Name: strings.ReplaceAll(string(id), "-", " "),
			Role: "ensemble",
			Relationships: []models.Relationship{
				{With: other, Kind: models.RelationshipAlly, Axis: axisTrust},
			},
			FactionAffiliations: []models.FactionID{"iron-choir"},
			PositionOnAxes:      map[models.AxisID]float64{axisFreedom: 0.2},
			VisualBible: models.VisualBible{
				ApparelCore:    []string{"long coat"},
				PhysicalTraits: []string{"tired eyes"},
			},
			DiffusionControl: models.DiffusionControl{
				Seed:       ids.HashSeed(universe.ID, string(id)),
				PromptCore: "portrait",
			},
		}
	}

	locIDs := universe.LocationsCatalog
	locations := make([]models.Location, len(locIDs))
	for i, id := range locIDs {
		locations[i] = models.Location{
			ID:                  id,
			Name:                string(id),
			Description:         "a place",
			SensoryDetails:      []string{"salt air"},
			BlockingAffordances: []string{"narrow stairs"},
			DiffusionGuide:      "wide shot",
		}
	}

	return pipeline.Snapshot{
		Concept:  "a noir court drama",
		Universe: universe,
		Idea: &models.ControllingIdea{
			Statement: "control bought with trust is still a cage",
			Axes:      []models.AxisID{axisFreedom},
		},
		Factions: &models.FactionsBundle{Factions: []models.Faction{
			{
				ID:             "iron-choir",
				Name:           "Iron Choir",
				Ideology:       "order through song",
				PositionOnAxes: map[models.AxisID]float64{axisFreedom: -0.8},
				KeyFigures:     charIDs,
			},
			{
				ID:             "salt-union",
				Name:           "Salt Union",
				Ideology:       "free trade",
				PositionOnAxes: map[models.AxisID]float64{axisFreedom: 0.7},
				KeyFigures:     []models.CharID{},
			},
		}},
		Roster:    &models.CharacterRoster{Characters: characters},
		Locations: &models.LocationsBundle{Locations: locations},
		Conflict: &models.ConflictMatrix{
			ConflictAxes: []models.AxisID{axisFreedom, axisTrust},
			PairwisePressures: []models.PairwisePressure{
				{Characters: []models.CharID{"mira-voss", "joss-arden"}, Axis: axisTrust, Description: "old debts"},
			},
			EscalationLadder: []models.EscalationTier{
				{Tier: 1, Stakes: "reputation", Irreversible: "a public accusation"},
				{Tier: 2, Stakes: "livelihood", Irreversible: "a burned warehouse"},
				{Tier: 3, Stakes: "lives", Irreversible: "a death on the docks"},
			},
		},
		Season: &models.SeasonArc{
			IncitingIncident: models.IncitingIncident{
				Description: "the mint is robbed",
				Shift:       models.ValueShift{Axis: axisTrust, From: "trusting", To: "suspicious"},
			},
			Acts: []models.Act{
				{Act: 1, Focus: "setup", Climax: "the accusation"},
				{Act: 2, Focus: "pressure", Climax: "the fire"},
				{Act: 3, Focus: "collapse", Climax: "the verdict"},
			},
			EpisodeCount: 2,
			EpisodePromises: []models.EpisodePromise{
				{Episode: 1, Axis: axisTrust, Act: 1, Turn: "trust cracks"},
				{Episode: 2, Axis: axisFreedom, Act: 2, Turn: "the curfew lands"},
			},
		},
		Episodes: []models.EpisodePlan{
			{
				Episode: 1, Title: "Salt in the Wound", Protagonist: "mira-voss",
				ValueTurn: models.ValueShift{Axis: axisTrust, From: "trusting", To: "suspicious"},
				Locations: []models.LocID{"dockside"}, Synopsis: "the robbery surfaces",
			},
			{
				Episode: 2, Title: "Curfew", Protagonist: "joss-arden",
				ValueTurn: models.ValueShift{Axis: axisFreedom, From: "free", To: "controlled"},
				Locations: []models.LocID{"mint-row"}, Synopsis: "the choir tightens its grip",
			},
		},
		Scenes: []models.ScenePlan{
			{
				Episode: 1,
				Scenes: []models.SceneUnit{
					{
						Scene:             1,
						Location:          "dockside",
						CharactersPresent: []models.CharID{"mira-voss", "joss-arden"},
						ConflictAxis:      axisTrust,
						ValueShift:        models.SceneValueShift{From: "trusting", To: "suspicious", Axis: axisTrust},
						Recasts: []models.SceneRecast{
							{Character: "mira-voss", Traits: []string{"wet hair"}, Avoid: []string{"clean"}},
						},
						Broll: models.BrollBrief{
							SubjectIDs:   []models.CharID{"mira-voss"},
							SubjectCount: 1,
							Keywords:     []string{"candid", "amateur"},
							Prompt:       "a figure on the docks",
						},
						Summary: "the body is found",
					},
				},
			},
		},
	}
}

func TestCheckValidContext(t *testing.T) {
	if err := CheckSnapshot(validSnapshot()); err != nil {
		t.Fatalf("expected valid context, got: %v", err)
	}
}

func TestCheckUnknownAxisInControllingIdea(t *testing.T) {
	s := validSnapshot()
	s.Idea.Axes = append(s.Idea.Axes, "c")

	err := CheckSnapshot(s)
	if err == nil {
		t.Fatal("expected integrity error")
	}
	var integrityErr *IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected *IntegrityError, got %T", err)
	}
	if len(integrityErr.Violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", integrityErr.Violations)
	}
	if !strings.Contains(integrityErr.Violations[0].Reason, `"c"`) {
		t.Errorf("violation should name the missing axis: %v", integrityErr.Violations[0])
	}
}

func TestCheckCollectsEveryViolation(t *testing.T) {
	s := validSnapshot()
	s.Idea.Axes = []models.AxisID{"ghost_axis"}
	s.Episodes[0].Protagonist = "nobody"
	s.Scenes[0].Scenes[0].ValueShift.To = s.Scenes[0].Scenes[0].ValueShift.From

	err := CheckSnapshot(s)
	var integrityErr *IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected *IntegrityError, got %T", err)
	}
	if len(integrityErr.Violations) != 3 {
		t.Errorf("expected 3 violations, got %d: %v", len(integrityErr.Violations), integrityErr.Violations)
	}
}

func TestCheckSceneShiftMustTurn(t *testing.T) {
	s := validSnapshot()
	s.Scenes[0].Scenes[0].ValueShift = models.SceneValueShift{From: "trusting", To: "trusting", Axis: axisTrust}

	err := CheckSnapshot(s)
	if err == nil || !strings.Contains(err.Error(), "does not turn") {
		t.Errorf("expected shift violation, got %v", err)
	}
}

func TestCheckBrollConstraints(t *testing.T) {
	s := validSnapshot()
	brief := &s.Scenes[0].Scenes[0].Broll
	brief.SubjectIDs = []models.CharID{"petra-hale"} // not present in the scene
	brief.SubjectCount = 2                           // wrong count
	brief.Keywords = []string{"cinematic", "4k"}     // wrong keywords

	err := CheckSnapshot(s)
	var integrityErr *IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected *IntegrityError, got %T", err)
	}
	if len(integrityErr.Violations) != 3 {
		t.Errorf("expected 3 violations, got %d: %v", len(integrityErr.Violations), integrityErr.Violations)
	}
}

func TestCheckKeyFigureResolution(t *testing.T) {
	s := validSnapshot()
	s.Factions.Factions[0].KeyFigures = append(s.Factions.Factions[0].KeyFigures, "the-stranger")

	err := CheckSnapshot(s)
	if err == nil || !strings.Contains(err.Error(), "the-stranger") {
		t.Errorf("expected key figure violation, got %v", err)
	}
}

func TestCheckSeedDeterminism(t *testing.T) {
	s := validSnapshot()
	s.Roster.Characters[0].DiffusionControl.Seed = 12345

	err := CheckSnapshot(s)
	if err == nil || !strings.Contains(err.Error(), "seed") {
		t.Errorf("expected seed violation, got %v", err)
	}
}

func TestCheckPartialRun(t *testing.T) {
	// Only the first three stages ran; nothing downstream should be
	// flagged and the axis references of what exists are still checked.
	s := pipeline.Snapshot{
		Concept:  "partial",
		Universe: validSnapshot().Universe,
		Idea:     &models.ControllingIdea{Statement: "s", Axes: []models.AxisID{axisFreedom}},
	}
	s.Universe.FactionsCatalog = nil
	s.Universe.LocationsCatalog = nil

	if err := CheckSnapshot(s); err != nil {
		t.Errorf("partial context should pass, got %v", err)
	}
}

func TestCheckPromiseCountMatchesEpisodeCount(t *testing.T) {
	s := validSnapshot()
	s.Season.EpisodePromises = s.Season.EpisodePromises[:1]

	err := CheckSnapshot(s)
	if err == nil || !strings.Contains(err.Error(), "one promise per episode") {
		t.Errorf("expected promise count violation, got %v", err)
	}
}
