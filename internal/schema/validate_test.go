package schema

import (
	"strings"
	"testing"

	"github.com/even/showrunner/pkg/models"
)

func validUniversePayload() map[string]any {
	return map[string]any{
		"id":          "verdigris-court",
		"title":       "The Verdigris Court",
		"genres":      []any{"noir", "fantasy"},
		"tones":       []any{"melancholic"},
		"world_rules": []any{"oaths bind literally"},
		"value_spectrums": []any{
			map[string]any{"axis": "freedom_vs_control", "definition": "liberty against order"},
			map[string]any{"axis": "trust_vs_suspicion", "definition": "faith against doubt"},
		},
		"motifs":  []any{"verdigris"},
		"lexicon": []any{"the court"},
	}
}

func TestValidateUniverseOK(t *testing.T) {
	violations := Validate(SchemaUniverse, validUniversePayload())
	if len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	payload := validUniversePayload()
	delete(payload, "title")                  // missing required
	payload["id"] = "Not A Slug!"             // bad slug
	payload["surprise"] = "extra"             // unknown field
	payload["value_spectrums"] = []any{       // too few spectrums
		map[string]any{"axis": "freedom_vs_control", "definition": "d"},
	}

	violations := Validate(SchemaUniverse, payload)

	if len(violations) < 4 {
		t.Fatalf("expected at least 4 violations, got %d: %v", len(violations), violations)
	}

	wantPaths := []string{"$.title", "$.id", "$.surprise", "$.value_spectrums"}
	for _, want := range wantPaths {
		found := false
		for _, v := range violations {
			if v.Path == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no violation reported at %s; got %v", want, violations)
		}
	}
}

func TestValidateUnknownFieldRejected(t *testing.T) {
	payload := validUniversePayload()
	payload["vibe"] = "immaculate"

	violations := Validate(SchemaUniverse, payload)

	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", violations)
	}
	if violations[0].Path != "$.vibe" || violations[0].Reason != "unknown field" {
		t.Errorf("got %v, want unknown field at $.vibe", violations[0])
	}
}

func TestValidateDuplicateAxes(t *testing.T) {
	payload := validUniversePayload()
	payload["value_spectrums"] = []any{
		map[string]any{"axis": "freedom_vs_control", "definition": "a"},
		map[string]any{"axis": "freedom_vs_control", "definition": "b"},
	}

	violations := Validate(SchemaUniverse, payload)

	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Reason, "duplicate") {
		t.Errorf("expected duplicate axis violation, got %v", violations[0])
	}
}

func TestValidateSpectrumBounds(t *testing.T) {
	payload := validUniversePayload()
	spectrums := make([]any, 6)
	for i := range spectrums {
		spectrums[i] = map[string]any{
			"axis":       "axis-" + string(rune('a'+i)),
			"definition": "d",
		}
	}
	payload["value_spectrums"] = spectrums

	violations := Validate(SchemaUniverse, payload)
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Reason, "at most 5") {
		t.Errorf("expected count violation, got %v", violations[0])
	}
}

func TestValidateAxisPositionsRange(t *testing.T) {
	payload := map[string]any{
		"factions": []any{
			map[string]any{
				"id":       "iron-choir",
				"name":     "Iron Choir",
				"ideology": "order through song",
				"position_on_axes": map[string]any{
					"freedom_vs_control": float64(2), // out of range
				},
			},
			map[string]any{
				"id":       "salt-union",
				"name":     "Salt Union",
				"ideology": "free trade",
				"position_on_axes": map[string]any{
					"freedom_vs_control": float64(-0.5),
				},
			},
		},
	}

	violations := Validate(SchemaFactions, payload)
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Path, "position_on_axes.freedom_vs_control") {
		t.Errorf("violation at wrong path: %v", violations[0])
	}
}

func TestValidateEscalationLadderExactlyThree(t *testing.T) {
	payload := map[string]any{
		"conflict_axes": []any{"freedom_vs_control"},
		"pairwise_pressures": []any{
			map[string]any{
				"characters":  []any{"mira-voss", "joss-arden"},
				"axis":        "freedom_vs_control",
				"description": "they disagree about the curfew",
			},
		},
		"escalation_ladder": []any{
			map[string]any{"tier": float64(1), "stakes": "reputation", "irreversible": "a public accusation"},
			map[string]any{"tier": float64(2), "stakes": "livelihood", "irreversible": "a burned warehouse"},
		},
	}

	violations := Validate(SchemaConflictMatrix, payload)
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Path, "escalation_ladder") {
		t.Errorf("violation at wrong path: %v", violations[0])
	}
}

func TestValidatePressureCharactersDistinct(t *testing.T) {
	payload := map[string]any{
		"conflict_axes": []any{"freedom_vs_control"},
		"pairwise_pressures": []any{
			map[string]any{
				"characters":  []any{"mira-voss", "mira-voss"},
				"axis":        "freedom_vs_control",
				"description": "self-conflict is not pairwise",
			},
		},
		"escalation_ladder": []any{
			map[string]any{"tier": float64(1), "stakes": "s", "irreversible": "i"},
			map[string]any{"tier": float64(2), "stakes": "s", "irreversible": "i"},
			map[string]any{"tier": float64(3), "stakes": "s", "irreversible": "i"},
		},
	}

	violations := Validate(SchemaConflictMatrix, payload)
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Reason, "duplicate") {
		t.Errorf("expected duplicate character violation, got %v", violations[0])
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	violations := Validate("nonsense", map[string]any{})
	if len(violations) != 1 || !strings.Contains(violations[0].Reason, "unknown schema") {
		t.Errorf("got %v, want unknown schema violation", violations)
	}
}

func TestDecodeUniverse(t *testing.T) {
	var u models.Universe
	if err := Decode(validUniversePayload(), &u); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if u.ID != "verdigris-court" {
		t.Errorf("ID = %q, want verdigris-court", u.ID)
	}
	if len(u.ValueSpectrums) != 2 {
		t.Errorf("got %d spectrums, want 2", len(u.ValueSpectrums))
	}
	if u.ValueSpectrums[1].Axis != models.AxisID("trust_vs_suspicion") {
		t.Errorf("second axis = %q", u.ValueSpectrums[1].Axis)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	payload := validUniversePayload()
	payload["surprise"] = true

	var u models.Universe
	if err := Decode(payload, &u); err == nil {
		t.Error("expected decode error for unknown field")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		Schema: SchemaUniverse,
		Violations: []Violation{
			{Path: "$.title", Reason: "required field is missing"},
			{Path: "$.id", Reason: "id \"X\" is not a lowercase slug"},
		},
	}

	msg := err.Error()
	if !strings.Contains(msg, "2 violation(s)") {
		t.Errorf("message should carry the violation count: %q", msg)
	}
	if !strings.Contains(msg, "$.title") || !strings.Contains(msg, "$.id") {
		t.Errorf("message should list every violation: %q", msg)
	}
}
