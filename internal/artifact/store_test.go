package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/even/showrunner/internal/pipeline"
	"github.com/even/showrunner/internal/retry"
	"github.com/even/showrunner/pkg/models"
)

func TestStoreWriteAndLoad(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	in := map[string]any{"id": "verdigris-court", "title": "The Verdigris Court"}
	if err := store.Write("universe", in); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !store.Has("universe") {
		t.Error("Has should report the written artifact")
	}

	var out map[string]any
	if err := store.Load("universe", &out); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out["id"] != "verdigris-court" {
		t.Errorf("loaded id = %v, want verdigris-court", out["id"])
	}
}

func TestStoreOverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Write("context", map[string]any{"round": i}); err != nil {
			t.Fatalf("Write round %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "context.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected only context.json, got %v", names)
	}
}

func TestLoadSnapshotRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.LoadSnapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("empty store: want ErrNoSnapshot, got %v", err)
	}

	c := pipeline.NewContext("a noir court drama")
	snap := c.Snapshot()
	snap.Universe = &models.Universe{
		ID:    "verdigris-court",
		Title: "The Verdigris Court",
		ValueSpectrums: []models.ValueSpectrum{
			{Axis: "freedom_vs_control", Definition: "liberty against order"},
			{Axis: "trust_vs_suspicion", Definition: "faith against doubt"},
		},
	}
	if err := store.Write(SnapshotKey, snap); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Concept != "a noir court drama" {
		t.Errorf("concept = %q", loaded.Concept)
	}
	if loaded.Universe == nil || loaded.Universe.ID != "verdigris-court" {
		t.Errorf("universe not restored: %+v", loaded.Universe)
	}

	resumed := pipeline.FromSnapshot(loaded)
	if resumed.CompletedStages() != 1 {
		t.Errorf("CompletedStages = %d, want 1", resumed.CompletedStages())
	}
}

func TestLedgerRunLifecycle(t *testing.T) {
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenLedger failed: %v", err)
	}
	defer ledger.Close()

	runID, err := ledger.StartRun("a noir court drama")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	for i, name := range []string{"universe", "controlling_idea"} {
		rec := pipeline.StageRecord{
			Stage:    i,
			Name:     name,
			Attempts: retry.Log{{Number: 1, Duration: time.Second}},
			Elapsed:  2 * time.Second,
		}
		if err := ledger.RecordStage(runID, rec); err != nil {
			t.Fatalf("RecordStage %s failed: %v", name, err)
		}
	}
	if err := ledger.FinishRun(runID, RunStatusComplete); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := ledger.Runs()
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != runID || run.Status != RunStatusComplete || run.Stages != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("finished run should carry a finish time")
	}

	stages, err := ledger.RunStages(runID)
	if err != nil {
		t.Fatalf("RunStages failed: %v", err)
	}
	if len(stages) != 2 || stages[0].Name != "universe" || stages[1].Name != "controlling_idea" {
		t.Errorf("unexpected stages: %+v", stages)
	}
	if stages[0].Elapsed != 2*time.Second {
		t.Errorf("elapsed = %v, want 2s", stages[0].Elapsed)
	}
}

func TestLedgerStageUpsert(t *testing.T) {
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenLedger failed: %v", err)
	}
	defer ledger.Close()

	runID, err := ledger.StartRun("concept")
	if err != nil {
		t.Fatal(err)
	}

	rec := pipeline.StageRecord{Stage: 0, Name: "universe", Attempts: retry.Log{{Number: 1}}, Elapsed: time.Second}
	if err := ledger.RecordStage(runID, rec); err != nil {
		t.Fatal(err)
	}
	rec.Attempts = retry.Log{{Number: 1}, {Number: 2}}
	rec.Elapsed = 3 * time.Second
	if err := ledger.RecordStage(runID, rec); err != nil {
		t.Fatal(err)
	}

	stages, err := ledger.RunStages(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 1 {
		t.Fatalf("expected 1 stage row, got %d", len(stages))
	}
	if stages[0].Attempts != 2 || stages[0].Elapsed != 3*time.Second {
		t.Errorf("upsert did not replace: %+v", stages[0])
	}
}
