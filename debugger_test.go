package crucible

import (
	"fmt"
	"strings"
	"testing"
)

func snapshotFrame(lights ...*SceneLight) *FrameData {
	return &FrameData{Scene: &stubScene{}, Lights: lights}
}

func TestRenderDebugger_NilIsInactive(t *testing.T) {
	var debugger *RenderDebugger
	if debugger.SnapshotInProgress() {
		t.Fatal("nil debugger reports a snapshot in progress")
	}
}

func TestRenderDebugger_Lifecycle(t *testing.T) {
	debugger := NewRenderDebugger()
	if debugger.SnapshotInProgress() {
		t.Fatal("snapshot in progress before BeginSnapshot")
	}

	frame := snapshotFrame()
	state := testState("lifecycle state")
	material := NewMaterial("lifecycle material")
	geometry := testGeometry("lifecycle geometry")
	batch := sceneBatch(0, state, material, geometry)

	debugger.BeginSnapshot()
	if !debugger.SnapshotInProgress() {
		t.Fatal("snapshot not in progress after BeginSnapshot")
	}

	debugger.BeginPass("shadow")
	debugger.ReportSceneBatch(NewDebugFrameSnapshotBatch(frame, batch, true))

	// Starting the next pass closes the previous one.
	debugger.BeginPass("base")
	debugger.ReportSceneBatch(NewDebugFrameSnapshotBatch(frame, batch, true))
	debugger.ReportQuad("fxaa", 800, 600)
	debugger.EndPass()
	debugger.EndSnapshot()

	if debugger.SnapshotInProgress() {
		t.Fatal("snapshot still in progress after EndSnapshot")
	}

	snapshot := debugger.Snapshot()
	if len(snapshot.Passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(snapshot.Passes))
	}
	if snapshot.Passes[0].Name != "shadow" || snapshot.Passes[1].Name != "base" {
		t.Errorf("pass names = %q, %q", snapshot.Passes[0].Name, snapshot.Passes[1].Name)
	}
	if len(snapshot.Passes[1].Batches) != 1 || len(snapshot.Passes[1].Quads) != 1 {
		t.Errorf("base pass has %d batches and %d quads",
			len(snapshot.Passes[1].Batches), len(snapshot.Passes[1].Quads))
	}

	// A new snapshot starts clean.
	debugger.BeginSnapshot()
	if len(debugger.Snapshot().Passes) != 0 {
		t.Error("BeginSnapshot kept passes of the previous snapshot")
	}
}

func TestRenderDebugger_ReportWithoutPass(t *testing.T) {
	debugger := NewRenderDebugger()
	debugger.BeginSnapshot()

	batch := sceneBatch(0, testState("stray state"), NewMaterial("stray material"), testGeometry("stray geometry"))
	debugger.ReportSceneBatch(NewDebugFrameSnapshotBatch(snapshotFrame(), batch, true))

	passes := debugger.Snapshot().Passes
	if len(passes) != 1 || passes[0].Name != "Unnamed" {
		t.Fatalf("stray batch not collected into an Unnamed pass: %+v", passes)
	}
}

func TestDebugFrameSnapshotBatch_String(t *testing.T) {
	state := testState("snap state")
	material := NewMaterial("snap material")
	geometry := testGeometry("snap geometry")

	sun := NewLight(LightDirectional)
	sun.Name = "sun"
	frame := snapshotFrame(NewSceneLight(sun))

	batch := sceneBatch(0, state, material, geometry)
	batch.PixelLightIndex = 0
	batch.Distance = 7.5

	snap := NewDebugFrameSnapshotBatch(frame, batch, true)
	want := fmt.Sprintf("* 4v 2t [snap geometry].0 with material [snap material] lit with [sun] "+
		"(distance=7.50 state=%d geometry=%d material=%d)",
		state.ObjectID(), geometry.ObjectID(), material.ObjectID())
	if got := snap.String(); got != want {
		t.Errorf("batch line:\n got %q\nwant %q", got, want)
	}

	// Continuation batches use the dot bullet; unnamed lights fall back
	// to their index.
	sun.Name = ""
	snap = NewDebugFrameSnapshotBatch(frame, batch, false)
	got := snap.String()
	if !strings.HasPrefix(got, ". ") {
		t.Errorf("continuation bullet missing: %q", got)
	}
	if !strings.Contains(got, "[light 0]") {
		t.Errorf("unnamed light not reported by index: %q", got)
	}

	// Unlit batches report a null light.
	batch.PixelLightIndex = InvalidIndex
	snap = NewDebugFrameSnapshotBatch(frame, batch, false)
	if got := snap.String(); !strings.Contains(got, "lit with [null]") {
		t.Errorf("unlit batch line: %q", got)
	}
}

func TestDebugFrameSnapshotBatch_LightVolume(t *testing.T) {
	light := NewLight(LightPoint)
	light.Name = "lamp"
	frame := snapshotFrame(NewSceneLight(light))

	batch := &PipelineBatch{
		PixelLightIndex: 0,
		PipelineState:   testState("volume snap state"),
		Material:        NewMaterial("volume snap material"),
		Geometry:        testGeometry("volume snap geometry"),
	}

	snap := NewDebugFrameSnapshotBatch(frame, batch, true)
	if !snap.LightVolume {
		t.Fatal("batch without source not marked as light volume")
	}
	if got := snap.String(); !strings.Contains(got, "Light volume geometry for [lamp]") {
		t.Errorf("light volume line: %q", got)
	}
}

func TestDebugFrameSnapshotQuad_String(t *testing.T) {
	sized := DebugFrameSnapshotQuad{Comment: "deferred resolve", Width: 800, Height: 600}
	if got := sized.String(); got != "+ [quad 800x600] deferred resolve" {
		t.Errorf("sized quad line: %q", got)
	}

	bare := DebugFrameSnapshotQuad{Comment: "ssao"}
	if got := bare.String(); got != "+ [quad] ssao" {
		t.Errorf("bare quad line: %q", got)
	}
}

func TestDebugFrameSnapshotPass_Summary(t *testing.T) {
	frame := snapshotFrame()
	batch := sceneBatch(0, testState("summary state"), NewMaterial("summary material"), testGeometry("summary geometry"))

	pass := DebugFrameSnapshotPass{
		Name:    "base",
		Batches: []DebugFrameSnapshotBatch{NewDebugFrameSnapshotBatch(frame, batch, true)},
		Quads:   []DebugFrameSnapshotQuad{{Comment: "resolve"}},
	}

	// One 4-vertex 2-triangle batch plus the implicit 4v/2t of a quad.
	out := pass.String()
	if !strings.HasPrefix(out, "Pass base - 2b 8v 4t:\n\n") {
		t.Errorf("pass summary: %q", out)
	}
}

func TestDebugFrameSnapshot_SceneSections(t *testing.T) {
	debugger := NewRenderDebugger()
	debugger.BeginSnapshot()
	debugger.BeginPass("base")

	frame := snapshotFrame()
	state := testState("section state")
	geometry := testGeometry("section geometry")
	first := sceneBatch(0, state, NewMaterial("section material a"), geometry)
	second := sceneBatch(1, state, NewMaterial("section material b"), geometry)

	debugger.ReportSceneBatch(NewDebugFrameSnapshotBatch(frame, first, true))
	debugger.ReportSceneBatch(NewDebugFrameSnapshotBatch(frame, second, true))
	debugger.EndPass()
	debugger.EndSnapshot()

	report := debugger.Snapshot().String()
	for _, want := range []string{
		"Pipeline states in scene (1)",
		"Materials in scene (2)",
		"Shaders in scene (2)",
		"VS=LitSolid PS=LitSolid",
		"section material a",
		"section material b",
		"- [VS]LitSolid",
		"- [PS]LitSolid",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report is missing %q:\n%s", want, report)
		}
	}
}
