package crucible

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewPipelineBatch(t *testing.T) {
	geometry := testGeometry("batch geometry")
	material := NewMaterial("batch material")
	state := testState("batch state")
	source := &SourceBatch{
		Distance:        7.5,
		Geometry:        geometry,
		Material:        material,
		WorldTransforms: []mgl32.Mat4{mgl32.Ident4()},
		LightmapIndex:   3,
		GeometryType:    GeometryBillboard,
	}

	batch := NewPipelineBatch(4, 2, source, state)
	if batch.DrawableIndex != 4 || batch.SourceBatchIndex != 2 {
		t.Errorf("indices = %d/%d, want 4/2", batch.DrawableIndex, batch.SourceBatchIndex)
	}
	if batch.Geometry != geometry || batch.Material != material || batch.PipelineState != state {
		t.Errorf("resolved resources do not match the source")
	}
	if batch.Distance != 7.5 || batch.LightmapIndex != 3 || batch.GeometryType != GeometryBillboard {
		t.Errorf("secondary fields not defaulted from the source: %+v", batch)
	}
	if batch.PixelLightIndex != InvalidIndex {
		t.Errorf("PixelLightIndex = %d, want unset", batch.PixelLightIndex)
	}
	if batch.Source != source {
		t.Errorf("Source pointer lost")
	}
}

func TestLightAccumulator_VertexLightsHash(t *testing.T) {
	// An accumulator without lights hashes to zero: every InvalidIndex
	// slot contributes index+1 = 0.
	empty := NewLightAccumulator()
	if got := empty.VertexLightsHash(); got != 0 {
		t.Errorf("empty hash = %d, want 0", got)
	}

	a := NewLightAccumulator()
	a.VertexLights[0] = 1
	a.VertexLights[1] = 2

	same := NewLightAccumulator()
	same.VertexLights[0] = 1
	same.VertexLights[1] = 2
	if a.VertexLightsHash() != same.VertexLightsHash() {
		t.Errorf("equal assignments hash differently")
	}
	if a.VertexLightsHash() == empty.VertexLightsHash() {
		t.Errorf("assigned lights hash like no lights")
	}

	// Slot order matters: the shader reads lights positionally.
	swapped := NewLightAccumulator()
	swapped.VertexLights[0] = 2
	swapped.VertexLights[1] = 1
	if a.VertexLightsHash() == swapped.VertexLightsHash() {
		t.Errorf("swapped assignments hash the same")
	}
}
