package crucible

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func stateSortBatch(state *PipelineState, material *Material, geometry *Geometry) *PipelineBatch {
	source := &SourceBatch{
		Geometry:        geometry,
		Material:        material,
		WorldTransforms: []mgl32.Mat4{mgl32.Ident4()},
		GeometryType:    GeometryStatic,
	}
	batch := NewPipelineBatch(0, 0, source, state)
	return &batch
}

func TestSortBatchesByState_RenderOrderDominates(t *testing.T) {
	geometry := testGeometry("sort geometry")
	opaque := NewMaterial("opaque")
	late := NewMaterial("late")
	late.RenderOrder = 200
	state := testState("sort state")

	batches := []PipelineBatchByState{
		NewPipelineBatchByState(stateSortBatch(state, late, geometry)),
		NewPipelineBatchByState(stateSortBatch(state, opaque, geometry)),
		NewPipelineBatchByState(stateSortBatch(state, late, geometry)),
		NewPipelineBatchByState(stateSortBatch(state, opaque, geometry)),
	}
	SortBatchesByState(batches)

	// Render order owns the top key bits, so the default-order batches
	// come out first no matter what the object ids are.
	wantMaterials := []*Material{opaque, opaque, late, late}
	for i, want := range wantMaterials {
		if batches[i].Batch.Material != want {
			t.Fatalf("batch %d has material %q, want %q", i, batches[i].Batch.Material.Name, want.Name)
		}
	}
}

func TestSortBatchesByState_GroupsIdenticalState(t *testing.T) {
	geometry := testGeometry("group geometry")
	matA := NewMaterial("group a")
	matB := NewMaterial("group b")
	stateA := testState("group state a")
	stateB := testState("group state b")

	// Two interleaved state+material combinations. Their relative
	// order depends on the ids, but each combination must come out
	// adjacent so instancing can merge the runs.
	batches := []PipelineBatchByState{
		NewPipelineBatchByState(stateSortBatch(stateA, matA, geometry)),
		NewPipelineBatchByState(stateSortBatch(stateB, matB, geometry)),
		NewPipelineBatchByState(stateSortBatch(stateA, matA, geometry)),
		NewPipelineBatchByState(stateSortBatch(stateB, matB, geometry)),
	}
	SortBatchesByState(batches)

	if batches[0].Batch.Material != batches[1].Batch.Material {
		t.Errorf("first pair not grouped: %q then %q", batches[0].Batch.Material.Name, batches[1].Batch.Material.Name)
	}
	if batches[2].Batch.Material != batches[3].Batch.Material {
		t.Errorf("second pair not grouped: %q then %q", batches[2].Batch.Material.Name, batches[3].Batch.Material.Name)
	}
	if batches[0].Batch.Material == batches[2].Batch.Material {
		t.Errorf("both groups share a material, interleaving not exercised")
	}
}

func TestSortBatchesByState_TieBreakers(t *testing.T) {
	geometry := testGeometry("tie geometry")
	material := NewMaterial("tie material")
	state := testState("tie state")

	// The lightmap index outranks the pixel light index.
	lit := stateSortBatch(state, material, geometry)
	lit.LightmapIndex = 0
	lit.PixelLightIndex = 7
	mapped := stateSortBatch(state, material, geometry)
	mapped.LightmapIndex = 1
	mapped.PixelLightIndex = 0

	batches := []PipelineBatchByState{
		NewPipelineBatchByState(mapped),
		NewPipelineBatchByState(lit),
	}
	SortBatchesByState(batches)
	if batches[0].Batch != lit {
		t.Errorf("lightmap 1 sorted before lightmap 0")
	}

	// Equal primary keys fall back to the vertex lights hash.
	first := stateSortBatch(state, material, geometry)
	first.PixelLightIndex = 0
	first.VertexLightsHash = 5
	second := stateSortBatch(state, material, geometry)
	second.PixelLightIndex = 0
	second.VertexLightsHash = 3

	batches = []PipelineBatchByState{
		NewPipelineBatchByState(first),
		NewPipelineBatchByState(second),
	}
	SortBatchesByState(batches)
	if batches[0].Batch != second {
		t.Errorf("vertex lights hash 5 sorted before 3")
	}
}

func TestSortBatchesBackToFront(t *testing.T) {
	geometry := testGeometry("distance geometry")
	material := NewMaterial("distance material")
	state := testState("distance state")

	batchAt := func(distance float32) *PipelineBatch {
		b := stateSortBatch(state, material, geometry)
		b.Distance = distance
		return b
	}

	batches := []PipelineBatchBackToFront{
		NewPipelineBatchBackToFront(batchAt(5)),
		NewPipelineBatchBackToFront(batchAt(20)),
		NewPipelineBatchBackToFront(batchAt(10)),
	}
	SortBatchesBackToFront(batches)

	want := []float32{20, 10, 5}
	for i, distance := range want {
		if batches[i].Distance != distance {
			t.Fatalf("batch %d at distance %v, want %v", i, batches[i].Distance, distance)
		}
	}
}

func TestSortBatchesBackToFront_RenderOrderFirst(t *testing.T) {
	geometry := testGeometry("order geometry")
	state := testState("order state")

	underlay := NewMaterial("underlay")
	underlay.RenderOrder = 1
	normal := NewMaterial("normal")

	near := stateSortBatch(state, underlay, geometry)
	near.Distance = 1
	far := stateSortBatch(state, normal, geometry)
	far.Distance = 100

	batches := []PipelineBatchBackToFront{
		NewPipelineBatchBackToFront(far),
		NewPipelineBatchBackToFront(near),
	}
	SortBatchesBackToFront(batches)

	// The low render order renders first even though it is nearest.
	if batches[0].Batch != near {
		t.Errorf("render order 1 did not sort before distance %v", far.Distance)
	}
}
