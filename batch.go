package crucible

import "github.com/go-gl/mathgl/mgl32"

// InvalidIndex marks an unset index slot, such as a batch without a
// pixel light or an empty vertex light entry.
const InvalidIndex = ^uint32(0)

// SourceBatch is one renderable part as submitted by the scene: the
// geometry and material of a drawable piece together with its world
// transforms. Skinned and instanced parts carry more than one
// transform.
type SourceBatch struct {
	Distance            float32
	Geometry            *Geometry
	Material            *Material
	WorldTransforms     []mgl32.Mat4
	LightmapScaleOffset *mgl32.Vec4
	LightmapIndex       uint32
	GeometryType        GeometryType
}

// PipelineBatch is a source batch resolved against a specific pipeline
// state and light configuration, ready for sorting and rendering.
type PipelineBatch struct {
	DrawableIndex    uint32
	SourceBatchIndex uint32
	PixelLightIndex  uint32
	VertexLightsHash uint32
	LightmapIndex    uint32
	Distance         float32
	PipelineState    *PipelineState
	Material         *Material
	Geometry         *Geometry
	GeometryType     GeometryType
	Source           *SourceBatch
}

// NewPipelineBatch resolves a source batch against a pipeline state,
// defaulting the secondary fields from the source. Light assignments
// stay unset.
func NewPipelineBatch(drawableIndex, sourceBatchIndex uint32, source *SourceBatch, pipelineState *PipelineState) PipelineBatch {
	return PipelineBatch{
		DrawableIndex:    drawableIndex,
		SourceBatchIndex: sourceBatchIndex,
		PixelLightIndex:  InvalidIndex,
		LightmapIndex:    source.LightmapIndex,
		Distance:         source.Distance,
		PipelineState:    pipelineState,
		Material:         source.Material,
		Geometry:         source.Geometry,
		GeometryType:     source.GeometryType,
		Source:           source,
	}
}

// LightAccumulator is the per-drawable result of light accumulation:
// baked and ambient light folded into spherical harmonics plus the
// indices of the strongest per-vertex lights.
type LightAccumulator struct {
	SphericalHarmonics SphericalHarmonicsDot9
	VertexLights       [MaxVertexLights]uint32
}

func NewLightAccumulator() LightAccumulator {
	acc := LightAccumulator{}
	for i := range acc.VertexLights {
		acc.VertexLights[i] = InvalidIndex
	}
	return acc
}

// VertexLightsHash folds the vertex light assignment into a single
// value used for batch sorting, so batches lit by the same set sort
// together.
func (a *LightAccumulator) VertexLightsHash() uint32 {
	hash := uint32(0)
	for _, index := range a.VertexLights {
		hash = hash*31 + index + 1
	}
	return hash
}

// Scene is the minimal scene access the renderer needs while emitting
// draw commands.
type Scene interface {
	// ElapsedTime returns the total scene time in seconds.
	ElapsedTime() float32
	// LightmapTexture returns the baked lightmap with the given index,
	// or nil if there is none.
	LightmapTexture(index uint32) *Texture
}

// FrameData carries the per-frame inputs shared by every batch
// rendered in a frame: the time step, the scene, the cooked lights,
// and the per-drawable light accumulation. Lighting is indexed by
// drawable index and may be nil when no batch uses ambient or vertex
// lighting.
type FrameData struct {
	TimeStep float32
	Scene    Scene
	Lights   []*SceneLight
	Lighting []LightAccumulator
}
