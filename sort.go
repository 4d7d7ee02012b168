package crucible

import "slices"

// Primary key layout of state-sorted batches, from least to most
// important bits.
const (
	pixelLightBits    = 8
	lightmapBits      = 8
	materialBits      = 16
	pipelineStateBits = 8
	shaderProgramBits = 16
	renderOrderBits   = 8

	pixelLightMask    uint64 = 1<<pixelLightBits - 1
	lightmapMask      uint64 = 1<<lightmapBits - 1
	materialMask      uint64 = 1<<materialBits - 1
	pipelineStateMask uint64 = 1<<pipelineStateBits - 1
	shaderProgramMask uint64 = 1<<shaderProgramBits - 1
	renderOrderMask   uint64 = 1<<renderOrderBits - 1

	pixelLightOffset    = 0
	lightmapOffset      = pixelLightOffset + pixelLightBits
	materialOffset      = lightmapOffset + lightmapBits
	pipelineStateOffset = materialOffset + materialBits
	shaderProgramOffset = pipelineStateOffset + pipelineStateBits
	renderOrderOffset   = shaderProgramOffset + shaderProgramBits
)

// Secondary key layout, from least to most important bits.
const (
	reservedBits     = 16
	vertexLightsBits = 24
	geometryBits     = 24

	vertexLightsMask uint64 = 1<<vertexLightsBits - 1
	geometryMask     uint64 = 1<<geometryBits - 1

	reservedOffset     = 0
	vertexLightsOffset = reservedOffset + reservedBits
	geometryOffset     = vertexLightsOffset + vertexLightsBits
)

// PipelineBatchByState is a batch wrapped with precomputed sort keys
// that group batches by render order, shader program, pipeline state,
// material, lightmap and light, so that rendering in sorted order
// minimizes state switches and maximizes instancing runs.
type PipelineBatchByState struct {
	PrimaryKey   uint64
	SecondaryKey uint64
	Batch        *PipelineBatch
}

func NewPipelineBatchByState(batch *PipelineBatch) PipelineBatchByState {
	var primary uint64
	primary |= (uint64(batch.Material.RenderOrder) & renderOrderMask) << renderOrderOffset
	primary |= (uint64(batch.PipelineState.ShaderID()) & shaderProgramMask) << shaderProgramOffset
	primary |= (uint64(batch.PipelineState.ObjectID()) & pipelineStateMask) << pipelineStateOffset
	primary |= (uint64(batch.Material.ObjectID()) & materialMask) << materialOffset
	primary |= (uint64(batch.LightmapIndex) & lightmapMask) << lightmapOffset
	primary |= (uint64(batch.PixelLightIndex) & pixelLightMask) << pixelLightOffset

	var secondary uint64
	secondary |= (uint64(batch.Geometry.ObjectID()) & geometryMask) << geometryOffset
	secondary |= (uint64(batch.VertexLightsHash) & vertexLightsMask) << vertexLightsOffset

	return PipelineBatchByState{PrimaryKey: primary, SecondaryKey: secondary, Batch: batch}
}

func compareByState(a, b PipelineBatchByState) int {
	if a.PrimaryKey != b.PrimaryKey {
		if a.PrimaryKey < b.PrimaryKey {
			return -1
		}
		return 1
	}
	switch {
	case a.SecondaryKey < b.SecondaryKey:
		return -1
	case a.SecondaryKey > b.SecondaryKey:
		return 1
	}
	return 0
}

// SortBatchesByState orders batches for minimal state switching.
func SortBatchesByState(batches []PipelineBatchByState) {
	slices.SortFunc(batches, compareByState)
}

// PipelineBatchBackToFront is a batch wrapped with its sorting
// distance, for transparent rendering: render order first, then far
// to near.
type PipelineBatchBackToFront struct {
	RenderOrder uint8
	Distance    float32
	Batch       *PipelineBatch
}

func NewPipelineBatchBackToFront(batch *PipelineBatch) PipelineBatchBackToFront {
	return PipelineBatchBackToFront{
		RenderOrder: batch.Material.RenderOrder,
		Distance:    batch.Distance,
		Batch:       batch,
	}
}

func compareBackToFront(a, b PipelineBatchBackToFront) int {
	if a.RenderOrder != b.RenderOrder {
		if a.RenderOrder < b.RenderOrder {
			return -1
		}
		return 1
	}
	switch {
	case a.Distance > b.Distance:
		return -1
	case a.Distance < b.Distance:
		return 1
	}
	return 0
}

// SortBatchesBackToFront orders batches for transparent rendering.
func SortBatchesBackToFront(batches []PipelineBatchBackToFront) {
	slices.SortFunc(batches, compareBackToFront)
}
