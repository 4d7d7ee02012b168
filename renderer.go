package crucible

import "github.com/go-gl/mathgl/mgl32"

// AmbientMode selects how per-object ambient light reaches shaders.
type AmbientMode uint8

const (
	// AmbientConstant leaves ambient to the camera constant alone.
	AmbientConstant AmbientMode = iota
	// AmbientFlat sends one averaged ambient color per object.
	AmbientFlat
	// AmbientDirectional sends full spherical harmonics per object.
	AmbientDirectional
)

func (m AmbientMode) String() string {
	switch m {
	case AmbientConstant:
		return "constant"
	case AmbientFlat:
		return "flat"
	case AmbientDirectional:
		return "directional"
	}
	return "unknown"
}

// BatchRenderFlags select the lighting inputs and optimizations of one
// batch sequence.
type BatchRenderFlags uint32

const (
	BatchRenderAmbientLight BatchRenderFlags = 1 << iota
	BatchRenderVertexLights
	BatchRenderPixelLight
	BatchRenderStaticInstancing
)

func (f BatchRenderFlags) Has(flag BatchRenderFlags) bool {
	return f&flag != 0
}

type BatchRendererSettings struct {
	// GammaCorrection switches the shader pipeline to linear-space
	// lighting; colors stored in gamma space are converted on upload.
	GammaCorrection bool
	AmbientMode     AmbientMode
	// VSMShadowParams holds variance shadow map bias parameters.
	VSMShadowParams mgl32.Vec2
}

func DefaultBatchRendererSettings() BatchRendererSettings {
	return BatchRendererSettings{
		AmbientMode:     AmbientDirectional,
		VSMShadowParams: mgl32.Vec2{0.0000001, 0.9},
	}
}

// InstanceElements returns the number of 4-float instance elements the
// ambient mode needs: three for the transform plus the ambient
// payload.
func (s *BatchRendererSettings) InstanceElements() uint32 {
	switch s.AmbientMode {
	case AmbientFlat:
		return 4
	case AmbientDirectional:
		return 10
	default:
		return 3
	}
}

// LightVolumeRenderContext carries the G-buffer inputs for deferred
// light volume rendering.
type LightVolumeRenderContext struct {
	GBufferOffsetAndScale mgl32.Vec4
	GBufferInvSize        mgl32.Vec2
	GBuffer               []ShaderResourceBinding
}

// BatchRenderer converts sorted pipeline batches into draw commands on
// a DrawCommandQueue. It owns the renderer settings and the frame
// inputs; each Render call builds a fresh compositor, so calls are
// independent and the queue receives a self-contained command
// sequence.
type BatchRenderer struct {
	log       Logger
	settings  BatchRendererSettings
	frame     *FrameData
	instances *InstanceBuffer
	debugger  *RenderDebugger
}

func NewBatchRenderer(log Logger, frame *FrameData, instances *InstanceBuffer) *BatchRenderer {
	if log == nil {
		log = NewNopLogger()
	}
	return &BatchRenderer{
		log:       log,
		settings:  DefaultBatchRendererSettings(),
		frame:     frame,
		instances: instances,
	}
}

func (r *BatchRenderer) SetSettings(settings BatchRendererSettings) {
	r.settings = settings
}

func (r *BatchRenderer) Settings() BatchRendererSettings {
	return r.settings
}

// SetDebugger attaches a frame snapshot debugger. Pass nil to detach.
func (r *BatchRenderer) SetDebugger(debugger *RenderDebugger) {
	r.debugger = debugger
}

// AdjustRenderFlags drops flags whose prerequisites are missing, such
// as instancing without an enabled instance buffer.
func (r *BatchRenderer) AdjustRenderFlags(flags BatchRenderFlags) BatchRenderFlags {
	result := flags
	if !r.instances.Enabled() {
		result &^= BatchRenderStaticInstancing
	}
	return result
}

// RenderBatches emits draw commands for state-sorted batches. For
// shadow passes, pass the split being rendered; its shadow camera
// replaces camera and its light constants are committed once up
// front.
func (r *BatchRenderer) RenderBatches(queue DrawCommandQueue, camera *Camera, flags BatchRenderFlags,
	batches []PipelineBatchByState, shadowSplit *ShadowSplitView) {

	r.log.Debugf("rendering %d state-sorted batches", len(batches))
	compositor := r.newCompositor(queue, camera, flags, shadowSplit)

	var previous *PipelineBatch
	for i := range batches {
		batch := batches[i].Batch
		r.reportBatch(batch, previous)
		compositor.processSceneBatch(batch)
		previous = batch
	}
	compositor.flushDrawCommands()
}

// RenderBatchesBackToFront emits draw commands for distance-sorted
// batches, typically the transparent pass.
func (r *BatchRenderer) RenderBatchesBackToFront(queue DrawCommandQueue, camera *Camera, flags BatchRenderFlags,
	batches []PipelineBatchBackToFront, shadowSplit *ShadowSplitView) {

	r.log.Debugf("rendering %d back-to-front batches", len(batches))
	compositor := r.newCompositor(queue, camera, flags, shadowSplit)

	var previous *PipelineBatch
	for i := range batches {
		batch := batches[i].Batch
		r.reportBatch(batch, previous)
		compositor.processSceneBatch(batch)
		previous = batch
	}
	compositor.flushDrawCommands()
}

// RenderLightVolumeBatches emits draw commands for deferred light
// volumes. Pixel lighting is forced on and the G-buffer is bound as
// global resources.
func (r *BatchRenderer) RenderLightVolumeBatches(queue DrawCommandQueue, camera *Camera,
	ctx LightVolumeRenderContext, batches []PipelineBatchByState) {

	r.log.Debugf("rendering %d light volume batches", len(batches))
	compositor := r.newCompositor(queue, camera, BatchRenderPixelLight, nil)
	compositor.setGBufferParameters(ctx.GBufferOffsetAndScale, ctx.GBufferInvSize)
	compositor.setGlobalResources(ctx.GBuffer)

	var previous *PipelineBatch
	for i := range batches {
		batch := batches[i].Batch
		r.reportBatch(batch, previous)
		compositor.processLightVolumeBatch(batch)
		previous = batch
	}
	compositor.flushDrawCommands()
}

func (r *BatchRenderer) newCompositor(queue DrawCommandQueue, camera *Camera, flags BatchRenderFlags,
	shadowSplit *ShadowSplitView) *drawCommandCompositor {

	if shadowSplit != nil && shadowSplit.ShadowCamera != nil {
		camera = shadowSplit.ShadowCamera
	}
	if camera == nil {
		panic("batch renderer: nil camera")
	}
	return newDrawCommandCompositor(queue, r.settings, r.frame, r.instances, camera,
		r.AdjustRenderFlags(flags), shadowSplit)
}

func (r *BatchRenderer) reportBatch(batch, previous *PipelineBatch) {
	if !r.debugger.SnapshotInProgress() {
		return
	}
	newGroup := previous == nil ||
		previous.PipelineState != batch.PipelineState ||
		previous.Material != batch.Material ||
		previous.Geometry != batch.Geometry ||
		previous.PixelLightIndex != batch.PixelLightIndex
	r.debugger.ReportSceneBatch(NewDebugFrameSnapshotBatch(r.frame, batch, newGroup))
}
