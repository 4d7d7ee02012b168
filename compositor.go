package crucible

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// enabledFeatures resolves render flags once per batch sequence so the
// per-batch code branches on plain booleans.
type enabledFeatures struct {
	ambientLighting  bool
	vertexLighting   bool
	pixelLighting    bool
	anyLighting      bool
	staticInstancing bool
}

func newEnabledFeatures(flags BatchRenderFlags) enabledFeatures {
	e := enabledFeatures{
		ambientLighting:  flags.Has(BatchRenderAmbientLight),
		vertexLighting:   flags.Has(BatchRenderVertexLights),
		pixelLighting:    flags.Has(BatchRenderPixelLight),
		staticInstancing: flags.Has(BatchRenderStaticInstancing),
	}
	e.anyLighting = e.ambientLighting || e.vertexLighting || e.pixelLighting
	return e
}

// dirtyStateFlags tracks which shared state changed since the last
// emitted draw. Frame and camera constants start dirty so the first
// batch always commits them.
type dirtyStateFlags struct {
	pipelineState   bool
	frameConstants  bool
	cameraConstants bool

	pixelLightConstants bool
	pixelLightTextures  bool

	vertexLightConstants bool

	lightmapConstants bool
	lightmapTextures  bool

	material bool
	geometry bool
}

func (d *dirtyStateFlags) anyStateDirty() bool {
	return d.pipelineState || d.frameConstants || d.cameraConstants ||
		d.pixelLightConstants || d.pixelLightTextures || d.vertexLightConstants ||
		d.lightmapConstants || d.lightmapTextures || d.material || d.geometry
}

// cachedSharedState mirrors the state currently bound on the queue, so
// repeated batches with identical state emit nothing.
type cachedSharedState struct {
	pipelineState     *PipelineState
	constantDepthBias float32

	pixelLightIndex     uint32
	pixelLightEnabled   bool
	pixelLightParams    *LightShaderParameters
	pixelLightRamp      *Texture
	pixelLightShape     *Texture
	pixelLightShadowMap *Texture

	vertexLights     [MaxVertexLights]uint32
	vertexLightsData [MaxVertexLights * 3]mgl32.Vec4

	lightmapTexture     *Texture
	lightmapScaleOffset *mgl32.Vec4

	material *Material
	geometry *Geometry
}

// objectState is the per-object data extracted from the source batch
// before dirty checking.
type objectState struct {
	sh              *SphericalHarmonicsDot9
	ambient         mgl32.Vec4
	geometryType    GeometryType
	worldTransforms []mgl32.Mat4
}

type instancingGroupState struct {
	geometry *Geometry
	start    uint32
	count    uint32
}

// drawCommandCompositor converts a sorted batch sequence into draw
// commands, eliding every redundant state change and folding runs of
// identical static batches into instanced draws. One compositor serves
// one batch sequence; the facade creates a fresh one per call.
type drawCommandCompositor struct {
	drawQueue DrawCommandQueue

	settings    BatchRendererSettings
	frame       *FrameData
	scene       Scene
	lights      []*SceneLight
	instances   *InstanceBuffer
	camera      *Camera
	shadowSplit *ShadowSplitView
	enabled     enabledFeatures

	gBufferOffsetAndScale mgl32.Vec4
	gBufferInvSize        mgl32.Vec2
	globalResources       []ShaderResourceBinding

	dirty           dirtyStateFlags
	current         cachedSharedState
	object          objectState
	instancingGroup instancingGroupState

	lightVolumeTransform [1]mgl32.Mat4
	lightVolumeBatch     SourceBatch
}

func newDrawCommandCompositor(drawQueue DrawCommandQueue, settings BatchRendererSettings,
	frame *FrameData, instances *InstanceBuffer, camera *Camera,
	flags BatchRenderFlags, shadowSplit *ShadowSplitView) *drawCommandCompositor {

	c := &drawCommandCompositor{
		drawQueue:   drawQueue,
		settings:    settings,
		frame:       frame,
		scene:       frame.Scene,
		lights:      frame.Lights,
		instances:   instances,
		camera:      camera,
		shadowSplit: shadowSplit,
		enabled:     newEnabledFeatures(flags),
	}
	c.dirty.frameConstants = true
	c.dirty.cameraConstants = true
	c.current.pixelLightIndex = InvalidIndex
	c.lightVolumeBatch.WorldTransforms = c.lightVolumeTransform[:]
	return c
}

func (c *drawCommandCompositor) setGBufferParameters(offsetAndScale mgl32.Vec4, invSize mgl32.Vec2) {
	c.gBufferOffsetAndScale = offsetAndScale
	c.gBufferInvSize = invSize
}

func (c *drawCommandCompositor) setGlobalResources(resources []ShaderResourceBinding) {
	c.globalResources = resources
}

func (c *drawCommandCompositor) processSceneBatch(batch *PipelineBatch) {
	if batch.Source == nil {
		panic("batch compositor: scene batch without source batch")
	}
	c.processBatch(batch, batch.Source)
}

// processLightVolumeBatch substitutes the light's volume geometry
// transform for the object transform; everything else follows the
// regular batch path.
func (c *drawCommandCompositor) processLightVolumeBatch(batch *PipelineBatch) {
	if batch.PixelLightIndex == InvalidIndex {
		panic("batch compositor: light volume batch without light")
	}
	light := c.lights[batch.PixelLightIndex].Light
	c.lightVolumeTransform[0] = light.VolumeTransform(c.camera)
	c.processBatch(batch, &c.lightVolumeBatch)
}

func (c *drawCommandCompositor) flushDrawCommands() {
	if c.instancingGroup.count > 0 {
		c.drawObjectInstanced()
	}
}

func (c *drawCommandCompositor) processBatch(batch *PipelineBatch, source *SourceBatch) {
	var acc *LightAccumulator
	if c.enabled.ambientLighting || c.enabled.vertexLighting {
		acc = &c.frame.Lighting[batch.DrawableIndex]
	}

	c.extractObjectConstants(source, acc)

	c.checkDirtyCommonState(batch)
	if c.enabled.pixelLighting {
		c.checkDirtyPixelLight(batch)
	}
	if c.enabled.vertexLighting {
		c.checkDirtyVertexLight(acc)
	}
	if c.enabled.ambientLighting {
		c.checkDirtyLightmap(source)
	}

	resetInstancingGroup := c.instancingGroup.count == 0 || c.dirty.anyStateDirty()
	if resetInstancingGroup {
		if c.instancingGroup.count > 0 {
			c.drawObjectInstanced()
		}

		c.updateDirtyConstants()
		c.updateDirtyResources()

		beginInstancingGroup := c.enabled.staticInstancing &&
			batch.GeometryType == GeometryStatic &&
			batch.Geometry.IndexBuffer != nil
		if beginInstancingGroup {
			c.instancingGroup.count = 1
			c.instancingGroup.start = c.instances.AddInstance()
			c.instancingGroup.geometry = c.current.geometry
			c.addObjectInstanceData()
		} else {
			c.drawQueue.BeginShaderParameterGroup(ParamGroupObject, true)
			c.addObjectConstants()
			c.drawQueue.CommitShaderParameterGroup(ParamGroupObject)

			c.drawObject()
		}
	} else {
		c.instancingGroup.count++
		c.instances.AddInstance()
		c.addObjectInstanceData()
	}
}

func (c *drawCommandCompositor) checkDirtyCommonState(batch *PipelineBatch) {
	c.dirty.pipelineState = c.current.pipelineState != batch.PipelineState
	c.current.pipelineState = batch.PipelineState

	constantDepthBias := c.current.pipelineState.ConstantDepthBias()
	if c.current.constantDepthBias != constantDepthBias {
		c.current.constantDepthBias = constantDepthBias
		c.dirty.cameraConstants = true
	}

	c.dirty.material = c.current.material != batch.Material
	c.current.material = batch.Material

	c.dirty.geometry = c.current.geometry != batch.Geometry
	c.current.geometry = batch.Geometry
}

func (c *drawCommandCompositor) checkDirtyPixelLight(batch *PipelineBatch) {
	c.dirty.pixelLightConstants = c.current.pixelLightIndex != batch.PixelLightIndex
	if !c.dirty.pixelLightConstants {
		return
	}

	c.current.pixelLightIndex = batch.PixelLightIndex
	c.current.pixelLightEnabled = c.current.pixelLightIndex != InvalidIndex
	if c.current.pixelLightEnabled {
		c.current.pixelLightParams = &c.lights[c.current.pixelLightIndex].Params
		c.dirty.pixelLightTextures = c.current.pixelLightRamp != c.current.pixelLightParams.LightRamp ||
			c.current.pixelLightShape != c.current.pixelLightParams.LightShape ||
			c.current.pixelLightShadowMap != c.current.pixelLightParams.ShadowMap
		if c.dirty.pixelLightTextures {
			c.current.pixelLightRamp = c.current.pixelLightParams.LightRamp
			c.current.pixelLightShape = c.current.pixelLightParams.LightShape
			c.current.pixelLightShadowMap = c.current.pixelLightParams.ShadowMap
		}
	}
}

func (c *drawCommandCompositor) checkDirtyVertexLight(acc *LightAccumulator) {
	previousVertexLights := c.current.vertexLights
	c.current.vertexLights = acc.VertexLights
	c.dirty.vertexLightConstants = previousVertexLights != c.current.vertexLights
	if !c.dirty.vertexLightConstants {
		return
	}

	var nullVertexLight LightShaderParameters
	for i := 0; i < MaxVertexLights; i++ {
		params := &nullVertexLight
		if c.current.vertexLights[i] != InvalidIndex {
			params = &c.lights[c.current.vertexLights[i]].Params
		}
		color := params.ColorValue(c.settings.GammaCorrection)

		c.current.vertexLightsData[i*3] = mgl32.Vec4{color.X(), color.Y(), color.Z(), params.InvRange}
		c.current.vertexLightsData[i*3+1] = mgl32.Vec4{params.Direction.X(), params.Direction.Y(), params.Direction.Z(), params.Cutoff}
		c.current.vertexLightsData[i*3+2] = mgl32.Vec4{params.Position.X(), params.Position.Y(), params.Position.Z(), params.InvCutoff}
	}
}

func (c *drawCommandCompositor) checkDirtyLightmap(source *SourceBatch) {
	c.dirty.lightmapConstants = c.current.lightmapScaleOffset != source.LightmapScaleOffset
	if !c.dirty.lightmapConstants {
		return
	}

	c.current.lightmapScaleOffset = source.LightmapScaleOffset

	var lightmapTexture *Texture
	if c.current.lightmapScaleOffset != nil {
		lightmapTexture = c.scene.LightmapTexture(source.LightmapIndex)
	}

	c.dirty.lightmapTextures = c.current.lightmapTexture != lightmapTexture
	c.current.lightmapTexture = lightmapTexture
}

func (c *drawCommandCompositor) extractObjectConstants(source *SourceBatch, acc *LightAccumulator) {
	if c.enabled.ambientLighting {
		switch c.settings.AmbientMode {
		case AmbientFlat:
			ambient := acc.SphericalHarmonics.EvaluateAverage()
			if c.settings.GammaCorrection {
				c.object.ambient = mgl32.Vec4{ambient.X(), ambient.Y(), ambient.Z(), 1}
			} else {
				c.object.ambient = ColorFromVec3(ambient).LinearToGamma().Vec4()
			}
		case AmbientDirectional:
			c.object.sh = &acc.SphericalHarmonics
		}
	}

	c.object.geometryType = source.GeometryType
	c.object.worldTransforms = source.WorldTransforms
}

func (c *drawCommandCompositor) updateDirtyConstants() {
	if c.dirty.pipelineState {
		c.drawQueue.SetPipelineState(c.current.pipelineState)
		c.dirty.pipelineState = false
	}

	if c.drawQueue.BeginShaderParameterGroup(ParamGroupFrame, c.dirty.frameConstants) {
		c.addFrameConstants()
		c.drawQueue.CommitShaderParameterGroup(ParamGroupFrame)
		c.dirty.frameConstants = false
	}

	if c.drawQueue.BeginShaderParameterGroup(ParamGroupCamera, c.dirty.cameraConstants) {
		c.addCameraConstants(c.current.constantDepthBias)
		c.drawQueue.CommitShaderParameterGroup(ParamGroupCamera)
		c.dirty.cameraConstants = false
	}

	if c.shadowSplit != nil {
		// Shadow passes commit the owning light's constants exactly
		// once so the normal offset bias stays bound for every batch.
		if c.drawQueue.BeginShaderParameterGroup(ParamGroupLight, false) {
			c.addPixelLightConstants(&c.shadowSplit.Light.Params)
			c.drawQueue.CommitShaderParameterGroup(ParamGroupLight)
		}
	} else if c.enabled.anyLighting {
		lightConstantsDirty := c.dirty.pixelLightConstants || c.dirty.vertexLightConstants
		if c.drawQueue.BeginShaderParameterGroup(ParamGroupLight, lightConstantsDirty) {
			if c.enabled.vertexLighting {
				c.addVertexLightConstants()
			}
			if c.current.pixelLightEnabled {
				c.addPixelLightConstants(c.current.pixelLightParams)
			}
			c.drawQueue.CommitShaderParameterGroup(ParamGroupLight)
		}
	}

	if c.drawQueue.BeginShaderParameterGroup(ParamGroupMaterial, c.dirty.material || c.dirty.lightmapConstants) {
		for _, parameter := range c.current.material.Parameters() {
			c.drawQueue.AddShaderParameter(parameter.Name, parameter.Value)
		}

		if c.enabled.ambientLighting && c.current.lightmapScaleOffset != nil {
			c.drawQueue.AddShaderParameter(ParamLightmapOffset, *c.current.lightmapScaleOffset)
		}

		c.drawQueue.CommitShaderParameterGroup(ParamGroupMaterial)
	}
}

func (c *drawCommandCompositor) updateDirtyResources() {
	resourcesDirty := c.dirty.material || c.dirty.lightmapTextures || c.dirty.pixelLightTextures
	if !resourcesDirty {
		return
	}

	for _, desc := range c.globalResources {
		c.drawQueue.AddShaderResource(desc.Unit, desc.Texture)
	}

	for unit := TextureUnit(0); unit < MaxTextureUnits; unit++ {
		texture := c.current.material.Texture(unit)
		if texture == nil {
			continue
		}
		// The lightmap hijacks the emissive unit.
		if c.current.lightmapTexture == nil || unit != TextureUnitEmissive {
			c.drawQueue.AddShaderResource(unit, texture)
		}
	}

	if c.current.lightmapTexture != nil {
		c.drawQueue.AddShaderResource(TextureUnitEmissive, c.current.lightmapTexture)
	}
	if c.current.pixelLightRamp != nil {
		c.drawQueue.AddShaderResource(TextureUnitLightRamp, c.current.pixelLightRamp)
	}
	if c.current.pixelLightShape != nil {
		c.drawQueue.AddShaderResource(TextureUnitLightShape, c.current.pixelLightShape)
	}
	if c.current.pixelLightShadowMap != nil {
		c.drawQueue.AddShaderResource(TextureUnitShadowMap, c.current.pixelLightShadowMap)
	}

	c.drawQueue.CommitShaderResources()
}

func (c *drawCommandCompositor) addFrameConstants() {
	c.drawQueue.AddShaderParameter(ParamDeltaTime, c.frame.TimeStep)
	c.drawQueue.AddShaderParameter(ParamElapsedTime, c.scene.ElapsedTime())
}

func (c *drawCommandCompositor) addCameraConstants(constantDepthBias float32) {
	c.drawQueue.AddShaderParameter(ParamGBufferOffsets, c.gBufferOffsetAndScale)
	c.drawQueue.AddShaderParameter(ParamGBufferInvSize, c.gBufferInvSize)

	c.drawQueue.AddShaderParameter(ParamCameraPos, c.camera.Position)
	c.drawQueue.AddShaderParameter(ParamViewInv, c.camera.WorldTransform())
	c.drawQueue.AddShaderParameter(ParamView, c.camera.View())

	c.drawQueue.AddShaderParameter(ParamNearClip, c.camera.NearClip)
	c.drawQueue.AddShaderParameter(ParamFarClip, c.camera.FarClip)

	if c.shadowSplit != nil {
		params := &c.shadowSplit.Light.Params
		c.drawQueue.AddShaderParameter(ParamNormalOffsetScale, params.ShadowNormalBias[c.shadowSplit.SplitIndex])
	}

	c.drawQueue.AddShaderParameter(ParamDepthMode, c.camera.DepthMode())
	c.drawQueue.AddShaderParameter(ParamDepthReconstruct, c.camera.DepthReconstruct())

	_, farVector := c.camera.FrustumSize()
	c.drawQueue.AddShaderParameter(ParamFrustumSize, farVector)

	c.drawQueue.AddShaderParameter(ParamViewProj, c.camera.EffectiveViewProjection(constantDepthBias))

	ambientColor := c.camera.AmbientColor.Scaled(c.camera.AmbientBrightness)
	if c.settings.GammaCorrection {
		ambientColor = ambientColor.GammaToLinear()
	}
	c.drawQueue.AddShaderParameter(ParamAmbientColor, ambientColor)
	c.drawQueue.AddShaderParameter(ParamFogColor, c.camera.FogColor)
	c.drawQueue.AddShaderParameter(ParamFogParams, c.camera.FogParameter())
}

func (c *drawCommandCompositor) addVertexLightConstants() {
	// Array value, copied into the command; the cached data mutates as
	// later batches are processed.
	c.drawQueue.AddShaderParameter(ParamVertexLights, c.current.vertexLightsData)
}

func (c *drawCommandCompositor) addPixelLightConstants(params *LightShaderParameters) {
	c.drawQueue.AddShaderParameter(ParamLightDir, params.Direction)
	c.drawQueue.AddShaderParameter(ParamLightPos,
		mgl32.Vec4{params.Position.X(), params.Position.Y(), params.Position.Z(), params.InvRange})
	color := params.ColorValue(c.settings.GammaCorrection)
	c.drawQueue.AddShaderParameter(ParamLightColor,
		mgl32.Vec4{color.X(), color.Y(), color.Z(), params.SpecularIntensity})

	c.drawQueue.AddShaderParameter(ParamLightRad, params.Radius)
	c.drawQueue.AddShaderParameter(ParamLightLength, params.Length)

	if params.NumLightMatrices > 0 {
		c.drawQueue.AddShaderParameter(ParamLightMatrices, slices.Clone(params.LightMatrices[:params.NumLightMatrices]))
	}

	if params.ShadowMap != nil {
		c.drawQueue.AddShaderParameter(ParamShadowDepthFade, params.ShadowDepthFade)
		c.drawQueue.AddShaderParameter(ParamShadowIntensity, params.ShadowIntensity)
		c.drawQueue.AddShaderParameter(ParamShadowMapInvSize, params.ShadowMapInvSize)
		c.drawQueue.AddShaderParameter(ParamShadowSplits, params.ShadowSplits)
		c.drawQueue.AddShaderParameter(ParamShadowCubeUVBias, params.ShadowCubeUVBias)
		c.drawQueue.AddShaderParameter(ParamShadowCubeAdjust, params.ShadowCubeAdjust)
		c.drawQueue.AddShaderParameter(ParamVSMShadowParams, c.settings.VSMShadowParams)
	}
}

func (c *drawCommandCompositor) addObjectConstants() {
	if c.enabled.ambientLighting {
		switch c.settings.AmbientMode {
		case AmbientFlat:
			c.drawQueue.AddShaderParameter(ParamAmbient, c.object.ambient)
		case AmbientDirectional:
			sh := c.object.sh
			c.drawQueue.AddShaderParameter(ParamSHAr, sh.Ar)
			c.drawQueue.AddShaderParameter(ParamSHAg, sh.Ag)
			c.drawQueue.AddShaderParameter(ParamSHAb, sh.Ab)
			c.drawQueue.AddShaderParameter(ParamSHBr, sh.Br)
			c.drawQueue.AddShaderParameter(ParamSHBg, sh.Bg)
			c.drawQueue.AddShaderParameter(ParamSHBb, sh.Bb)
			c.drawQueue.AddShaderParameter(ParamSHC, sh.C)
		}
	}

	switch c.object.geometryType {
	case GeometrySkinned:
		c.drawQueue.AddShaderParameter(ParamSkinMatrices, c.object.worldTransforms)

	case GeometryBillboard:
		c.drawQueue.AddShaderParameter(ParamModel, c.object.worldTransforms[0])
		if len(c.object.worldTransforms) > 1 {
			c.drawQueue.AddShaderParameter(ParamBillboardRot, rotationMatrix(c.object.worldTransforms[1]))
		} else {
			c.drawQueue.AddShaderParameter(ParamBillboardRot, rotationMatrix(c.camera.WorldTransform()))
		}

	default:
		c.drawQueue.AddShaderParameter(ParamModel, c.object.worldTransforms[0])
	}
}

func (c *drawCommandCompositor) addObjectInstanceData() {
	rows := transformRows(c.object.worldTransforms[0])
	c.instances.SetElements(rows[:], 0)

	if c.enabled.ambientLighting {
		switch c.settings.AmbientMode {
		case AmbientFlat:
			c.instances.SetElements(c.object.ambient[:], 3)
		case AmbientDirectional:
			sh := shInstanceElements(c.object.sh)
			c.instances.SetElements(sh[:], 3)
		}
	}
}

func shInstanceElements(sh *SphericalHarmonicsDot9) [7 * InstanceElementFloats]float32 {
	var out [7 * InstanceElementFloats]float32
	for i, v := range [...]mgl32.Vec4{sh.Ar, sh.Ag, sh.Ab, sh.Br, sh.Bg, sh.Bb, sh.C} {
		copy(out[i*4:], v[:])
	}
	return out
}

func (c *drawCommandCompositor) drawObject() {
	indexBuffer := c.current.geometry.IndexBuffer
	if c.dirty.geometry {
		c.drawQueue.SetBuffers(c.current.geometry.VertexBuffers, indexBuffer, nil)
		c.dirty.geometry = false
	}

	if indexBuffer != nil {
		c.drawQueue.DrawIndexed(c.current.geometry.IndexStart, c.current.geometry.IndexCount)
	} else {
		c.drawQueue.Draw(c.current.geometry.VertexStart, c.current.geometry.VertexCount)
	}
}

func (c *drawCommandCompositor) drawObjectInstanced() {
	if c.instancingGroup.count == 0 {
		panic("batch compositor: flush of empty instancing group")
	}
	geometry := c.instancingGroup.geometry
	c.drawQueue.SetBuffers(geometry.VertexBuffers, geometry.IndexBuffer, c.instances)
	c.drawQueue.DrawIndexedInstanced(geometry.IndexStart, geometry.IndexCount,
		c.instancingGroup.start, c.instancingGroup.count)
	c.instancingGroup.count = 0
}
