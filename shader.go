package crucible

// ShaderParameterGroup identifies one bundle of shader constants that is
// uploaded together. Groups are committed in declaration order: a group may
// depend on everything committed before it, never after.
type ShaderParameterGroup uint8

const (
	ParamGroupFrame ShaderParameterGroup = iota
	ParamGroupCamera
	ParamGroupLight
	ParamGroupMaterial
	ParamGroupObject

	MaxShaderParameterGroups
)

func (g ShaderParameterGroup) String() string {
	switch g {
	case ParamGroupFrame:
		return "frame"
	case ParamGroupCamera:
		return "camera"
	case ParamGroupLight:
		return "light"
	case ParamGroupMaterial:
		return "material"
	case ParamGroupObject:
		return "object"
	}
	return "unknown"
}

// ShaderParam names one shader constant. Names must match the uniform names
// declared by the shaders.
type ShaderParam string

// Frame constants.
const (
	ParamDeltaTime   ShaderParam = "DeltaTime"
	ParamElapsedTime ShaderParam = "ElapsedTime"
)

// Camera constants.
const (
	ParamGBufferOffsets    ShaderParam = "GBufferOffsets"
	ParamGBufferInvSize    ShaderParam = "GBufferInvSize"
	ParamCameraPos         ShaderParam = "CameraPos"
	ParamViewInv           ShaderParam = "ViewInv"
	ParamView              ShaderParam = "View"
	ParamNearClip          ShaderParam = "NearClip"
	ParamFarClip           ShaderParam = "FarClip"
	ParamNormalOffsetScale ShaderParam = "NormalOffsetScale"
	ParamDepthMode         ShaderParam = "DepthMode"
	ParamDepthReconstruct  ShaderParam = "DepthReconstruct"
	ParamFrustumSize       ShaderParam = "FrustumSize"
	ParamViewProj          ShaderParam = "ViewProj"
	ParamAmbientColor      ShaderParam = "AmbientColor"
	ParamFogColor          ShaderParam = "FogColor"
	ParamFogParams         ShaderParam = "FogParams"
)

// Light constants.
const (
	ParamLightDir         ShaderParam = "LightDir"
	ParamLightPos         ShaderParam = "LightPos"
	ParamLightColor       ShaderParam = "LightColor"
	ParamLightRad         ShaderParam = "LightRad"
	ParamLightLength      ShaderParam = "LightLength"
	ParamLightMatrices    ShaderParam = "LightMatrices"
	ParamShadowDepthFade  ShaderParam = "ShadowDepthFade"
	ParamShadowIntensity  ShaderParam = "ShadowIntensity"
	ParamShadowMapInvSize ShaderParam = "ShadowMapInvSize"
	ParamShadowSplits     ShaderParam = "ShadowSplits"
	ParamShadowCubeUVBias ShaderParam = "ShadowCubeUVBias"
	ParamShadowCubeAdjust ShaderParam = "ShadowCubeAdjust"
	ParamVSMShadowParams  ShaderParam = "VSMShadowParams"
	ParamVertexLights     ShaderParam = "VertexLights"
)

// Material constants.
const (
	ParamMatDiffColor     ShaderParam = "MatDiffColor"
	ParamMatSpecColor     ShaderParam = "MatSpecColor"
	ParamMatEmissiveColor ShaderParam = "MatEmissiveColor"
	ParamLightmapOffset   ShaderParam = "LMOffset"
)

// Object constants.
const (
	ParamAmbient      ShaderParam = "Ambient"
	ParamSHAr         ShaderParam = "SHAr"
	ParamSHAg         ShaderParam = "SHAg"
	ParamSHAb         ShaderParam = "SHAb"
	ParamSHBr         ShaderParam = "SHBr"
	ParamSHBg         ShaderParam = "SHBg"
	ParamSHBb         ShaderParam = "SHBb"
	ParamSHC          ShaderParam = "SHC"
	ParamModel        ShaderParam = "Model"
	ParamBillboardRot ShaderParam = "BillboardRot"
	ParamSkinMatrices ShaderParam = "SkinMatrices"
)

// TextureUnit identifies one texture binding slot shared by all shaders.
type TextureUnit uint8

const (
	TextureUnitDiffuse TextureUnit = iota
	TextureUnitNormal
	TextureUnitSpecular
	TextureUnitEmissive
	TextureUnitEnvironment
	TextureUnitLightRamp
	TextureUnitLightShape
	TextureUnitShadowMap
	TextureUnitDepthBuffer
	TextureUnitAlbedoBuffer
	TextureUnitNormalBuffer

	MaxTextureUnits
)

func (u TextureUnit) String() string {
	switch u {
	case TextureUnitDiffuse:
		return "diffuse"
	case TextureUnitNormal:
		return "normal"
	case TextureUnitSpecular:
		return "specular"
	case TextureUnitEmissive:
		return "emissive"
	case TextureUnitEnvironment:
		return "environment"
	case TextureUnitLightRamp:
		return "lightramp"
	case TextureUnitLightShape:
		return "lightshape"
	case TextureUnitShadowMap:
		return "shadowmap"
	case TextureUnitDepthBuffer:
		return "depthbuffer"
	case TextureUnitAlbedoBuffer:
		return "albedobuffer"
	case TextureUnitNormalBuffer:
		return "normalbuffer"
	}
	return "unknown"
}

// ShaderParameterValue is one named constant captured by a recorded command
// list.
type ShaderParameterValue struct {
	Name  ShaderParam
	Value any
}

// ShaderResourceBinding is one texture bound to a unit.
type ShaderResourceBinding struct {
	Unit    TextureUnit
	Texture *Texture
}
