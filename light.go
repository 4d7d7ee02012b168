package crucible

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightDirectional LightType = 0
	LightSpot        LightType = 1
	LightPoint       LightType = 2
)

const (
	// MaxVertexLights is the number of per-vertex lights a single
	// drawable can reference.
	MaxVertexLights = 4
	// MaxCascadeSplits is the number of shadow cascades of a
	// directional light.
	MaxCascadeSplits = 4
	// MaxLightSplits is the total number of shadow splits a single
	// light can own.
	MaxLightSplits = 6
)

// Light is the scene-side description of a light source.
type Light struct {
	Name     string
	Type     LightType
	Position mgl32.Vec3
	Rotation mgl32.Quat

	Color             Color
	SpecularIntensity float32

	Range       float32
	FOV         float32 // full spot cone angle in degrees
	AspectRatio float32

	Radius float32
	Length float32
}

func NewLight(lightType LightType) *Light {
	return &Light{
		Type:        lightType,
		Rotation:    mgl32.QuatIdent(),
		Color:       NewColor(1, 1, 1),
		Range:       10,
		FOV:         30,
		AspectRatio: 1,
	}
}

// Direction returns the light's forward vector in world space.
func (l *Light) Direction() mgl32.Vec3 {
	return l.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

// VolumeTransform returns the world transform of the light's bounding
// volume geometry for deferred light volume rendering. Directional
// lights use a full-screen quad placed between the clip planes of the
// camera, spot lights a unit cone scaled to the cone extents, point
// lights a unit sphere scaled to the range.
func (l *Light) VolumeTransform(camera *Camera) mgl32.Mat4 {
	switch l.Type {
	case LightDirectional:
		// Halfway between the clip planes so the quad never depth-clips.
		// Oversized in x/y but frustum clipping takes care of that.
		_, far := camera.FrustumSize()
		quad := mgl32.Translate3D(0, 0, -(camera.NearClip+camera.FarClip)*0.5).
			Mul4(mgl32.Scale3D(far.X(), far.Y(), 1))
		return camera.WorldTransform().Mul4(quad)
	case LightSpot:
		safeRange := l.Range * 1.001
		yScale := math32.Tan(mgl32.DegToRad(l.FOV)*0.5) * safeRange
		xScale := l.AspectRatio * yScale
		return composeTransform(l.Position, l.Rotation, mgl32.Vec3{xScale, yScale, safeRange})
	default:
		return composeTransform(l.Position, mgl32.QuatIdent(), mgl32.Vec3{l.Range, l.Range, l.Range})
	}
}

func composeTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(rotation.Mat4()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// LightShaderParameters is the cooked, upload-ready form of a light.
// It is produced once per frame per light and read by the compositor
// when the light is bound for pixel lighting.
type LightShaderParameters struct {
	Direction mgl32.Vec3
	Position  mgl32.Vec3
	InvRange  float32

	Color             Color
	SpecularIntensity float32

	Radius float32
	Length float32

	// Cutoff is cos(fov/2) for spot lights and -2 otherwise, so the
	// spot attenuation term saturates for non-spot lights. InvCutoff
	// is 1/(1-Cutoff).
	Cutoff    float32
	InvCutoff float32

	// Light matrices: one per cascade for directional lights, a
	// single matrix for spot lights, none for point lights.
	LightMatrices    [MaxCascadeSplits]mgl32.Mat4
	NumLightMatrices uint32

	ShadowMap        *Texture
	ShadowCubeAdjust mgl32.Vec4
	ShadowDepthFade  mgl32.Vec4
	ShadowIntensity  mgl32.Vec2
	ShadowMapInvSize mgl32.Vec2
	ShadowSplits     mgl32.Vec4
	ShadowCubeUVBias mgl32.Vec2
	ShadowNormalBias [MaxCascadeSplits]float32

	LightRamp  *Texture
	LightShape *Texture
}

// ColorValue returns the light color in the rendering color space.
// Cooked colors are stored gamma-encoded; with gamma correction
// enabled the shader pipeline works in linear space.
func (p *LightShaderParameters) ColorValue(gammaCorrection bool) mgl32.Vec3 {
	if gammaCorrection {
		return p.Color.GammaToLinear().Vec3()
	}
	return p.Color.Vec3()
}

// SceneLight pairs a light with its cooked shader parameters for one
// frame.
type SceneLight struct {
	Light  *Light
	Params LightShaderParameters
}

// NewSceneLight cooks the basic shader parameters of a light. Shadow
// parameters stay zero and are filled by the shadow pass when the
// light casts shadows.
func NewSceneLight(light *Light) *SceneLight {
	cutoff := float32(-2)
	if light.Type == LightSpot {
		cutoff = math32.Cos(mgl32.DegToRad(light.FOV) * 0.5)
	}
	invRange := float32(0)
	if light.Type != LightDirectional && light.Range > 0 {
		invRange = 1 / light.Range
	}
	return &SceneLight{
		Light: light,
		Params: LightShaderParameters{
			Direction:         light.Direction().Mul(-1),
			Position:          light.Position,
			InvRange:          invRange,
			Color:             light.Color,
			SpecularIntensity: light.SpecularIntensity,
			Radius:            light.Radius,
			Length:            light.Length,
			Cutoff:            cutoff,
			InvCutoff:         1 / (1 - cutoff),
		},
	}
}

// ShadowSplitView identifies the shadow split being rendered during a
// shadow pass: the owning light, the split index, and the camera the
// split is rendered from.
type ShadowSplitView struct {
	Light        *SceneLight
	SplitIndex   uint32
	ShadowCamera *Camera
}
