package crucible

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultNearClip  float32 = 0.1
	DefaultFarClip   float32 = 1000.0
	DefaultFOV       float32 = 45.0
	DefaultOrthoSize float32 = 20.0
	DefaultFogStart  float32 = 250.0
	DefaultFogEnd    float32 = 1000.0
)

// Camera describes the viewpoint a batch sequence is rendered from,
// including the fog and ambient values already resolved for the scene
// region the camera sits in.
type Camera struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat

	NearClip    float32
	FarClip     float32
	FOV         float32 // vertical field of view in degrees
	AspectRatio float32
	Zoom        float32

	Orthographic bool
	OrthoSize    float32

	AmbientColor      Color
	AmbientBrightness float32
	FogColor          Color
	FogStart          float32
	FogEnd            float32
}

func NewCamera() *Camera {
	return &Camera{
		Rotation:          mgl32.QuatIdent(),
		NearClip:          DefaultNearClip,
		FarClip:           DefaultFarClip,
		FOV:               DefaultFOV,
		AspectRatio:       1,
		Zoom:              1,
		OrthoSize:         DefaultOrthoSize,
		AmbientColor:      NewColor(0.1, 0.1, 0.1),
		AmbientBrightness: 1,
		FogColor:          NewColor(0, 0, 0),
		FogStart:          DefaultFogStart,
		FogEnd:            DefaultFogEnd,
	}
}

// LookAt orients the camera at its current position towards target.
// QuatLookAtV returns the view-space rotation; Rotation holds the
// camera's world rotation, so the result is inverted.
func (c *Camera) LookAt(target, up mgl32.Vec3) {
	c.Rotation = mgl32.QuatLookAtV(c.Position, target, up).Inverse()
}

func (c *Camera) WorldTransform() mgl32.Mat4 {
	return mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.Rotation.Mat4())
}

// View returns the world-to-view matrix, the inverse of the camera's
// world transform.
func (c *Camera) View() mgl32.Mat4 {
	return c.WorldTransform().Inv()
}

// Projection returns the view-to-clip matrix. Clip depth spans 0..1 to
// match wgpu conventions, so this is built by hand rather than with
// mgl32.Perspective, which targets the -1..1 range.
func (c *Camera) Projection() mgl32.Mat4 {
	var proj mgl32.Mat4
	if !c.Orthographic {
		h := 1 / math32.Tan(mgl32.DegToRad(c.FOV)*0.5) * c.Zoom
		w := h / c.AspectRatio
		q := c.FarClip / (c.NearClip - c.FarClip)

		proj[0] = w
		proj[5] = h
		proj[10] = q
		proj[11] = -1
		proj[14] = q * c.NearClip
	} else {
		h := 2 / c.OrthoSize * c.Zoom
		w := h / c.AspectRatio

		proj[0] = w
		proj[5] = h
		proj[10] = -1 / c.FarClip
		proj[15] = 1
	}
	return proj
}

// EffectiveViewProjection returns the combined view-projection matrix
// with a constant depth bias folded into the projection. The bias is
// taken from the pipeline state of the batch being rendered and shifts
// clip-space depth without touching the rasterizer state.
func (c *Camera) EffectiveViewProjection(constantDepthBias float32) mgl32.Mat4 {
	proj := c.Projection()
	bias := 2 * constantDepthBias
	proj[10] += proj[11] * bias
	proj[14] += proj[15] * bias
	return proj.Mul4(c.View())
}

// DepthMode returns the shader constant that selects between
// orthographic and perspective depth interpolation.
func (c *Camera) DepthMode() mgl32.Vec4 {
	if c.Orthographic {
		return mgl32.Vec4{1, 0, 1, 0}
	}
	return mgl32.Vec4{0, 0, 0, 1 / c.FarClip}
}

// DepthReconstruct returns the shader constant used to recover linear
// depth from a hardware depth buffer sample.
func (c *Camera) DepthReconstruct() mgl32.Vec4 {
	farClip := c.FarClip
	nearClip := c.NearClip
	v := mgl32.Vec4{farClip / (farClip - nearClip), -nearClip / (farClip - nearClip), 0, 0}
	if c.Orthographic {
		v[2] = 1
	} else {
		v[3] = 1
	}
	return v
}

// FrustumSize returns the half extents of the view frustum at the near
// and far clip planes, in view space.
func (c *Camera) FrustumSize() (near, far mgl32.Vec3) {
	if !c.Orthographic {
		halfViewSize := math32.Tan(mgl32.DegToRad(c.FOV)*0.5) / c.Zoom
		near[2] = c.NearClip
		near[1] = near[2] * halfViewSize
		near[0] = near[1] * c.AspectRatio
		far[2] = c.FarClip
		far[1] = far[2] * halfViewSize
		far[0] = far[1] * c.AspectRatio
	} else {
		halfViewSize := c.OrthoSize * 0.5 / c.Zoom
		near[2] = c.NearClip
		far[2] = c.FarClip
		near[1] = halfViewSize
		far[1] = halfViewSize
		near[0] = near[1] * c.AspectRatio
		far[0] = far[1] * c.AspectRatio
	}
	return near, far
}

// FogParameter returns the packed fog shader constant. Degenerate fog
// ranges are clamped so the shader never divides by zero: the start
// distance may not pass the end distance, and the range is kept at
// least Epsilon wide.
func (c *Camera) FogParameter() mgl32.Vec4 {
	farClip := c.FarClip
	fogStart := math32.Min(c.FogStart, farClip)
	fogEnd := math32.Min(c.FogEnd, farClip)
	if fogStart >= fogEnd*(1-LargeEpsilon) {
		fogStart = fogEnd * (1 - LargeEpsilon)
	}
	fogRange := math32.Max(fogEnd-fogStart, Epsilon)
	return mgl32.Vec4{fogEnd / farClip, farClip / fogRange, 0, 0}
}
