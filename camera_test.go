package crucible

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// clipDepth projects a view-space z through the given matrix and
// returns the normalized depth after the perspective divide.
func clipDepth(m mgl32.Mat4, z float32) float32 {
	v := m.Mul4x1(mgl32.Vec4{0.3, -0.2, z, 1})
	return v.Z() / v.W()
}

func TestNewCamera_Defaults(t *testing.T) {
	c := NewCamera()
	if c.Rotation != mgl32.QuatIdent() {
		t.Errorf("Rotation = %v, want identity", c.Rotation)
	}
	if c.NearClip != 0.1 || c.FarClip != 1000 {
		t.Errorf("clip planes = %v..%v, want 0.1..1000", c.NearClip, c.FarClip)
	}
	if c.FOV != 45 || c.AspectRatio != 1 || c.Zoom != 1 {
		t.Errorf("FOV/aspect/zoom = %v/%v/%v", c.FOV, c.AspectRatio, c.Zoom)
	}
	if c.AmbientBrightness != 1 {
		t.Errorf("AmbientBrightness = %v, want 1", c.AmbientBrightness)
	}
	if c.FogStart != 250 || c.FogEnd != 1000 {
		t.Errorf("fog range = %v..%v, want 250..1000", c.FogStart, c.FogEnd)
	}
}

func TestCamera_PerspectiveDepthRange(t *testing.T) {
	c := NewCamera()
	proj := c.Projection()

	// Clip depth spans 0..1: 0 on the near plane, 1 on the far plane.
	if got := clipDepth(proj, -c.NearClip); !floatNear(got, 0, 1e-4) {
		t.Errorf("depth at near plane = %v, want 0", got)
	}
	if got := clipDepth(proj, -c.FarClip); !floatNear(got, 1, 1e-4) {
		t.Errorf("depth at far plane = %v, want 1", got)
	}
	mid := clipDepth(proj, -10)
	if mid <= 0 || mid >= 1 {
		t.Errorf("depth between the planes = %v, want inside (0, 1)", mid)
	}
}

func TestCamera_OrthographicDepthRange(t *testing.T) {
	c := NewCamera()
	c.Orthographic = true
	proj := c.Projection()

	if got := clipDepth(proj, 0); !floatNear(got, 0, 1e-6) {
		t.Errorf("depth at the camera = %v, want 0", got)
	}
	if got := clipDepth(proj, -c.FarClip); !floatNear(got, 1, 1e-5) {
		t.Errorf("depth at far plane = %v, want 1", got)
	}
}

func TestCamera_ViewInvertsWorldTransform(t *testing.T) {
	c := NewCamera()
	c.Position = mgl32.Vec3{3, -4, 5}
	c.Rotation = mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0})

	product := c.View().Mul4(c.WorldTransform())
	if !mat4Near(product, mgl32.Ident4(), testEpsilon) {
		t.Errorf("View * WorldTransform = %v, want identity", product)
	}
}

func TestCamera_LookAt(t *testing.T) {
	up := mgl32.Vec3{0, 1, 0}

	c := NewCamera()
	c.Position = mgl32.Vec3{0, 0, 10}
	c.LookAt(mgl32.Vec3{0, 0, 0}, up)
	// The camera's forward axis is -z in local space; after LookAt it
	// must point from the position towards the target.
	forward := c.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
	if !vec3Near(forward, mgl32.Vec3{0, 0, -1}, testEpsilon) {
		t.Errorf("forward = %v, want (0 0 -1)", forward)
	}
	if got := c.Rotation.Rotate(up); !vec3Near(got, up, testEpsilon) {
		t.Errorf("up = %v, want %v", got, up)
	}

	c.Position = mgl32.Vec3{5, 1, 0}
	c.LookAt(mgl32.Vec3{0, 1, 0}, up)
	forward = c.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
	if !vec3Near(forward, mgl32.Vec3{-1, 0, 0}, testEpsilon) {
		t.Errorf("forward = %v, want (-1 0 0)", forward)
	}
	if got := c.Rotation.Rotate(up); !vec3Near(got, up, testEpsilon) {
		t.Errorf("up = %v, want %v", got, up)
	}
}

func TestCamera_EffectiveViewProjectionBias(t *testing.T) {
	c := NewCamera()

	// The folded constant bias shifts normalized depth by 2*bias,
	// independent of the distance: the w divide cancels it out.
	const bias = 0.01
	for _, z := range []float32{-1, -10, -500} {
		base := clipDepth(c.EffectiveViewProjection(0), z)
		biased := clipDepth(c.EffectiveViewProjection(bias), z)
		if got := biased - base; !floatNear(got, 2*bias, 1e-4) {
			t.Errorf("depth shift at z=%v is %v, want %v", z, got, 2*bias)
		}
	}

	c.Orthographic = true
	base := clipDepth(c.EffectiveViewProjection(0), -100)
	biased := clipDepth(c.EffectiveViewProjection(bias), -100)
	if got := biased - base; !floatNear(got, 2*bias, 1e-5) {
		t.Errorf("orthographic depth shift = %v, want %v", got, 2*bias)
	}

	// With no bias this is plain projection * view.
	c.Orthographic = false
	c.Position = mgl32.Vec3{1, 2, 3}
	want := c.Projection().Mul4(c.View())
	if got := c.EffectiveViewProjection(0); !mat4Near(got, want, testEpsilon) {
		t.Errorf("EffectiveViewProjection(0) differs from Projection*View")
	}
}

func TestCamera_DepthMode(t *testing.T) {
	c := NewCamera()
	if got := c.DepthMode(); got != (mgl32.Vec4{0, 0, 0, 1 / c.FarClip}) {
		t.Errorf("perspective DepthMode = %v", got)
	}
	c.Orthographic = true
	if got := c.DepthMode(); got != (mgl32.Vec4{1, 0, 1, 0}) {
		t.Errorf("orthographic DepthMode = %v", got)
	}
}

func TestCamera_DepthReconstruct(t *testing.T) {
	c := NewCamera()
	c.NearClip = 0.5
	c.FarClip = 100

	got := c.DepthReconstruct()
	want := mgl32.Vec4{100 / 99.5, -0.5 / 99.5, 0, 1}
	if !vec4Near(got, want, testEpsilon) {
		t.Errorf("perspective DepthReconstruct = %v, want %v", got, want)
	}

	c.Orthographic = true
	got = c.DepthReconstruct()
	if got[2] != 1 || got[3] != 0 {
		t.Errorf("orthographic DepthReconstruct selector = %v, want (.. 1 0)", got)
	}
}

func TestCamera_FrustumSize(t *testing.T) {
	c := NewCamera()
	c.FOV = 90
	c.AspectRatio = 2
	c.NearClip = 1
	c.FarClip = 100

	// tan(45) = 1, so the half height equals the plane distance.
	near, far := c.FrustumSize()
	if !vec3Near(near, mgl32.Vec3{2, 1, 1}, 1e-4) {
		t.Errorf("near frustum = %v, want (2 1 1)", near)
	}
	if !vec3Near(far, mgl32.Vec3{200, 100, 100}, 1e-2) {
		t.Errorf("far frustum = %v, want (200 100 100)", far)
	}

	c.Orthographic = true
	c.OrthoSize = 20
	c.Zoom = 2
	near, far = c.FrustumSize()
	if !floatNear(near.Y(), 5, testEpsilon) || !floatNear(far.Y(), 5, testEpsilon) {
		t.Errorf("orthographic half heights = %v / %v, want 5", near.Y(), far.Y())
	}
	if !floatNear(far.X(), 10, testEpsilon) {
		t.Errorf("orthographic half width = %v, want 10", far.X())
	}
}

func TestCamera_FogParameter(t *testing.T) {
	c := NewCamera()
	c.FarClip = 100
	c.FogStart = 10
	c.FogEnd = 50

	got := c.FogParameter()
	want := mgl32.Vec4{0.5, 2.5, 0, 0}
	if !vec4Near(got, want, testEpsilon) {
		t.Errorf("FogParameter = %v, want %v", got, want)
	}

	// Fog past the far plane clamps to it.
	c.FogEnd = 500
	if got := c.FogParameter().X(); !floatNear(got, 1, testEpsilon) {
		t.Errorf("clamped fog end = %v, want 1", got)
	}
}

func TestCamera_FogParameterDegenerateRange(t *testing.T) {
	c := NewCamera()
	c.FarClip = 100
	c.FogStart = 80
	c.FogEnd = 50

	// An inverted range is clamped to a minimal width instead of
	// handing the shader a division by zero.
	got := c.FogParameter()
	if math32.IsInf(got.Y(), 0) || math32.IsNaN(got.Y()) {
		t.Fatalf("degenerate fog range produced %v", got.Y())
	}
	if got.Y() <= 0 {
		t.Errorf("fog scale = %v, want positive", got.Y())
	}
	if !floatNear(got.X(), 0.5, testEpsilon) {
		t.Errorf("fog end = %v, want 0.5", got.X())
	}

	c.FogStart = 50
	c.FogEnd = 50
	got = c.FogParameter()
	if math32.IsInf(got.Y(), 0) || got.Y() <= 0 {
		t.Errorf("zero-width fog range produced scale %v", got.Y())
	}
}
