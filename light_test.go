package crucible

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNewLight_Defaults(t *testing.T) {
	l := NewLight(LightPoint)
	if l.Type != LightPoint {
		t.Errorf("Type = %v, want point", l.Type)
	}
	if l.Color != NewColor(1, 1, 1) {
		t.Errorf("Color = %+v, want white", l.Color)
	}
	if l.Range != 10 || l.FOV != 30 || l.AspectRatio != 1 {
		t.Errorf("Range/FOV/aspect = %v/%v/%v", l.Range, l.FOV, l.AspectRatio)
	}
	if got := l.Direction(); !vec3Near(got, mgl32.Vec3{0, 0, -1}, testEpsilon) {
		t.Errorf("default Direction = %v, want (0 0 -1)", got)
	}
}

func TestLight_Direction(t *testing.T) {
	l := NewLight(LightDirectional)
	l.Rotation = mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 1, 0})
	// Rotating -z a quarter turn around +y lands on -x.
	if got := l.Direction(); !vec3Near(got, mgl32.Vec3{-1, 0, 0}, testEpsilon) {
		t.Errorf("Direction = %v, want (-1 0 0)", got)
	}
}

func TestNewSceneLight_Point(t *testing.T) {
	l := NewLight(LightPoint)
	l.Position = mgl32.Vec3{1, 2, 3}
	l.Range = 4
	l.SpecularIntensity = 0.75

	params := NewSceneLight(l).Params
	// Non-spot lights get a cutoff of -2 so the spot attenuation term
	// saturates to full for every direction.
	if params.Cutoff != -2 {
		t.Errorf("Cutoff = %v, want -2", params.Cutoff)
	}
	if !floatNear(params.InvCutoff, 1.0/3, testEpsilon) {
		t.Errorf("InvCutoff = %v, want 1/3", params.InvCutoff)
	}
	if !floatNear(params.InvRange, 0.25, testEpsilon) {
		t.Errorf("InvRange = %v, want 0.25", params.InvRange)
	}
	// The cooked direction points towards the light, not along it.
	if !vec3Near(params.Direction, mgl32.Vec3{0, 0, 1}, testEpsilon) {
		t.Errorf("Direction = %v, want (0 0 1)", params.Direction)
	}
	if params.Position != l.Position {
		t.Errorf("Position = %v, want %v", params.Position, l.Position)
	}
	if params.SpecularIntensity != 0.75 {
		t.Errorf("SpecularIntensity = %v, want 0.75", params.SpecularIntensity)
	}
	if params.NumLightMatrices != 0 || params.ShadowMap != nil {
		t.Errorf("shadow state not zero: %d matrices, map %v", params.NumLightMatrices, params.ShadowMap)
	}
}

func TestNewSceneLight_Spot(t *testing.T) {
	l := NewLight(LightSpot)
	l.FOV = 60

	params := NewSceneLight(l).Params
	wantCutoff := math32.Cos(mgl32.DegToRad(30))
	if !floatNear(params.Cutoff, wantCutoff, testEpsilon) {
		t.Errorf("Cutoff = %v, want cos(30) = %v", params.Cutoff, wantCutoff)
	}
	if !floatNear(params.InvCutoff, 1/(1-wantCutoff), 1e-4) {
		t.Errorf("InvCutoff = %v, want %v", params.InvCutoff, 1/(1-wantCutoff))
	}
}

func TestNewSceneLight_Directional(t *testing.T) {
	l := NewLight(LightDirectional)
	l.Range = 50

	// Directional lights have no positional falloff regardless of the
	// configured range.
	if got := NewSceneLight(l).Params.InvRange; got != 0 {
		t.Errorf("InvRange = %v, want 0", got)
	}

	p := NewLight(LightPoint)
	p.Range = 0
	if got := NewSceneLight(p).Params.InvRange; got != 0 {
		t.Errorf("InvRange with zero range = %v, want 0", got)
	}
}

func TestLightShaderParameters_ColorValue(t *testing.T) {
	l := NewLight(LightPoint)
	l.Color = NewColor(0.5, 0.5, 0.5)
	params := NewSceneLight(l).Params

	if got := params.ColorValue(false); !vec3Near(got, mgl32.Vec3{0.5, 0.5, 0.5}, testEpsilon) {
		t.Errorf("ColorValue without gamma correction = %v", got)
	}
	want := NewColor(0.5, 0.5, 0.5).GammaToLinear().Vec3()
	if got := params.ColorValue(true); !vec3Near(got, want, testEpsilon) {
		t.Errorf("ColorValue with gamma correction = %v, want %v", got, want)
	}
}

func TestLight_VolumeTransformPoint(t *testing.T) {
	l := NewLight(LightPoint)
	l.Position = mgl32.Vec3{1, 2, 3}
	l.Range = 5
	// Point volumes are spheres; orientation must not leak in.
	l.Rotation = mgl32.QuatRotate(1.2, mgl32.Vec3{1, 0, 0})

	got := l.VolumeTransform(NewCamera())
	want := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(5, 5, 5))
	if !mat4Near(got, want, testEpsilon) {
		t.Errorf("point volume = %v, want %v", got, want)
	}
}

func TestLight_VolumeTransformSpot(t *testing.T) {
	l := NewLight(LightSpot)
	l.Position = mgl32.Vec3{-2, 0, 4}
	l.Rotation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	l.Range = 4
	l.FOV = 90

	got := l.VolumeTransform(NewCamera())
	// The cone is padded slightly past the range so attenuated pixels
	// on the boundary stay inside the volume.
	safeRange := l.Range * 1.001
	yScale := math32.Tan(mgl32.DegToRad(45)) * safeRange
	want := mgl32.Translate3D(-2, 0, 4).
		Mul4(l.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(yScale, yScale, safeRange))
	if !mat4Near(got, want, 1e-4) {
		t.Errorf("spot volume = %v, want %v", got, want)
	}
}

func TestLight_VolumeTransformDirectional(t *testing.T) {
	l := NewLight(LightDirectional)
	camera := NewCamera()
	camera.Position = mgl32.Vec3{0, 3, 0}

	got := l.VolumeTransform(camera)
	// A camera-facing quad halfway between the clip planes, sized to
	// the far frustum plane.
	_, far := camera.FrustumSize()
	want := camera.WorldTransform().
		Mul4(mgl32.Translate3D(0, 0, -(camera.NearClip+camera.FarClip)*0.5)).
		Mul4(mgl32.Scale3D(far.X(), far.Y(), 1))
	if !mat4Near(got, want, 1e-3) {
		t.Errorf("directional volume = %v, want %v", got, want)
	}
}
