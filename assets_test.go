package crucible

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetServer_ProceduralGeometries(t *testing.T) {
	server := NewAssetServer(NewNopLogger())

	quad := server.Geometry(server.CreateQuadGeometry("quad"))
	require.NotNil(t, quad)
	assert.Equal(t, uint32(4), quad.VertexCount)
	assert.Equal(t, uint32(6), quad.IndexCount)
	assert.Equal(t, uint32(2), quad.PrimitiveCount())

	cube := server.Geometry(server.CreateCubeGeometry("cube"))
	require.NotNil(t, cube)
	assert.Equal(t, uint32(24), cube.VertexCount)
	assert.Equal(t, uint32(36), cube.IndexCount)
	assert.Equal(t, uint32(12), cube.PrimitiveCount())

	sphere := server.Geometry(server.CreateSphereGeometry("sphere", 8, 16))
	require.NotNil(t, sphere)
	assert.Equal(t, uint32(9*17), sphere.VertexCount)
	// Pole rings contribute one triangle per sector, inner rings two.
	assert.Equal(t, uint32((2*8-2)*16), sphere.PrimitiveCount())

	assert.Len(t, server.Geometries(), 3)
}

func TestAssetServer_SphereClampsTessellation(t *testing.T) {
	server := NewAssetServer(nil)
	sphere := server.Geometry(server.CreateSphereGeometry("tiny sphere", 0, 0))
	require.NotNil(t, sphere)

	// Minimum tessellation is 2 rings by 3 sectors.
	assert.Equal(t, uint32(3*4), sphere.VertexCount)
	assert.Equal(t, uint32(6), sphere.PrimitiveCount())
}

func TestAssetServer_CheckerTexture(t *testing.T) {
	server := NewAssetServer(NewNopLogger())
	id := server.CreateCheckerTexture("checker", 8, 2, NewColor(1, 1, 1), NewColor(0, 0, 0))
	texture := server.Texture(id)
	require.NotNil(t, texture)

	assert.Equal(t, uint32(8), texture.Width)
	assert.Equal(t, uint32(8), texture.Height)

	pixel := func(x, y uint32) [4]byte {
		offset := (y*texture.Width + x) * 4
		return [4]byte(texture.Levels[0][offset : offset+4])
	}
	assert.Equal(t, [4]byte{255, 255, 255, 255}, pixel(0, 0))
	assert.Equal(t, [4]byte{0, 0, 0, 255}, pixel(4, 0))
	assert.Equal(t, [4]byte{0, 0, 0, 255}, pixel(0, 4))
	assert.Equal(t, [4]byte{255, 255, 255, 255}, pixel(4, 4))

	// 8x8 down to 1x1.
	require.Equal(t, uint32(4), texture.MipLevels())
	assert.Len(t, texture.Levels[1], 4*4*4)
	assert.Len(t, texture.Levels[3], 4)
}

func TestAssetServer_LitMaterial(t *testing.T) {
	server := NewAssetServer(NewNopLogger())
	diffuse := server.CreateCheckerTexture("lit diffuse", 4, 2, NewColor(1, 1, 1), NewColor(0, 0, 0))

	material := server.Material(server.CreateLitMaterial("lit", diffuse))
	require.NotNil(t, material)

	params := material.Parameters()
	require.Len(t, params, 3)
	assert.Equal(t, ParamMatDiffColor, params[0].Name)
	assert.Equal(t, ParamMatSpecColor, params[1].Name)
	assert.Equal(t, ParamMatEmissiveColor, params[2].Name)
	assert.Same(t, server.Texture(diffuse), material.Texture(TextureUnitDiffuse))

	// A zero diffuse id leaves the unit unbound.
	plain := server.Material(server.CreateLitMaterial("plain", ""))
	require.NotNil(t, plain)
	assert.Nil(t, plain.Texture(TextureUnitDiffuse))
}

func TestAssetServer_LoadTexture(t *testing.T) {
	server := NewAssetServer(NewNopLogger())
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: byte(x * 60), G: byte(y * 120), B: 32, A: 255})
		}
	}
	path := filepath.Join(dir, "loaded.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, img))
	require.NoError(t, file.Close())

	id, err := server.LoadTexture(path)
	require.NoError(t, err)
	texture := server.Texture(id)
	require.NotNil(t, texture)

	assert.Equal(t, "loaded.png", texture.Name)
	assert.Equal(t, uint32(4), texture.Width)
	assert.Equal(t, uint32(2), texture.Height)
	assert.Equal(t, []byte{60, 0, 32, 255}, texture.Levels[0][4:8])

	// 4x2 halves to 2x1, then 1x1.
	assert.Equal(t, uint32(3), texture.MipLevels())
}

func TestAssetServer_LoadTextureErrors(t *testing.T) {
	server := NewAssetServer(NewNopLogger())
	dir := t.TempDir()

	_, err := server.LoadTexture(filepath.Join(dir, "missing.png"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = server.LoadTexture(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode texture")
}

func TestAssetServer_UnknownIdsReturnNil(t *testing.T) {
	server := NewAssetServer(nil)
	assert.Nil(t, server.Geometry("nope"))
	assert.Nil(t, server.Texture("nope"))
	assert.Nil(t, server.Material("nope"))
}
