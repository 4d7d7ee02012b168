package crucible

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// AssetId identifies one asset registered with an AssetServer.
type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// AssetServer builds and keeps the render assets a scene draws with:
// procedural geometries, textures and materials. The renderer itself only
// sees the resolved pointers; the server exists so callers can look assets
// up by id and so GPU queues can upload the whole set in one pass.
type AssetServer struct {
	log Logger

	geometries map[AssetId]*Geometry
	textures   map[AssetId]*Texture
	materials  map[AssetId]*Material
}

func NewAssetServer(log Logger) *AssetServer {
	if log == nil {
		log = NewNopLogger()
	}
	return &AssetServer{
		log:        log,
		geometries: make(map[AssetId]*Geometry),
		textures:   make(map[AssetId]*Texture),
		materials:  make(map[AssetId]*Material),
	}
}

func (server *AssetServer) Geometry(id AssetId) *Geometry { return server.geometries[id] }

func (server *AssetServer) Texture(id AssetId) *Texture { return server.textures[id] }

func (server *AssetServer) Material(id AssetId) *Material { return server.materials[id] }

// Geometries returns every registered geometry in unspecified order.
func (server *AssetServer) Geometries() []*Geometry {
	out := make([]*Geometry, 0, len(server.geometries))
	for _, g := range server.geometries {
		out = append(out, g)
	}
	return out
}

// Textures returns every registered texture in unspecified order.
func (server *AssetServer) Textures() []*Texture {
	out := make([]*Texture, 0, len(server.textures))
	for _, t := range server.textures {
		out = append(out, t)
	}
	return out
}

// Procedural geometries share one interleaved layout: position, normal and
// texcoord as packed float32.
const proceduralVertexStride = 8 * 4

func (server *AssetServer) registerGeometry(name string, verts []float32, indices []uint32) AssetId {
	vb := NewVertexBuffer(name, proceduralVertexStride, wgpu.ToBytes(verts))
	geometry := NewGeometry(name, []*VertexBuffer{vb}, NewIndexBuffer(name, indices))

	id := makeAssetId()
	server.geometries[id] = geometry
	server.log.Debugf("asset %s: geometry %q with %d vertices, %d indices", id, name, vb.VertexCount, len(indices))
	return id
}

// CreateQuadGeometry registers a unit quad in the XY plane facing +Z.
func (server *AssetServer) CreateQuadGeometry(name string) AssetId {
	verts := []float32{
		-0.5, -0.5, 0, 0, 0, 1, 0, 1,
		0.5, -0.5, 0, 0, 0, 1, 1, 1,
		-0.5, 0.5, 0, 0, 0, 1, 0, 0,
		0.5, 0.5, 0, 0, 0, 1, 1, 0,
	}
	indices := []uint32{0, 1, 2, 2, 1, 3}
	return server.registerGeometry(name, verts, indices)
}

// CreateCubeGeometry registers a unit cube centered on the origin, four
// vertices per face so normals and texcoords stay hard-edged.
func (server *AssetServer) CreateCubeGeometry(name string) AssetId {
	faces := [6]struct{ normal, right, up mgl32.Vec3 }{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	corners := [4]struct {
		du, dv float32
		u, v   float32
	}{
		{-0.5, -0.5, 0, 1},
		{0.5, -0.5, 1, 1},
		{-0.5, 0.5, 0, 0},
		{0.5, 0.5, 1, 0},
	}

	verts := make([]float32, 0, 6*4*8)
	indices := make([]uint32, 0, 6*6)
	for i, face := range faces {
		center := face.normal.Mul(0.5)
		for _, c := range corners {
			pos := center.Add(face.right.Mul(c.du)).Add(face.up.Mul(c.dv))
			verts = append(verts,
				pos.X(), pos.Y(), pos.Z(),
				face.normal.X(), face.normal.Y(), face.normal.Z(),
				c.u, c.v)
		}
		base := uint32(i * 4)
		indices = append(indices, base, base+1, base+2, base+2, base+1, base+3)
	}
	return server.registerGeometry(name, verts, indices)
}

// CreateSphereGeometry registers a UV sphere of radius 0.5. Rings and
// sectors below the minimum tessellation are clamped.
func (server *AssetServer) CreateSphereGeometry(name string, rings, sectors uint32) AssetId {
	rings = max(rings, 2)
	sectors = max(sectors, 3)

	verts := make([]float32, 0, (rings+1)*(sectors+1)*8)
	for r := uint32(0); r <= rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		for s := uint32(0); s <= sectors; s++ {
			theta := 2 * math32.Pi * float32(s) / float32(sectors)
			dir := mgl32.Vec3{
				math32.Sin(phi) * math32.Cos(theta),
				math32.Cos(phi),
				math32.Sin(phi) * math32.Sin(theta),
			}
			verts = append(verts,
				dir.X()*0.5, dir.Y()*0.5, dir.Z()*0.5,
				dir.X(), dir.Y(), dir.Z(),
				float32(s)/float32(sectors), float32(r)/float32(rings))
		}
	}

	indices := make([]uint32, 0, rings*sectors*6)
	for r := uint32(0); r < rings; r++ {
		for s := uint32(0); s < sectors; s++ {
			i0 := r*(sectors+1) + s
			i1 := i0 + 1
			i2 := i0 + sectors + 1
			i3 := i2 + 1
			if r != 0 {
				indices = append(indices, i0, i1, i2)
			}
			if r != rings-1 {
				indices = append(indices, i1, i3, i2)
			}
		}
	}
	return server.registerGeometry(name, verts, indices)
}

func (server *AssetServer) registerTexture(texture *Texture) AssetId {
	id := makeAssetId()
	server.textures[id] = texture
	server.log.Debugf("asset %s: texture %q %dx%d with %d mips",
		id, texture.Name, texture.Width, texture.Height, texture.MipLevels())
	return id
}

// CreateCheckerTexture registers a square checkerboard with a full mip
// chain. Cells is the number of checker cells along one edge.
func (server *AssetServer) CreateCheckerTexture(name string, size, cells uint32, even, odd Color) AssetId {
	if size == 0 {
		panic("asset server: checker texture size must be positive")
	}
	cells = min(max(cells, 1), size)
	cell := size / cells

	evenPix := colorRGBA8(even)
	oddPix := colorRGBA8(odd)
	pixels := make([]byte, size*size*4)
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			pix := evenPix
			if (x/cell+y/cell)%2 == 1 {
				pix = oddPix
			}
			copy(pixels[(y*size+x)*4:], pix[:])
		}
	}

	texture, err := NewTexture(name, size, size, pixels)
	if err != nil {
		panic(err)
	}
	texture.GenerateMips()
	return server.registerTexture(texture)
}

// LoadTexture registers a PNG file as an RGBA texture with a full mip chain.
func (server *AssetServer) LoadTexture(path string) (AssetId, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("load texture: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode texture %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}

	texture, err := NewTexture(filepath.Base(path), uint32(bounds.Dx()), uint32(bounds.Dy()), rgba.Pix)
	if err != nil {
		return "", err
	}
	texture.GenerateMips()
	return server.registerTexture(texture), nil
}

// CreateLitMaterial registers a material with the standard lit constants and
// an optional diffuse texture. A zero diffuse id leaves the unit unbound.
func (server *AssetServer) CreateLitMaterial(name string, diffuse AssetId) AssetId {
	material := NewMaterial(name)
	material.SetParameter(ParamMatDiffColor, NewColor(1, 1, 1).Vec4())
	material.SetParameter(ParamMatSpecColor, mgl32.Vec4{0, 0, 0, 1})
	material.SetParameter(ParamMatEmissiveColor, mgl32.Vec3{})
	if texture := server.textures[diffuse]; texture != nil {
		material.SetTexture(TextureUnitDiffuse, texture)
	}

	id := makeAssetId()
	server.materials[id] = material
	server.log.Debugf("asset %s: material %q", id, name)
	return id
}

func colorRGBA8(c Color) [4]byte {
	conv := func(v float32) byte {
		return byte(math32.Round(math32.Min(math32.Max(v, 0), 1) * 255))
	}
	return [4]byte{conv(c.R), conv(c.G), conv(c.B), conv(c.A)}
}
