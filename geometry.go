package crucible

// GeometryType tells the compositor how the object transforms feed the
// shader. Only static geometry is eligible for instancing.
type GeometryType uint8

const (
	GeometryStatic GeometryType = iota
	GeometrySkinned
	GeometryBillboard
	GeometryDirectionalBillboard
	GeometryTrailFaceCamera
	GeometryTrailBone
)

func (t GeometryType) String() string {
	switch t {
	case GeometryStatic:
		return "static"
	case GeometrySkinned:
		return "skinned"
	case GeometryBillboard:
		return "billboard"
	case GeometryDirectionalBillboard:
		return "dirbillboard"
	case GeometryTrailFaceCamera:
		return "trail-face-camera"
	case GeometryTrailBone:
		return "trail-bone"
	}
	return "unknown"
}

// VertexBuffer is a CPU-side vertex buffer description. GPU-facing command
// queues resolve it to a device buffer on first use; the compositor only
// cares about identity.
type VertexBuffer struct {
	id          uint32
	Name        string
	Stride      uint32
	VertexCount uint32
	Data        []byte
}

func NewVertexBuffer(name string, stride uint32, data []byte) *VertexBuffer {
	if stride == 0 {
		panic("crucible: vertex buffer stride must be positive")
	}
	return &VertexBuffer{
		id:          nextObjectID(),
		Name:        name,
		Stride:      stride,
		VertexCount: uint32(len(data)) / stride,
		Data:        data,
	}
}

// IndexBuffer holds 32-bit indices.
type IndexBuffer struct {
	id      uint32
	Name    string
	Indices []uint32
}

func NewIndexBuffer(name string, indices []uint32) *IndexBuffer {
	return &IndexBuffer{id: nextObjectID(), Name: name, Indices: indices}
}

func (b *VertexBuffer) ObjectID() uint32 { return b.id }

func (b *IndexBuffer) ObjectID() uint32 { return b.id }

// Geometry is one drawable range over a set of vertex buffers and an
// optional index buffer. A nil index buffer means plain vertex-range draws.
type Geometry struct {
	id   uint32
	Name string

	VertexBuffers []*VertexBuffer
	IndexBuffer   *IndexBuffer

	IndexStart  uint32
	IndexCount  uint32
	VertexStart uint32
	VertexCount uint32
}

// NewGeometry builds a geometry covering the full range of its buffers.
func NewGeometry(name string, vertexBuffers []*VertexBuffer, indexBuffer *IndexBuffer) *Geometry {
	g := &Geometry{
		id:            nextObjectID(),
		Name:          name,
		VertexBuffers: vertexBuffers,
		IndexBuffer:   indexBuffer,
	}
	if indexBuffer != nil {
		g.IndexCount = uint32(len(indexBuffer.Indices))
	}
	if len(vertexBuffers) > 0 {
		g.VertexCount = vertexBuffers[0].VertexCount
	}
	return g
}

func (g *Geometry) ObjectID() uint32 { return g.id }

// PrimitiveCount assumes a triangle list, which every geometry in this
// renderer uses.
func (g *Geometry) PrimitiveCount() uint32 {
	if g.IndexBuffer != nil {
		return g.IndexCount / 3
	}
	return g.VertexCount / 3
}
