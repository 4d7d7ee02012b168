package crucible

import "hash/fnv"

// BlendMode selects the fixed-function blend configuration.
type BlendMode uint8

const (
	BlendReplace BlendMode = iota
	BlendAlpha
	BlendAdditive
)

// CullMode selects triangle face culling.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// PipelineStateDesc is the immutable description a pipeline state is built
// from. GPU-facing queues translate it into a concrete pipeline object.
type PipelineStateDesc struct {
	Name          string
	VertexShader  string
	PixelShader   string
	ShaderDefines string

	DepthWrite        bool
	DepthTest         bool
	ConstantDepthBias float32

	Blend BlendMode
	Cull  CullMode
}

// PipelineState is an immutable handle over a PipelineStateDesc. Identity
// drives state diffing; the shader id groups states compiled from the same
// program in sort keys.
type PipelineState struct {
	id       uint32
	shaderID uint32
	desc     PipelineStateDesc
}

func NewPipelineState(desc PipelineStateDesc) *PipelineState {
	h := fnv.New32a()
	h.Write([]byte(desc.VertexShader))
	h.Write([]byte{0})
	h.Write([]byte(desc.PixelShader))
	h.Write([]byte{0})
	h.Write([]byte(desc.ShaderDefines))
	return &PipelineState{
		id:       nextObjectID(),
		shaderID: h.Sum32(),
		desc:     desc,
	}
}

func (s *PipelineState) ObjectID() uint32 { return s.id }

func (s *PipelineState) ShaderID() uint32 { return s.shaderID }

func (s *PipelineState) Desc() *PipelineStateDesc { return &s.desc }

func (s *PipelineState) ConstantDepthBias() float32 { return s.desc.ConstantDepthBias }
