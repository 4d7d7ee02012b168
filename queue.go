package crucible

// DrawCommandQueue is the sink the compositor emits into. Keeping it
// an interface separates batch composition from command storage and
// GPU submission.
//
// Shader parameters are grouped by update frequency. A group is opened
// with BeginShaderParameterGroup, filled with AddShaderParameter, and
// sealed with CommitShaderParameterGroup; committed groups stay bound
// for every following draw until recommitted.
type DrawCommandQueue interface {
	// SetPipelineState switches the active pipeline state.
	SetPipelineState(state *PipelineState)

	// BeginShaderParameterGroup opens a parameter group for writing.
	// When dirty is false and the group has been committed before, the
	// previous data is reused: the call returns false and the caller
	// must neither add parameters nor commit.
	BeginShaderParameterGroup(group ShaderParameterGroup, dirty bool) bool
	// AddShaderParameter appends one named constant to the open group.
	AddShaderParameter(name ShaderParam, value any)
	// CommitShaderParameterGroup seals the open group.
	CommitShaderParameterGroup(group ShaderParameterGroup)

	// AddShaderResource stages one texture binding.
	AddShaderResource(unit TextureUnit, texture *Texture)
	// CommitShaderResources binds all staged textures.
	CommitShaderResources()

	// SetBuffers binds the geometry streams and, for instanced draws,
	// the per-instance data buffer.
	SetBuffers(vertexBuffers []*VertexBuffer, indexBuffer *IndexBuffer, instanceBuffer *InstanceBuffer)

	Draw(vertexStart, vertexCount uint32)
	DrawIndexed(indexStart, indexCount uint32)
	DrawIndexedInstanced(indexStart, indexCount, instanceStart, instanceCount uint32)
}

type DrawCommandKind uint8

const (
	DrawCommandSetPipelineState DrawCommandKind = iota
	DrawCommandCommitParameters
	DrawCommandCommitResources
	DrawCommandSetBuffers
	DrawCommandDraw
	DrawCommandDrawIndexed
	DrawCommandDrawIndexedInstanced
)

func (k DrawCommandKind) String() string {
	switch k {
	case DrawCommandSetPipelineState:
		return "set-pipeline-state"
	case DrawCommandCommitParameters:
		return "commit-parameters"
	case DrawCommandCommitResources:
		return "commit-resources"
	case DrawCommandSetBuffers:
		return "set-buffers"
	case DrawCommandDraw:
		return "draw"
	case DrawCommandDrawIndexed:
		return "draw-indexed"
	case DrawCommandDrawIndexedInstanced:
		return "draw-indexed-instanced"
	}
	return "unknown"
}

// DrawCommand is one recorded queue operation. Only the fields
// relevant to Kind are set.
type DrawCommand struct {
	Kind DrawCommandKind

	PipelineState *PipelineState

	Group      ShaderParameterGroup
	Parameters []ShaderParameterValue

	Resources []ShaderResourceBinding

	VertexBuffers  []*VertexBuffer
	IndexBuffer    *IndexBuffer
	InstanceBuffer *InstanceBuffer

	IndexStart    uint32
	IndexCount    uint32
	VertexStart   uint32
	VertexCount   uint32
	InstanceStart uint32
	InstanceCount uint32
}

// DrawCommandList records queue operations into a flat command slice
// that a backend replays later. It also enforces the group protocol:
// misuse is a bug in the calling code, so violations panic.
type DrawCommandList struct {
	commands []DrawCommand

	groupOpen     bool
	currentGroup  ShaderParameterGroup
	pendingParams []ShaderParameterValue

	committedGroups  [MaxShaderParameterGroups]bool
	pendingResources []ShaderResourceBinding
}

var _ DrawCommandQueue = (*DrawCommandList)(nil)

func NewDrawCommandList() *DrawCommandList {
	return &DrawCommandList{}
}

// Reset forgets all recorded commands and committed group state, so
// the list can record a new frame.
func (l *DrawCommandList) Reset() {
	l.commands = l.commands[:0]
	l.groupOpen = false
	l.pendingParams = l.pendingParams[:0]
	l.committedGroups = [MaxShaderParameterGroups]bool{}
	l.pendingResources = l.pendingResources[:0]
}

// Commands returns the recorded commands in submission order.
func (l *DrawCommandList) Commands() []DrawCommand {
	return l.commands
}

func (l *DrawCommandList) SetPipelineState(state *PipelineState) {
	if state == nil {
		panic("draw command list: nil pipeline state")
	}
	l.commands = append(l.commands, DrawCommand{Kind: DrawCommandSetPipelineState, PipelineState: state})
}

func (l *DrawCommandList) BeginShaderParameterGroup(group ShaderParameterGroup, dirty bool) bool {
	if l.groupOpen {
		panic("draw command list: BeginShaderParameterGroup while " + l.currentGroup.String() + " is open")
	}
	if !dirty && l.committedGroups[group] {
		return false
	}
	l.groupOpen = true
	l.currentGroup = group
	l.pendingParams = l.pendingParams[:0]
	return true
}

func (l *DrawCommandList) AddShaderParameter(name ShaderParam, value any) {
	if !l.groupOpen {
		panic("draw command list: AddShaderParameter without open group")
	}
	l.pendingParams = append(l.pendingParams, ShaderParameterValue{Name: name, Value: value})
}

func (l *DrawCommandList) CommitShaderParameterGroup(group ShaderParameterGroup) {
	if !l.groupOpen {
		panic("draw command list: CommitShaderParameterGroup without open group")
	}
	if group != l.currentGroup {
		panic("draw command list: commit of " + group.String() + " while " + l.currentGroup.String() + " is open")
	}
	params := make([]ShaderParameterValue, len(l.pendingParams))
	copy(params, l.pendingParams)
	l.commands = append(l.commands, DrawCommand{Kind: DrawCommandCommitParameters, Group: group, Parameters: params})
	l.committedGroups[group] = true
	l.groupOpen = false
}

func (l *DrawCommandList) AddShaderResource(unit TextureUnit, texture *Texture) {
	l.pendingResources = append(l.pendingResources, ShaderResourceBinding{Unit: unit, Texture: texture})
}

func (l *DrawCommandList) CommitShaderResources() {
	resources := make([]ShaderResourceBinding, len(l.pendingResources))
	copy(resources, l.pendingResources)
	l.commands = append(l.commands, DrawCommand{Kind: DrawCommandCommitResources, Resources: resources})
	l.pendingResources = l.pendingResources[:0]
}

func (l *DrawCommandList) SetBuffers(vertexBuffers []*VertexBuffer, indexBuffer *IndexBuffer, instanceBuffer *InstanceBuffer) {
	if len(vertexBuffers) == 0 {
		panic("draw command list: SetBuffers without vertex buffers")
	}
	buffers := make([]*VertexBuffer, len(vertexBuffers))
	copy(buffers, vertexBuffers)
	l.commands = append(l.commands, DrawCommand{
		Kind:           DrawCommandSetBuffers,
		VertexBuffers:  buffers,
		IndexBuffer:    indexBuffer,
		InstanceBuffer: instanceBuffer,
	})
}

func (l *DrawCommandList) Draw(vertexStart, vertexCount uint32) {
	l.checkDrawState()
	l.commands = append(l.commands, DrawCommand{Kind: DrawCommandDraw, VertexStart: vertexStart, VertexCount: vertexCount})
}

func (l *DrawCommandList) DrawIndexed(indexStart, indexCount uint32) {
	l.checkDrawState()
	l.commands = append(l.commands, DrawCommand{Kind: DrawCommandDrawIndexed, IndexStart: indexStart, IndexCount: indexCount})
}

func (l *DrawCommandList) DrawIndexedInstanced(indexStart, indexCount, instanceStart, instanceCount uint32) {
	l.checkDrawState()
	l.commands = append(l.commands, DrawCommand{
		Kind:          DrawCommandDrawIndexedInstanced,
		IndexStart:    indexStart,
		IndexCount:    indexCount,
		InstanceStart: instanceStart,
		InstanceCount: instanceCount,
	})
}

func (l *DrawCommandList) checkDrawState() {
	if l.groupOpen {
		panic("draw command list: draw while " + l.currentGroup.String() + " group is open")
	}
}
