package crucible

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// DebugFrameSnapshotBatch is one batch as captured for a frame
// snapshot.
type DebugFrameSnapshotBatch struct {
	DrawableIndex    uint32
	SourceBatchIndex uint32
	Geometry         *Geometry
	Material         *Material
	Light            *Light
	LightIndex       uint32
	PipelineState    *PipelineState
	Distance         float32
	NumVertices      uint32
	NumPrimitives    uint32

	// NewInstancingGroup marks batches that broke state from their
	// predecessor; continuation batches can be merged into instanced
	// draws.
	NewInstancingGroup bool
	// LightVolume marks deferred light volume batches, which have no
	// source batch.
	LightVolume bool
}

func NewDebugFrameSnapshotBatch(frame *FrameData, batch *PipelineBatch, newInstancingGroup bool) DebugFrameSnapshotBatch {
	b := DebugFrameSnapshotBatch{
		DrawableIndex:      batch.DrawableIndex,
		SourceBatchIndex:   batch.SourceBatchIndex,
		Geometry:           batch.Geometry,
		Material:           batch.Material,
		LightIndex:         batch.PixelLightIndex,
		PipelineState:      batch.PipelineState,
		Distance:           batch.Distance,
		NumVertices:        batch.Geometry.VertexCount,
		NumPrimitives:      batch.Geometry.PrimitiveCount(),
		NewInstancingGroup: newInstancingGroup,
		LightVolume:        batch.Source == nil,
	}
	if batch.PixelLightIndex != InvalidIndex && int(batch.PixelLightIndex) < len(frame.Lights) {
		b.Light = frame.Lights[batch.PixelLightIndex].Light
	}
	return b
}

func (b *DebugFrameSnapshotBatch) String() string {
	bullet := "."
	if b.NewInstancingGroup {
		bullet = "*"
	}

	lightName := "null"
	if b.Light != nil {
		lightName = b.Light.Name
		if lightName == "" {
			lightName = fmt.Sprintf("light %d", b.LightIndex)
		}
	}

	materialName := "null"
	if b.Material != nil {
		materialName = b.Material.Name
	}

	geometryText := "Light volume geometry for"
	if !b.LightVolume {
		geometryText = fmt.Sprintf("[%s].%d with material [%s] lit with",
			b.Geometry.Name, b.SourceBatchIndex, materialName)
	}

	details := fmt.Sprintf("distance=%.2f state=%d geometry=%d material=%d",
		b.Distance, b.PipelineState.ObjectID(), b.Geometry.ObjectID(), b.Material.ObjectID())

	return fmt.Sprintf("%s %dv %dt %s [%s] (%s)",
		bullet, b.NumVertices, b.NumPrimitives, geometryText, lightName, details)
}

// DebugFrameSnapshotQuad is a reported full-screen quad, such as a
// deferred resolve pass.
type DebugFrameSnapshotQuad struct {
	Comment string
	Width   int
	Height  int
}

func (q *DebugFrameSnapshotQuad) String() string {
	size := ""
	if q.Width != 0 || q.Height != 0 {
		size = fmt.Sprintf(" %dx%d", q.Width, q.Height)
	}
	return fmt.Sprintf("+ [quad%s] %s", size, q.Comment)
}

type DebugFrameSnapshotPass struct {
	Name    string
	Batches []DebugFrameSnapshotBatch
	Quads   []DebugFrameSnapshotQuad
}

func (p *DebugFrameSnapshotPass) String() string {
	numBatches := len(p.Batches) + len(p.Quads)
	numVertices := uint32(0)
	numPrimitives := uint32(0)

	var body strings.Builder
	for i := range p.Batches {
		body.WriteString(p.Batches[i].String())
		body.WriteByte('\n')
		numVertices += p.Batches[i].NumVertices
		numPrimitives += p.Batches[i].NumPrimitives
	}
	for i := range p.Quads {
		body.WriteString(p.Quads[i].String())
		body.WriteByte('\n')
		numVertices += 4
		numPrimitives += 2
	}

	return fmt.Sprintf("Pass %s - %db %dv %dt:\n\n%s\n",
		p.Name, numBatches, numVertices, numPrimitives, body.String())
}

type debugShaderRef struct {
	Kind    string
	Name    string
	Defines string
}

// DebugFrameSnapshot is a full capture of one rendered frame: every
// reported batch grouped by pass, plus the distinct pipeline states,
// materials and shaders the frame touched.
type DebugFrameSnapshot struct {
	Passes []DebugFrameSnapshotPass

	scenePipelineStates map[uint32]*PipelineState
	sceneMaterials      map[uint32]*Material
	sceneShaders        map[debugShaderRef]struct{}
}

func newDebugFrameSnapshot() DebugFrameSnapshot {
	return DebugFrameSnapshot{
		scenePipelineStates: make(map[uint32]*PipelineState),
		sceneMaterials:      make(map[uint32]*Material),
		sceneShaders:        make(map[debugShaderRef]struct{}),
	}
}

func (s *DebugFrameSnapshot) String() string {
	var out strings.Builder
	for i := range s.Passes {
		out.WriteString(s.Passes[i].String())
	}
	fmt.Fprintf(&out, "Pipeline states in scene (%d): \n\n%s\n", len(s.scenePipelineStates), s.PipelineStatesString())
	fmt.Fprintf(&out, "Materials in scene (%d): \n\n%s\n", len(s.sceneMaterials), s.MaterialsString())
	fmt.Fprintf(&out, "Shaders in scene (%d): \n\n%s\n", len(s.sceneShaders), s.ShadersString())
	return out.String()
}

func (s *DebugFrameSnapshot) PipelineStatesString() string {
	states := make([]*PipelineState, 0, len(s.scenePipelineStates))
	for _, state := range s.scenePipelineStates {
		states = append(states, state)
	}
	slices.SortFunc(states, func(a, b *PipelineState) int {
		if c := cmp.Compare(a.Desc().VertexShader, b.Desc().VertexShader); c != 0 {
			return c
		}
		return cmp.Compare(a.Desc().PixelShader, b.Desc().PixelShader)
	})

	var out strings.Builder
	for _, state := range states {
		desc := state.Desc()
		fmt.Fprintf(&out, "- %d: VS=%s PS=%s\n", state.ObjectID(), desc.VertexShader, desc.PixelShader)
	}
	return out.String()
}

func (s *DebugFrameSnapshot) MaterialsString() string {
	materials := make([]*Material, 0, len(s.sceneMaterials))
	for _, material := range s.sceneMaterials {
		materials = append(materials, material)
	}
	slices.SortFunc(materials, func(a, b *Material) int {
		return cmp.Compare(a.Name, b.Name)
	})

	var out strings.Builder
	for _, material := range materials {
		name := material.Name
		if name == "" {
			name = "Unnamed"
		}
		fmt.Fprintf(&out, "- %d: %s\n", material.ObjectID(), name)
	}
	return out.String()
}

func (s *DebugFrameSnapshot) ShadersString() string {
	shaders := make([]debugShaderRef, 0, len(s.sceneShaders))
	for shader := range s.sceneShaders {
		shaders = append(shaders, shader)
	}
	slices.SortFunc(shaders, func(a, b debugShaderRef) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Defines, b.Defines)
	})

	var out strings.Builder
	for _, shader := range shaders {
		fmt.Fprintf(&out, "- [%s]%s: %s\n", shader.Kind, shader.Name, shader.Defines)
	}
	return out.String()
}

// RenderDebugger captures a snapshot of one rendered frame for
// inspection. Begin a snapshot, render the frame, end the snapshot,
// then read or print the result. A nil debugger is valid and always
// inactive.
type RenderDebugger struct {
	inProgress     bool
	passInProgress bool
	snapshot       DebugFrameSnapshot
}

func NewRenderDebugger() *RenderDebugger {
	return &RenderDebugger{snapshot: newDebugFrameSnapshot()}
}

func (d *RenderDebugger) BeginSnapshot() {
	d.inProgress = true
	d.passInProgress = false
	d.snapshot = newDebugFrameSnapshot()
}

func (d *RenderDebugger) EndSnapshot() {
	d.inProgress = false
	d.passInProgress = false
}

func (d *RenderDebugger) SnapshotInProgress() bool {
	return d != nil && d.inProgress
}

func (d *RenderDebugger) BeginPass(name string) {
	if d.passInProgress {
		d.EndPass()
	}
	d.snapshot.Passes = append(d.snapshot.Passes, DebugFrameSnapshotPass{Name: name})
	d.passInProgress = true
}

func (d *RenderDebugger) ReportSceneBatch(batch DebugFrameSnapshotBatch) {
	if !d.passInProgress {
		d.BeginPass("Unnamed")
	}
	pass := &d.snapshot.Passes[len(d.snapshot.Passes)-1]
	pass.Batches = append(pass.Batches, batch)

	d.snapshot.scenePipelineStates[batch.PipelineState.ObjectID()] = batch.PipelineState
	d.snapshot.sceneMaterials[batch.Material.ObjectID()] = batch.Material

	desc := batch.PipelineState.Desc()
	d.snapshot.sceneShaders[debugShaderRef{Kind: "VS", Name: desc.VertexShader, Defines: desc.ShaderDefines}] = struct{}{}
	d.snapshot.sceneShaders[debugShaderRef{Kind: "PS", Name: desc.PixelShader, Defines: desc.ShaderDefines}] = struct{}{}
}

func (d *RenderDebugger) ReportQuad(comment string, width, height int) {
	if !d.passInProgress {
		d.BeginPass("Unnamed")
	}
	pass := &d.snapshot.Passes[len(d.snapshot.Passes)-1]
	pass.Quads = append(pass.Quads, DebugFrameSnapshotQuad{Comment: comment, Width: width, Height: height})
}

func (d *RenderDebugger) EndPass() {
	d.passInProgress = false
}

func (d *RenderDebugger) Snapshot() *DebugFrameSnapshot {
	return &d.snapshot
}
