package crucible

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Bind group assignment shared by every pipeline the queue creates. WebGPU
// guarantees only four bind groups, so the five parameter groups fold into
// them: frame and camera constants share group 0, the material group also
// hosts the sampler and one view per texture unit.
const (
	bindGroupShared   = 0
	bindGroupLight    = 1
	bindGroupMaterial = 2
	bindGroupObject   = 3

	numBindGroups              = 4
	materialTextureBindingBase = 2

	// Geometry vertex attributes: position, normal, texcoord.
	geometryAttrCount = 3

	// Uniform buffers are zero-padded to this floor so a binding always
	// covers the shader-side struct, committed or not.
	uniformBufferFloor = 1024
)

// WgpuPipelineConfig carries the target-dependent half of a pipeline:
// the WGSL source and the attachment formats. InstanceStride is the byte
// stride of the per-instance vertex stream, zero for non-instanced
// pipelines.
type WgpuPipelineConfig struct {
	ShaderSource   string
	ColorFormat    wgpu.TextureFormat
	DepthFormat    wgpu.TextureFormat
	InstanceStride uint32
}

// WgpuCommandQueue replays recorded draw command lists into a wgpu render
// pass. It owns the GPU mirrors of the CPU-side resources: device buffers
// per vertex and index buffer, texture views per texture, and one pipeline
// per registered pipeline state. All pipelines share one explicit layout so
// bind groups stay valid across pipeline switches.
//
// GPU errors are defects in the render setup, not runtime conditions, so
// the queue panics on them.
type WgpuCommandQueue struct {
	log    Logger
	device *wgpu.Device
	queue  *wgpu.Queue

	layouts        [numBindGroups]*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	sampler        *wgpu.Sampler

	pipelines     map[uint32]*wgpu.RenderPipeline
	vertexBuffers map[uint32]*wgpu.Buffer
	indexBuffers  map[uint32]*wgpu.Buffer
	textureViews  map[uint32]*wgpu.TextureView

	fallbackView *wgpu.TextureView
	zeroBuffer   *wgpu.Buffer

	instanceBuffer   *wgpu.Buffer
	instanceCapacity uint64

	groupBuffers  [MaxShaderParameterGroups]*wgpu.Buffer
	boundTextures [MaxTextureUnits]*wgpu.TextureView
	staleGroups   [numBindGroups]bool

	transientBuffers []*wgpu.Buffer
	transientGroups  []*wgpu.BindGroup
}

func NewWgpuCommandQueue(log Logger, device *wgpu.Device, queue *wgpu.Queue) *WgpuCommandQueue {
	if log == nil {
		log = NewNopLogger()
	}
	q := &WgpuCommandQueue{
		log:           log,
		device:        device,
		queue:         queue,
		pipelines:     map[uint32]*wgpu.RenderPipeline{},
		vertexBuffers: map[uint32]*wgpu.Buffer{},
		indexBuffers:  map[uint32]*wgpu.Buffer{},
		textureViews:  map[uint32]*wgpu.TextureView{},
	}
	q.createLayouts()
	q.createSampler()
	q.createFallbacks()
	return q
}

func (q *WgpuCommandQueue) createLayouts() {
	uniform := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: false,
				MinBindingSize:   0,
			},
		}
	}

	materialEntries := []wgpu.BindGroupLayoutEntry{
		uniform(0),
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			},
		},
	}
	for unit := TextureUnit(0); unit < MaxTextureUnits; unit++ {
		materialEntries = append(materialEntries, wgpu.BindGroupLayoutEntry{
			Binding:    materialTextureBindingBase + uint32(unit),
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
				Multisampled:  false,
			},
		})
	}

	groups := [numBindGroups]struct {
		label   string
		entries []wgpu.BindGroupLayoutEntry
	}{
		{"shared constants", []wgpu.BindGroupLayoutEntry{uniform(0), uniform(1)}},
		{"light constants", []wgpu.BindGroupLayoutEntry{uniform(0)}},
		{"material", materialEntries},
		{"object constants", []wgpu.BindGroupLayoutEntry{uniform(0)}},
	}
	for i, group := range groups {
		layout, err := q.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   group.label,
			Entries: group.entries,
		})
		if err != nil {
			panic(err)
		}
		q.layouts[i] = layout
	}

	layout, err := q.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "batch pipeline layout",
		BindGroupLayouts: q.layouts[:],
	})
	if err != nil {
		panic(err)
	}
	q.pipelineLayout = layout
}

func (q *WgpuCommandQueue) createSampler() {
	sampler, err := q.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "trilinear repeat",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
	q.sampler = sampler
}

func (q *WgpuCommandQueue) createFallbacks() {
	white, err := NewTexture("white", 1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		panic(err)
	}
	q.fallbackView = q.textureView(white)

	zero, err := q.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "zero constants",
		Contents: make([]byte, uniformBufferFloor),
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		panic(err)
	}
	q.zeroBuffer = zero
}

// CreatePipeline builds and registers the concrete pipeline for a pipeline
// state. The vertex stream must use the interleaved position, normal,
// texcoord layout; instanced pipelines take the per-instance stream as a
// second buffer of packed vec4 attributes starting at shader location 3.
func (q *WgpuCommandQueue) CreatePipeline(state *PipelineState, cfg WgpuPipelineConfig) *wgpu.RenderPipeline {
	desc := state.Desc()

	shader, err := q.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cfg.ShaderSource},
	})
	if err != nil {
		panic(err)
	}
	defer shader.Release()

	buffers := []wgpu.VertexBufferLayout{{
		ArrayStride: proceduralVertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}}
	if cfg.InstanceStride > 0 {
		if cfg.InstanceStride%16 != 0 {
			panic("wgpu queue: instance stride must be a multiple of 16 bytes")
		}
		var attrs []wgpu.VertexAttribute
		for i := uint32(0); i < cfg.InstanceStride/16; i++ {
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         wgpu.VertexFormatFloat32x4,
				Offset:         uint64(16 * i),
				ShaderLocation: geometryAttrCount + i,
			})
		}
		buffers = append(buffers, wgpu.VertexBufferLayout{
			ArrayStride: uint64(cfg.InstanceStride),
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes:  attrs,
		})
	}

	var depthStencil *wgpu.DepthStencilState
	if cfg.DepthFormat != wgpu.TextureFormatUndefined {
		compare := wgpu.CompareFunctionAlways
		if desc.DepthTest {
			compare = wgpu.CompareFunctionLessEqual
		}
		keep := wgpu.StencilFaceState{
			Compare:     wgpu.CompareFunctionAlways,
			FailOp:      wgpu.StencilOperationKeep,
			DepthFailOp: wgpu.StencilOperationKeep,
			PassOp:      wgpu.StencilOperationKeep,
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            cfg.DepthFormat,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		}
	}

	pipeline, err := q.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Name,
		Layout: q.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    cfg.ColorFormat,
					Blend:     blendState(desc.Blend),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(desc.Cull),
		},
		DepthStencil: depthStencil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		panic(err)
	}

	q.pipelines[state.ObjectID()] = pipeline
	q.log.Debugf("wgpu queue: pipeline %q registered for state %d", desc.Name, state.ObjectID())
	return pipeline
}

func blendState(mode BlendMode) *wgpu.BlendState {
	switch mode {
	case BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	case BlendAdditive:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
			},
		}
	}
	return nil
}

func cullMode(mode CullMode) wgpu.CullMode {
	switch mode {
	case CullBack:
		return wgpu.CullModeBack
	case CullFront:
		return wgpu.CullModeFront
	}
	return wgpu.CullModeNone
}

// RegisterTextureView aliases an externally owned view, such as a G-buffer
// attachment, under a texture handle so recorded resource bindings can
// reach it.
func (q *WgpuCommandQueue) RegisterTextureView(texture *Texture, view *wgpu.TextureView) {
	q.textureViews[texture.ObjectID()] = view
}

// Execute replays a recorded command list into an open render pass.
// Uniform buffers and bind groups created during the replay live until
// EndFrame releases them.
func (q *WgpuCommandQueue) Execute(pass *wgpu.RenderPassEncoder, list *DrawCommandList) {
	for i := range q.groupBuffers {
		q.groupBuffers[i] = q.zeroBuffer
	}
	for i := range q.boundTextures {
		q.boundTextures[i] = q.fallbackView
	}
	for i := range q.staleGroups {
		q.staleGroups[i] = true
	}
	instancesUploaded := false

	commands := list.Commands()
	for i := range commands {
		cmd := &commands[i]
		switch cmd.Kind {
		case DrawCommandSetPipelineState:
			pipeline, ok := q.pipelines[cmd.PipelineState.ObjectID()]
			if !ok {
				panic(fmt.Sprintf("wgpu queue: pipeline state %q is not registered", cmd.PipelineState.Desc().Name))
			}
			pass.SetPipeline(pipeline)

		case DrawCommandCommitParameters:
			q.groupBuffers[cmd.Group] = q.uniformBuffer(cmd.Group, cmd.Parameters)
			switch cmd.Group {
			case ParamGroupFrame, ParamGroupCamera:
				q.staleGroups[bindGroupShared] = true
			case ParamGroupLight:
				q.staleGroups[bindGroupLight] = true
			case ParamGroupMaterial:
				q.staleGroups[bindGroupMaterial] = true
			case ParamGroupObject:
				q.staleGroups[bindGroupObject] = true
			}

		case DrawCommandCommitResources:
			// Each commit carries the complete binding set, so units it
			// does not name fall back to the white texture.
			for i := range q.boundTextures {
				q.boundTextures[i] = q.fallbackView
			}
			for _, binding := range cmd.Resources {
				if binding.Texture != nil {
					q.boundTextures[binding.Unit] = q.textureView(binding.Texture)
				}
			}
			q.staleGroups[bindGroupMaterial] = true

		case DrawCommandSetBuffers:
			for slot, vb := range cmd.VertexBuffers {
				pass.SetVertexBuffer(uint32(slot), q.vertexBuffer(vb), 0, wgpu.WholeSize)
			}
			if cmd.InstanceBuffer != nil {
				if !instancesUploaded {
					q.uploadInstances(cmd.InstanceBuffer)
					instancesUploaded = true
				}
				pass.SetVertexBuffer(uint32(len(cmd.VertexBuffers)), q.instanceBuffer, 0, wgpu.WholeSize)
			}
			if cmd.IndexBuffer != nil {
				pass.SetIndexBuffer(q.indexBuffer(cmd.IndexBuffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			}

		case DrawCommandDraw:
			q.flushBindGroups(pass)
			pass.Draw(cmd.VertexCount, 1, cmd.VertexStart, 0)

		case DrawCommandDrawIndexed:
			q.flushBindGroups(pass)
			pass.DrawIndexed(cmd.IndexCount, 1, cmd.IndexStart, 0, 0)

		case DrawCommandDrawIndexedInstanced:
			q.flushBindGroups(pass)
			pass.DrawIndexed(cmd.IndexCount, cmd.InstanceCount, cmd.IndexStart, 0, cmd.InstanceStart)
		}
	}
}

// EndFrame releases the uniform buffers and bind groups created by Execute.
// Call it after the frame's command buffer has been submitted.
func (q *WgpuCommandQueue) EndFrame() {
	for _, buffer := range q.transientBuffers {
		buffer.Release()
	}
	q.transientBuffers = q.transientBuffers[:0]
	for _, group := range q.transientGroups {
		group.Release()
	}
	q.transientGroups = q.transientGroups[:0]
}

// Release frees every GPU object the queue owns.
func (q *WgpuCommandQueue) Release() {
	q.EndFrame()
	for _, pipeline := range q.pipelines {
		pipeline.Release()
	}
	for _, buffer := range q.vertexBuffers {
		buffer.Release()
	}
	for _, buffer := range q.indexBuffers {
		buffer.Release()
	}
	for _, view := range q.textureViews {
		view.Release()
	}
	if q.instanceBuffer != nil {
		q.instanceBuffer.Release()
	}
	q.zeroBuffer.Release()
	q.sampler.Release()
	q.pipelineLayout.Release()
	for _, layout := range q.layouts {
		layout.Release()
	}
}

func (q *WgpuCommandQueue) flushBindGroups(pass *wgpu.RenderPassEncoder) {
	for group := 0; group < numBindGroups; group++ {
		if !q.staleGroups[group] {
			continue
		}
		var entries []wgpu.BindGroupEntry
		switch group {
		case bindGroupShared:
			entries = []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: q.groupBuffers[ParamGroupFrame], Size: wgpu.WholeSize},
				{Binding: 1, Buffer: q.groupBuffers[ParamGroupCamera], Size: wgpu.WholeSize},
			}
		case bindGroupLight:
			entries = []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: q.groupBuffers[ParamGroupLight], Size: wgpu.WholeSize},
			}
		case bindGroupMaterial:
			entries = []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: q.groupBuffers[ParamGroupMaterial], Size: wgpu.WholeSize},
				{Binding: 1, Sampler: q.sampler, Size: wgpu.WholeSize},
			}
			for unit := TextureUnit(0); unit < MaxTextureUnits; unit++ {
				entries = append(entries, wgpu.BindGroupEntry{
					Binding:     materialTextureBindingBase + uint32(unit),
					TextureView: q.boundTextures[unit],
					Size:        wgpu.WholeSize,
				})
			}
		case bindGroupObject:
			entries = []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: q.groupBuffers[ParamGroupObject], Size: wgpu.WholeSize},
			}
		}

		bindGroup, err := q.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  q.layouts[group],
			Entries: entries,
		})
		if err != nil {
			panic(err)
		}
		q.transientGroups = append(q.transientGroups, bindGroup)
		pass.SetBindGroup(uint32(group), bindGroup, nil)
		q.staleGroups[group] = false
	}
}

// uniformBuffer packs committed parameters into a fresh uniform buffer.
// Every value starts a new 16-byte slot, so the shader-side structs declare
// vec4-aligned fields in commit order.
func (q *WgpuCommandQueue) uniformBuffer(group ShaderParameterGroup, params []ShaderParameterValue) *wgpu.Buffer {
	data := make([]byte, 0, uniformBufferFloor)
	for _, param := range params {
		data = appendUniformValue(data, param.Name, param.Value)
	}
	if len(data) < uniformBufferFloor {
		data = append(data, make([]byte, uniformBufferFloor-len(data))...)
	}

	buffer, err := q.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    group.String() + " constants",
		Contents: data,
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		panic(err)
	}
	q.transientBuffers = append(q.transientBuffers, buffer)
	return buffer
}

func appendUniformValue(data []byte, name ShaderParam, value any) []byte {
	switch v := value.(type) {
	case float32:
		return appendVec4(data, v, 0, 0, 0)
	case mgl32.Vec2:
		return appendVec4(data, v[0], v[1], 0, 0)
	case mgl32.Vec3:
		return appendVec4(data, v[0], v[1], v[2], 0)
	case mgl32.Vec4:
		return appendVec4(data, v[0], v[1], v[2], v[3])
	case Color:
		return appendVec4(data, v.R, v.G, v.B, v.A)
	case mgl32.Mat3:
		data = appendVec4(data, v[0], v[1], v[2], 0)
		data = appendVec4(data, v[3], v[4], v[5], 0)
		return appendVec4(data, v[6], v[7], v[8], 0)
	case mgl32.Mat4:
		return appendFloats(data, v[:])
	case []mgl32.Mat4:
		for _, m := range v {
			data = appendFloats(data, m[:])
		}
		return data
	case [MaxVertexLights * 3]mgl32.Vec4:
		for _, e := range v {
			data = appendVec4(data, e[0], e[1], e[2], e[3])
		}
		return data
	}
	panic(fmt.Sprintf("wgpu queue: unsupported type %T for shader parameter %s", value, name))
}

func appendVec4(data []byte, x, y, z, w float32) []byte {
	return appendFloats(data, []float32{x, y, z, w})
}

func appendFloats(data []byte, values []float32) []byte {
	for _, v := range values {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	return data
}

func (q *WgpuCommandQueue) vertexBuffer(vb *VertexBuffer) *wgpu.Buffer {
	if buffer, ok := q.vertexBuffers[vb.ObjectID()]; ok {
		return buffer
	}
	buffer, err := q.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    vb.Name,
		Contents: vb.Data,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	q.vertexBuffers[vb.ObjectID()] = buffer
	return buffer
}

func (q *WgpuCommandQueue) indexBuffer(ib *IndexBuffer) *wgpu.Buffer {
	if buffer, ok := q.indexBuffers[ib.ObjectID()]; ok {
		return buffer
	}
	buffer, err := q.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    ib.Name,
		Contents: wgpu.ToBytes(ib.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		panic(err)
	}
	q.indexBuffers[ib.ObjectID()] = buffer
	return buffer
}

func (q *WgpuCommandQueue) textureView(t *Texture) *wgpu.TextureView {
	if view, ok := q.textureViews[t.ObjectID()]; ok {
		return view
	}

	extent := wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1}
	texture, err := q.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         t.Name,
		Size:          extent,
		MipLevelCount: t.MipLevels(),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	defer texture.Release()

	w, h := t.Width, t.Height
	for level, pixels := range t.Levels {
		mipExtent := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
		err = q.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  texture,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{},
			},
			pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  w * 4,
				RowsPerImage: h,
			},
			&mipExtent,
		)
		if err != nil {
			panic(err)
		}
		w = max(w/2, 1)
		h = max(h/2, 1)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	q.textureViews[t.ObjectID()] = view
	return view
}

func (q *WgpuCommandQueue) uploadInstances(instances *InstanceBuffer) {
	data := instances.Data()
	if len(data) == 0 {
		return
	}
	raw := wgpu.ToBytes(data)
	q.ensureInstanceCapacity(uint64(len(raw)))
	if err := q.queue.WriteBuffer(q.instanceBuffer, 0, raw); err != nil {
		panic(err)
	}
}

// ensureInstanceCapacity grows the instance buffer with headroom so steady
// frame-to-frame growth does not reallocate every frame.
func (q *WgpuCommandQueue) ensureInstanceCapacity(size uint64) {
	if q.instanceBuffer != nil && q.instanceCapacity >= size {
		return
	}
	if q.instanceBuffer != nil {
		q.instanceBuffer.Release()
	}

	capacity := max(size+size/2, 4096)
	buffer, err := q.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "instance data",
		Size:  capacity,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	q.instanceBuffer = buffer
	q.instanceCapacity = capacity
	q.log.Debugf("wgpu queue: instance buffer grown to %d bytes", capacity)
}
