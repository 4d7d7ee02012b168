package main

import (
	"fmt"

	"github.com/crucible3d/crucible"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// viewerScene is the scene access the renderer needs: total time and
// baked lightmap lookup.
type viewerScene struct {
	elapsed   float32
	lightmaps []*crucible.Texture
}

func (s *viewerScene) ElapsedTime() float32 { return s.elapsed }

func (s *viewerScene) LightmapTexture(index uint32) *crucible.Texture {
	if index >= uint32(len(s.lightmaps)) {
		return nil
	}
	return s.lightmaps[index]
}

// drawable is one renderable object of the demo scene.
type drawable struct {
	name        string
	geometry    *crucible.Geometry
	material    *crucible.Material
	state       *crucible.PipelineState
	transparent bool

	// transform backs the WorldTransforms slice of the source batch,
	// so its address must stay stable across a frame.
	transform [1]mgl32.Mat4

	lightmapScaleOffset *mgl32.Vec4
	lightmapIndex       uint32
}

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	DepthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView

	log    crucible.Logger
	assets *crucible.AssetServer
	scene  *viewerScene
	camera *crucible.Camera
	lights []*crucible.Light

	frame     *crucible.FrameData
	instances *crucible.InstanceBuffer
	renderer  *crucible.BatchRenderer
	debugger  *crucible.RenderDebugger

	cmdQueue    *crucible.WgpuCommandQueue
	drawList    *crucible.DrawCommandList
	opaqueState *crucible.PipelineState
	alphaState  *crucible.PipelineState

	drawables  []drawable
	glassIndex int
	sources    []crucible.SourceBatch
	batchStore []crucible.PipelineBatch
	opaque     []crucible.PipelineBatchByState
	alpha      []crucible.PipelineBatchBackToFront

	configPath string
	debugMode  bool

	lastTime      float64
	snapshotAsked bool
}

func NewApp(window *glfw.Window, configPath string, debug bool) *App {
	return &App{
		Window:     window,
		configPath: configPath,
		debugMode:  debug,
		log:        crucible.NewDefaultLogger("viewer", debug),
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	a.createDepthTexture(uint32(width), uint32(height))

	config, err := crucible.LoadRendererConfig(a.configPath)
	if err != nil {
		return err
	}
	// The viewer shader is built for instanced draws with full
	// spherical harmonics ambient; other modes would not match its
	// vertex layout.
	if !config.Instancing.Enable {
		a.log.Warnf("instancing disabled in %s, the viewer needs it; enabling", a.configPath)
		config.Instancing.Enable = true
	}
	if config.AmbientMode != crucible.AmbientDirectional.String() {
		a.log.Warnf("ambient mode %q not supported by the viewer shader, using directional", config.AmbientMode)
		config.AmbientMode = crucible.AmbientDirectional.String()
	}
	settings, err := config.Settings()
	if err != nil {
		return err
	}

	a.opaqueState = crucible.NewPipelineState(crucible.PipelineStateDesc{
		Name:          "viewer opaque",
		VertexShader:  "LitSolid",
		PixelShader:   "LitSolid",
		ShaderDefines: "DIFFMAP AMBIENT INSTANCED",
		DepthWrite:    true,
		DepthTest:     true,
		Blend:         crucible.BlendReplace,
		Cull:          crucible.CullBack,
	})
	a.alphaState = crucible.NewPipelineState(crucible.PipelineStateDesc{
		Name:          "viewer alpha",
		VertexShader:  "LitSolid",
		PixelShader:   "LitSolid",
		ShaderDefines: "DIFFMAP AMBIENT INSTANCED ALPHA",
		DepthWrite:    false,
		DepthTest:     true,
		Blend:         crucible.BlendAlpha,
		Cull:          crucible.CullNone,
	})

	a.assets = crucible.NewAssetServer(a.log)
	a.buildScene()

	a.instances = crucible.NewInstanceBuffer(config.InstanceSettings(settings))
	a.frame = &crucible.FrameData{
		Scene:    a.scene,
		Lighting: make([]crucible.LightAccumulator, len(a.drawables)),
	}
	a.renderer = crucible.NewBatchRenderer(a.log, a.frame, a.instances)
	a.renderer.SetSettings(settings)
	a.debugger = crucible.NewRenderDebugger()
	a.renderer.SetDebugger(a.debugger)

	a.cmdQueue = crucible.NewWgpuCommandQueue(a.log, a.Device, a.Queue)
	a.drawList = crucible.NewDrawCommandList()

	pipelineConfig := crucible.WgpuPipelineConfig{
		ShaderSource:   litWGSL,
		ColorFormat:    a.Config.Format,
		DepthFormat:    depthFormat,
		InstanceStride: a.instances.Stride(),
	}
	a.cmdQueue.CreatePipeline(a.opaqueState, pipelineConfig)
	a.cmdQueue.CreatePipeline(a.alphaState, pipelineConfig)

	a.lastTime = glfw.GetTime()
	return nil
}

// buildScene assembles the demo content: a lightmapped floor, a grid
// of crates that collapses into a single instanced draw, and a few
// spheres including a transparent one.
func (a *App) buildScene() {
	a.scene = &viewerScene{}

	quad := a.assets.Geometry(a.assets.CreateQuadGeometry("floor"))
	cube := a.assets.Geometry(a.assets.CreateCubeGeometry("crate"))
	sphere := a.assets.Geometry(a.assets.CreateSphereGeometry("sphere", 24, 32))

	floorTex := a.assets.CreateCheckerTexture("floor checker", 256, 8,
		crucible.NewColor(0.55, 0.55, 0.58), crucible.NewColor(0.35, 0.35, 0.38))
	crateTex := a.assets.CreateCheckerTexture("crate checker", 128, 2,
		crucible.NewColor(0.85, 0.55, 0.25), crucible.NewColor(0.72, 0.44, 0.18))
	// A one-cell checker is a solid texture.
	white := a.assets.CreateCheckerTexture("white", 64, 1,
		crucible.NewColor(1, 1, 1), crucible.NewColor(1, 1, 1))

	lightmap := a.assets.CreateCheckerTexture("baked light", 128, 4,
		crucible.NewColor(1, 0.97, 0.9), crucible.NewColor(0.55, 0.6, 0.72))
	a.scene.lightmaps = append(a.scene.lightmaps, a.assets.Texture(lightmap))

	floorMat := a.assets.Material(a.assets.CreateLitMaterial("floor", floorTex))
	crateMat := a.assets.Material(a.assets.CreateLitMaterial("crate", crateTex))

	redMat := a.assets.Material(a.assets.CreateLitMaterial("red shell", white))
	redMat.SetParameter(crucible.ParamMatDiffColor, mgl32.Vec4{0.8, 0.15, 0.12, 1})
	redMat.SetParameter(crucible.ParamMatSpecColor, mgl32.Vec4{0.6, 0.6, 0.6, 1})

	blueMat := a.assets.Material(a.assets.CreateLitMaterial("blue shell", white))
	blueMat.SetParameter(crucible.ParamMatDiffColor, mgl32.Vec4{0.15, 0.25, 0.8, 1})

	glassMat := a.assets.Material(a.assets.CreateLitMaterial("glass", white))
	glassMat.SetParameter(crucible.ParamMatDiffColor, mgl32.Vec4{0.4, 0.9, 0.7, 0.45})
	glassMat.SetParameter(crucible.ParamMatSpecColor, mgl32.Vec4{1, 1, 1, 1})

	floor := drawable{
		name:                "floor",
		geometry:            quad,
		material:            floorMat,
		state:               a.opaqueState,
		lightmapScaleOffset: &mgl32.Vec4{1, 1, 0, 0},
	}
	floor.transform[0] = mgl32.HomogRotate3DX(-math32.Pi / 2).Mul4(mgl32.Scale3D(24, 24, 1))
	a.drawables = append(a.drawables, floor)

	// All crates share one geometry, material and pipeline state, so
	// the whole grid renders as one instanced draw.
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			crate := drawable{
				name:     fmt.Sprintf("crate %d:%d", i, j),
				geometry: cube,
				material: crateMat,
				state:    a.opaqueState,
			}
			x := -3.75 + 2.5*float32(i)
			z := -3.75 + 2.5*float32(j)
			crate.transform[0] = mgl32.Translate3D(x, 0.5, z)
			a.drawables = append(a.drawables, crate)
		}
	}

	red := drawable{name: "red sphere", geometry: sphere, material: redMat, state: a.opaqueState}
	red.transform[0] = mgl32.Translate3D(-6, 1, 0).Mul4(mgl32.Scale3D(2, 2, 2))
	a.drawables = append(a.drawables, red)

	blue := drawable{name: "blue sphere", geometry: sphere, material: blueMat, state: a.opaqueState}
	blue.transform[0] = mgl32.Translate3D(6, 1.2, -2).Mul4(mgl32.Scale3D(2.4, 2.4, 2.4))
	a.drawables = append(a.drawables, blue)

	glass := drawable{name: "glass sphere", geometry: sphere, material: glassMat,
		state: a.alphaState, transparent: true}
	glass.transform[0] = mgl32.Translate3D(0, 1.6, 4).Mul4(mgl32.Scale3D(2.8, 2.8, 2.8))
	a.glassIndex = len(a.drawables)
	a.drawables = append(a.drawables, glass)

	sun := crucible.NewLight(crucible.LightDirectional)
	sun.Name = "sun"
	sun.Rotation = mgl32.QuatBetweenVectors(
		mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-0.4, -1, -0.3}.Normalize())
	sun.Color = crucible.NewColor(0.9, 0.85, 0.75)
	sun.SpecularIntensity = 0.5

	warm := crucible.NewLight(crucible.LightPoint)
	warm.Name = "warm point"
	warm.Color = crucible.NewColor(1, 0.6, 0.2)
	warm.Range = 9

	cool := crucible.NewLight(crucible.LightPoint)
	cool.Name = "cool point"
	cool.Color = crucible.NewColor(0.2, 0.5, 1)
	cool.Range = 9

	a.lights = []*crucible.Light{sun, warm, cool}

	a.camera = crucible.NewCamera()
	a.camera.Position = mgl32.Vec3{10, 7, 12}
	a.camera.LookAt(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0})
	a.camera.FarClip = 120
	a.camera.AmbientColor = crucible.NewColor(0.12, 0.13, 0.16)
	a.camera.FogColor = crucible.NewColor(0.18, 0.2, 0.24)
	a.camera.FogStart = 40
	a.camera.FogEnd = 110
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(now - a.lastTime)
	a.lastTime = now
	a.frame.TimeStep = dt
	a.scene.elapsed += dt
	t := a.scene.elapsed

	// Orbit the point lights and bob the glass sphere.
	a.lights[1].Position = mgl32.Vec3{6 * math32.Cos(t*0.7), 2.5, 6 * math32.Sin(t*0.7)}
	a.lights[2].Position = mgl32.Vec3{7 * math32.Cos(2-t*0.4), 3.5, 7 * math32.Sin(2-t*0.4)}
	a.drawables[a.glassIndex].transform[0] = mgl32.Translate3D(0, 1.6+0.4*math32.Sin(t*1.3), 4).
		Mul4(mgl32.Scale3D(2.8, 2.8, 2.8))

	if a.Config.Height > 0 {
		a.camera.AspectRatio = float32(a.Config.Width) / float32(a.Config.Height)
	}

	// Cook this frame's lights and per-drawable light accumulation.
	// The sun is the pixel light; the two point lights are picked up
	// as vertex lights by every drawable.
	a.frame.Lights = a.frame.Lights[:0]
	for _, light := range a.lights {
		a.frame.Lights = append(a.frame.Lights, crucible.NewSceneLight(light))
	}

	ambient := crucible.SphericalHarmonicsFromColor(crucible.NewColor(0.1, 0.11, 0.14))
	for i := range a.frame.Lighting {
		acc := crucible.NewLightAccumulator()
		acc.SphericalHarmonics = ambient
		acc.VertexLights[0] = 1
		acc.VertexLights[1] = 2
		a.frame.Lighting[i] = acc
	}
}

// composeFrame rebuilds this frame's pipeline batches, sorts them and
// fills the draw command list.
func (a *App) composeFrame() {
	snapshot := a.snapshotAsked
	a.snapshotAsked = false
	if snapshot {
		a.debugger.BeginSnapshot()
	}

	a.sources = a.sources[:0]
	a.batchStore = a.batchStore[:0]
	for i := range a.drawables {
		d := &a.drawables[i]
		position := d.transform[0].Col(3).Vec3()
		a.sources = append(a.sources, crucible.SourceBatch{
			Distance:            position.Sub(a.camera.Position).Len(),
			Geometry:            d.geometry,
			Material:            d.material,
			WorldTransforms:     d.transform[:],
			LightmapScaleOffset: d.lightmapScaleOffset,
			LightmapIndex:       d.lightmapIndex,
			GeometryType:        crucible.GeometryStatic,
		})
	}
	for i := range a.drawables {
		batch := crucible.NewPipelineBatch(uint32(i), 0, &a.sources[i], a.drawables[i].state)
		batch.PixelLightIndex = 0
		batch.VertexLightsHash = a.frame.Lighting[i].VertexLightsHash()
		a.batchStore = append(a.batchStore, batch)
	}

	a.opaque = a.opaque[:0]
	a.alpha = a.alpha[:0]
	for i := range a.batchStore {
		batch := &a.batchStore[i]
		if a.drawables[i].transparent {
			a.alpha = append(a.alpha, crucible.NewPipelineBatchBackToFront(batch))
		} else {
			a.opaque = append(a.opaque, crucible.NewPipelineBatchByState(batch))
		}
	}
	crucible.SortBatchesByState(a.opaque)
	crucible.SortBatchesBackToFront(a.alpha)

	a.instances.Begin()
	a.drawList.Reset()

	flags := crucible.BatchRenderAmbientLight | crucible.BatchRenderVertexLights |
		crucible.BatchRenderPixelLight | crucible.BatchRenderStaticInstancing

	if snapshot {
		a.debugger.BeginPass("opaque")
	}
	a.renderer.RenderBatches(a.drawList, a.camera, flags, a.opaque, nil)
	if snapshot {
		a.debugger.BeginPass("alpha")
	}
	a.renderer.RenderBatchesBackToFront(a.drawList, a.camera, flags, a.alpha, nil)
	a.instances.End()

	if snapshot {
		a.debugger.EndSnapshot()
		fmt.Print(a.debugger.Snapshot().String())
	}
}

func (a *App) Render() {
	surfaceTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.log.Errorf("get surface texture: %v", err)
		return
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		a.log.Errorf("create surface view: %v", err)
		return
	}
	defer view.Release()

	a.composeFrame()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.log.Errorf("create command encoder: %v", err)
		return
	}

	fog := a.camera.FogColor
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(fog.R), G: float64(fog.G), B: float64(fog.B), A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            a.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	a.cmdQueue.Execute(pass, a.drawList)
	if err := pass.End(); err != nil {
		a.log.Errorf("render pass: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.log.Errorf("encoder finish: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()
	a.cmdQueue.EndFrame()
}

func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.Config.Width = uint32(width)
	a.Config.Height = uint32(height)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	a.createDepthTexture(uint32(width), uint32(height))
}

// RequestSnapshot captures and prints the next frame's composition.
func (a *App) RequestSnapshot() {
	a.snapshotAsked = true
}

func (a *App) createDepthTexture(width, height uint32) {
	if a.DepthView != nil {
		a.DepthView.Release()
	}
	if a.DepthTexture != nil {
		a.DepthTexture.Release()
	}
	texture, err := a.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "viewer depth",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	a.DepthTexture = texture
	a.DepthView = view
}
