package crucible

// InstanceElementFloats is the width of one instance data element:
// four floats, one instancing vertex attribute row.
const InstanceElementFloats = 4

type InstanceBufferSettings struct {
	// Enable turns static geometry instancing on.
	Enable bool
	// NumElements is the number of 4-float elements stored per
	// instance. Three elements hold the world transform; ambient
	// lighting can add more.
	NumElements uint32
}

// InstanceBuffer accumulates per-instance shader data for one frame.
// Instances are appended during batch composition and uploaded as a
// step-per-instance vertex buffer when the frame's draw commands run.
type InstanceBuffer struct {
	settings InstanceBufferSettings
	data     []float32
	count    uint32
	current  int
}

func NewInstanceBuffer(settings InstanceBufferSettings) *InstanceBuffer {
	return &InstanceBuffer{settings: settings}
}

// SetSettings reconfigures the buffer and discards accumulated data.
func (b *InstanceBuffer) SetSettings(settings InstanceBufferSettings) {
	b.settings = settings
	b.data = b.data[:0]
	b.count = 0
}

func (b *InstanceBuffer) Settings() InstanceBufferSettings {
	return b.settings
}

func (b *InstanceBuffer) Enabled() bool {
	return b.settings.Enable && b.settings.NumElements > 0
}

// Begin starts composition of a new frame, dropping the previous
// frame's instances.
func (b *InstanceBuffer) Begin() {
	b.data = b.data[:0]
	b.count = 0
}

// End finishes composition. The accumulated data stays available via
// Data until the next Begin; uploading it is the backend's job.
func (b *InstanceBuffer) End() {}

// NextInstanceIndex returns the index the next added instance will
// get.
func (b *InstanceBuffer) NextInstanceIndex() uint32 {
	return b.count
}

// AddInstance appends a zeroed instance, makes it current for
// SetElements, and returns its index.
func (b *InstanceBuffer) AddInstance() uint32 {
	index := b.count
	b.current = len(b.data)
	b.data = append(b.data, make([]float32, b.settings.NumElements*InstanceElementFloats)...)
	b.count++
	return index
}

// SetElements writes values into the current instance starting at the
// given 4-float element.
func (b *InstanceBuffer) SetElements(values []float32, elementIndex uint32) {
	if b.count == 0 {
		panic("instance buffer: SetElements without AddInstance")
	}
	copy(b.data[b.current+int(elementIndex)*InstanceElementFloats:], values)
}

func (b *InstanceBuffer) InstanceCount() uint32 {
	return b.count
}

// Data returns the packed instance data of the current frame.
func (b *InstanceBuffer) Data() []float32 {
	return b.data
}

// Stride returns the size of one instance in bytes.
func (b *InstanceBuffer) Stride() uint32 {
	return b.settings.NumElements * InstanceElementFloats * 4
}
