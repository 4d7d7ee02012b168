package crucible

// DefaultRenderOrder is the render order assigned to new materials. Lower
// orders sort first.
const DefaultRenderOrder uint8 = 128

// MaterialParameter is one material-declared shader constant.
type MaterialParameter struct {
	Name  ShaderParam
	Value any
}

// Material bundles the shader constants and texture bindings shared by every
// batch that uses it. Parameters keep insertion order so the committed
// constant sequence is deterministic.
type Material struct {
	id          uint32
	Name        string
	RenderOrder uint8

	parameters []MaterialParameter
	textures   [MaxTextureUnits]*Texture
}

func NewMaterial(name string) *Material {
	return &Material{
		id:          nextObjectID(),
		Name:        name,
		RenderOrder: DefaultRenderOrder,
	}
}

func (m *Material) ObjectID() uint32 { return m.id }

// SetParameter adds or replaces one shader constant.
func (m *Material) SetParameter(name ShaderParam, value any) {
	for i := range m.parameters {
		if m.parameters[i].Name == name {
			m.parameters[i].Value = value
			return
		}
	}
	m.parameters = append(m.parameters, MaterialParameter{Name: name, Value: value})
}

// Parameters returns the constants in insertion order. The slice is owned by
// the material; callers must not mutate it.
func (m *Material) Parameters() []MaterialParameter { return m.parameters }

func (m *Material) SetTexture(unit TextureUnit, texture *Texture) {
	m.textures[unit] = texture
}

func (m *Material) Texture(unit TextureUnit) *Texture {
	return m.textures[unit]
}
