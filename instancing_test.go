package crucible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceBuffer_AccumulatesInstances(t *testing.T) {
	buffer := NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 3})

	require.Equal(t, uint32(0), buffer.NextInstanceIndex())
	require.Equal(t, uint32(0), buffer.AddInstance())
	buffer.SetElements([]float32{1, 2, 3, 4}, 0)

	require.Equal(t, uint32(1), buffer.AddInstance())
	buffer.SetElements([]float32{9, 8, 7, 6}, 2)

	data := buffer.Data()
	require.Len(t, data, 2*3*InstanceElementFloats)
	assert.Equal(t, []float32{1, 2, 3, 4}, data[0:4])
	// Untouched elements stay zero.
	assert.Equal(t, []float32{0, 0, 0, 0}, data[4:8])
	// The second instance starts at element 3; its element 2 sits at
	// float offset 12+8.
	assert.Equal(t, []float32{9, 8, 7, 6}, data[20:24])
	assert.Equal(t, uint32(2), buffer.InstanceCount())
}

func TestInstanceBuffer_BeginDropsPreviousFrame(t *testing.T) {
	buffer := NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 3})
	buffer.AddInstance()
	buffer.AddInstance()

	buffer.Begin()
	assert.Equal(t, uint32(0), buffer.InstanceCount())
	assert.Empty(t, buffer.Data())
	assert.Equal(t, uint32(0), buffer.NextInstanceIndex())
}

func TestInstanceBuffer_SetSettingsResets(t *testing.T) {
	buffer := NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 3})
	buffer.AddInstance()

	buffer.SetSettings(InstanceBufferSettings{Enable: true, NumElements: 10})
	assert.Equal(t, uint32(0), buffer.InstanceCount())
	assert.Empty(t, buffer.Data())
	assert.Equal(t, InstanceBufferSettings{Enable: true, NumElements: 10}, buffer.Settings())
}

func TestInstanceBuffer_Enabled(t *testing.T) {
	assert.False(t, NewInstanceBuffer(InstanceBufferSettings{Enable: false, NumElements: 3}).Enabled())
	assert.False(t, NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 0}).Enabled())
	assert.True(t, NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 3}).Enabled())
}

func TestInstanceBuffer_Stride(t *testing.T) {
	buffer := NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 10})
	// 10 elements of 4 floats, 4 bytes each.
	assert.Equal(t, uint32(160), buffer.Stride())
}

func TestInstanceBuffer_SetElementsRequiresInstance(t *testing.T) {
	buffer := NewInstanceBuffer(InstanceBufferSettings{Enable: true, NumElements: 3})
	require.PanicsWithValue(t, "instance buffer: SetElements without AddInstance", func() {
		buffer.SetElements([]float32{1, 2, 3, 4}, 0)
	})
}
