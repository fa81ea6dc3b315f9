package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPcm_Validation(t *testing.T) {
	tests := []struct {
		name         string
		maxFrames    int
		frameSamples int
		wantErr      bool
	}{
		{"too few slots", 1, 10, true},
		{"zero frame size", 4, 0, true},
		{"valid", 4, 160, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPcm(tt.maxFrames, tt.frameSamples)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPcm_WriteReadRoundTrip(t *testing.T) {
	r, err := NewPcm(4, 3)
	require.NoError(t, err)

	frame := []int16{1, 2, 3}
	require.NoError(t, r.Write(frame))
	assert.Equal(t, 1, r.AvailableFrames())

	dst := make([]int16, 3)
	require.NoError(t, r.Read(dst))
	assert.Equal(t, frame, dst)
	assert.Equal(t, 0, r.AvailableFrames())
}

func TestPcm_SizeMismatch(t *testing.T) {
	r, err := NewPcm(4, 3)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Write([]int16{1, 2}), ErrSizeMismatch)
	assert.ErrorIs(t, r.Read(make([]int16, 1)), ErrSizeMismatch)
}

func TestPcm_EmptyRead(t *testing.T) {
	r, err := NewPcm(4, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Read(make([]int16, 2)), ErrEmpty)
}

func TestPcm_FullWrite(t *testing.T) {
	r, err := NewPcm(3, 1) // usable capacity is maxFrames-1 = 2
	require.NoError(t, err)

	require.NoError(t, r.Write([]int16{1}))
	require.NoError(t, r.Write([]int16{2}))
	assert.ErrorIs(t, r.Write([]int16{3}), ErrFull)
}

func TestPcm_DropOldestViaDrain(t *testing.T) {
	r, err := NewPcm(5, 1)
	require.NoError(t, err)

	for i := int16(0); i < 4; i++ {
		require.NoError(t, r.Write([]int16{i}))
	}
	assert.Equal(t, 4, r.AvailableFrames())

	r.Drain(1)
	assert.Equal(t, 1, r.AvailableFrames())

	dst := make([]int16, 1)
	require.NoError(t, r.Read(dst))
	assert.Equal(t, int16(3), dst[0], "drain should keep only the newest frame")
}

func TestPcm_Reset(t *testing.T) {
	r, err := NewPcm(4, 1)
	require.NoError(t, err)

	require.NoError(t, r.Write([]int16{9}))
	r.Reset()
	assert.Equal(t, 0, r.AvailableFrames())
	assert.ErrorIs(t, r.Read(make([]int16, 1)), ErrEmpty)
}

func TestPcm_WrapAround(t *testing.T) {
	r, err := NewPcm(3, 1)
	require.NoError(t, err)

	dst := make([]int16, 1)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Write([]int16{int16(i)}))
		require.NoError(t, r.Read(dst))
		assert.Equal(t, int16(i), dst[0])
	}
}
