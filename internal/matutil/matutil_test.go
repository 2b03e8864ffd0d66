package matutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestEnsureZeroed(t *testing.T) {
	m := gocv.NewMat()
	defer m.Close()

	EnsureZeroed(&m, 10, 12, gocv.MatTypeCV8U)
	require.Equal(t, 10, m.Rows())
	require.Equal(t, 12, m.Cols())
	assert.Equal(t, gocv.MatTypeCV8U, m.Type())
	assert.Equal(t, uint8(0), m.GetUCharAt(5, 5))

	// Same shape: the buffer is cleared in place.
	m.SetUCharAt(5, 5, 200)
	EnsureZeroed(&m, 10, 12, gocv.MatTypeCV8U)
	assert.Equal(t, uint8(0), m.GetUCharAt(5, 5))

	// New shape: reallocated and zeroed.
	m.SetUCharAt(0, 0, 200)
	EnsureZeroed(&m, 4, 4, gocv.MatTypeCV8U)
	require.Equal(t, 4, m.Rows())
	require.Equal(t, 4, m.Cols())
	assert.Equal(t, uint8(0), m.GetUCharAt(0, 0))
}
