package lut_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/lut"
)

func TestEval_Scalar(t *testing.T) {
	table := lut.Table{Index1: []float64{0}, Index2: []float64{0}, Values: []float64{3.5}}
	for _, v := range [][2]float64{{0, 0}, {-5, 100}, {1e9, -1e9}} {
		got, err := lut.Eval(table, v[0], v[1])
		require.NoError(t, err)
		require.Equal(t, 3.5, got)
	}
}

func TestEval_ExactIndexHit(t *testing.T) {
	table := lut.Table{
		Index1: []float64{1, 2, 3},
		Index2: []float64{10, 20},
		Values: []float64{
			1, 2,
			3, 4,
			5, 6,
		},
	}
	got, err := lut.Eval(table, 2, 20)
	require.NoError(t, err)
	require.InDelta(t, 4.0, got, 1e-12)
}

func TestEval_BilinearInterior(t *testing.T) {
	// Values chosen so the surface is exactly bilinear: v(i,j) = i + 10*j.
	table := lut.Table{
		Index1: []float64{0, 2},
		Index2: []float64{0, 2},
		Values: []float64{0, 20, 2, 22},
	}
	got, err := lut.Eval(table, 1, 1)
	require.NoError(t, err)
	require.InDelta(t, 11.0, got, 1e-9)
}

func TestEval_ExtrapolatesBeyondRange(t *testing.T) {
	// Linear surface v(i) = 3*i (single-row axis 2) extrapolated past idx[1].
	table := lut.Table{
		Index1: []float64{0, 1},
		Index2: []float64{0},
		Values: []float64{0, 3},
	}
	got, err := lut.Eval(table, 4, 0)
	require.NoError(t, err)
	require.InDelta(t, 12.0, got, 1e-9) // 3*4, extrapolated, not clamped to 3.
}

func TestEval_InvalidShape(t *testing.T) {
	_, err := lut.Eval(lut.Table{Index1: []float64{0, 1}, Index2: []float64{0}, Values: []float64{1}}, 0, 0)
	require.ErrorIs(t, err, lut.ErrShapeMismatch)
}

func TestEval_EmptyIndex(t *testing.T) {
	_, err := lut.Eval(lut.Table{Index2: []float64{0}, Values: []float64{1}}, 0, 0)
	require.ErrorIs(t, err, lut.ErrEmptyIndex)
}
