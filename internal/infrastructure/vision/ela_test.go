package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
)

func TestELAMap(t *testing.T) {
	orig := []uint8{10, 20, 30, 100, 100, 100}
	recoded := []uint8{13, 20, 27, 100, 90, 100}

	m, err := elaMap(orig, recoded, 2, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 10.0 / 3}, m.Values)

	_, err = elaMap(orig, recoded[:3], 2, 1, 3)
	require.Error(t, err)
}

func TestELAMap_NormalizedIsClipped(t *testing.T) {
	m := &entity.ELAMap{Width: 3, Height: 1, Values: []float64{0, 5, 10}}
	require.Equal(t, []uint8{0, 128, 255}, m.Normalized())

	zero := &entity.ELAMap{Width: 2, Height: 1, Values: []float64{0, 0}}
	require.Equal(t, []uint8{0, 0}, zero.Normalized())
}

func TestELAStats(t *testing.T) {
	const w, h = 256, 256
	m := &entity.ELAMap{Width: w, Height: h, Values: make([]float64, w*h)}
	edges := make([]uint8, w*h)
	for i := range m.Values {
		m.Values[i] = 1
		if i%10 == 0 {
			edges[i] = 255
			m.Values[i] = 4
		}
	}

	st := elaStats(m, edges, 90, balanced())
	require.Equal(t, 90, st.Quality)
	require.InDelta(t, 4, st.EdgeMean, 1e-9)
	require.InDelta(t, 1, st.SmoothMean, 1e-9)
	require.InDelta(t, 4, st.Ratio, 1e-9)
	require.InDelta(t, 1, st.FocalRatio, 0.05)
	require.Same(t, m, st.Map)

	// горячая плитка в углу
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			m.Values[y*w+x] = 20
		}
	}
	st = elaStats(m, edges, 90, balanced())
	require.Greater(t, st.FocalRatio, balanced().ELAFocalRatio)
}

func TestELAStats_SmoothFloor(t *testing.T) {
	m := &entity.ELAMap{Width: 64, Height: 64, Values: make([]float64, 64*64)}
	edges := make([]uint8, 64*64)
	edges[0] = 255
	m.Values[0] = 3

	st := elaStats(m, edges, 90, balanced())
	require.InDelta(t, 3, st.Ratio, 1e-9, "smooth mean below floor must not blow up the ratio")
}

func TestQualitySlope(t *testing.T) {
	curve := func(means ...float64) []entity.QualityPoint {
		qs := []int{95, 90, 85, 80}
		out := make([]entity.QualityPoint, len(means))
		for i, m := range means {
			out[i] = entity.QualityPoint{Quality: qs[i], Mean: m}
		}
		return out
	}

	slope, anomaly := qualitySlope(curve(1, 2, 3, 4), 0.05, 0.15)
	require.InDelta(t, 0.2, slope, 1e-9)
	require.False(t, anomaly)

	slope, anomaly = qualitySlope(curve(2, 2, 2, 2), 0.05, 0.15)
	require.InDelta(t, 0, slope, 1e-9)
	require.True(t, anomaly, "flat curve")

	_, anomaly = qualitySlope(curve(4, 3, 2, 1), 0.05, 0.15)
	require.True(t, anomaly, "inverted curve")

	_, anomaly = qualitySlope(curve(1, 3, 2, 4), 0.05, 0.15)
	require.True(t, anomaly, "dip")

	slope, anomaly = qualitySlope(curve(1), 0.05, 0.15)
	require.Zero(t, slope)
	require.False(t, anomaly)
}
