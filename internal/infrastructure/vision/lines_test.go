package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
)

func TestSegmentAngle(t *testing.T) {
	require.InDelta(t, 0, segment{0, 0, 10, 0}.angle(), 1e-9)
	require.InDelta(t, 0, segment{10, 0, 0, 0}.angle(), 1e-9)
	require.InDelta(t, 90, segment{0, 0, 0, 10}.angle(), 1e-9)
	require.InDelta(t, 135, segment{0, 10, 10, 0}.angle(), 1e-9)
}

func TestSegmentIntersects(t *testing.T) {
	r := image.Rect(10, 10, 20, 20)
	require.True(t, segment{0, 15, 30, 15}.intersects(r), "crossing")
	require.True(t, segment{12, 12, 18, 18}.intersects(r), "inside")
	require.True(t, segment{0, 0, 30, 30}.intersects(r), "diagonal through")
	require.False(t, segment{0, 0, 30, 0}.intersects(r), "above")
	require.False(t, segment{0, 30, 5, 25}.intersects(r), "outside corner")
	require.False(t, segment{0, 0, 5, 5}.intersects(image.Rectangle{}), "empty rect")
}

func TestLineStats(t *testing.T) {
	var segs []segment
	for i := 0; i < 10; i++ {
		y := 10 + i*10
		segs = append(segs, segment{0, y, 100, y})
	}
	segs = append(segs, segment{0, 0, 50, 50})

	clusters := []entity.Cluster{
		{Bounds: image.Rect(40, 5, 60, 35), Localized: true},
		{Bounds: image.Rect(0, 0, 100, 100), Localized: false},
	}

	st := lineStats(segs, clusters, 5, 0.10)
	require.Equal(t, 11, st.Total)
	require.True(t, st.ParallelDominant)
	require.Len(t, st.DominantGroups, 1)
	require.Equal(t, 0, st.DominantGroups[0].AngleDeg)
	require.Equal(t, 10, st.DominantGroups[0].Count)
	// горизонтали y=10, 20, 30; диагональ проходит мимо рамки
	require.Equal(t, 3, st.InCluster)
	require.InDelta(t, 3.0/11, st.InClusterRatio, 1e-12)
}

func TestLineStats_Empty(t *testing.T) {
	st := lineStats(nil, nil, 5, 0.1)
	require.Zero(t, st.Total)
	require.False(t, st.ParallelDominant)
	require.Zero(t, st.InClusterRatio)
}
