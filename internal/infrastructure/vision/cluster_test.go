package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"docguard/internal/domain/entity"
)

func gridOf(nx, ny, tile int) entity.TileGrid {
	return entity.TileGrid{NX: nx, NY: ny, TileW: tile, TileH: tile}
}

func maskOf(nx, ny int, cells ...[2]int) entity.OutlierMask {
	m := entity.OutlierMask{NX: nx, NY: ny, Cells: make([]bool, nx*ny)}
	for _, c := range cells {
		m.Cells[c[1]*nx+c[0]] = true
	}
	return m
}

func TestOutlierMask_MarksOnlyRobustOutliers(t *testing.T) {
	g := gridOf(4, 4, 10)
	g.LapVar = []float64{10, 11, 9, 10, 11, 9, 10, 11, 9, 10, 11, 9, 10, 11, 9, 1000}
	g.EdgeDensity = make([]float64, 16)
	for i := range g.EdgeDensity {
		g.EdgeDensity[i] = 0.1
	}

	m := outlierMask(g, 2.5)
	require.Equal(t, 1, m.Count())
	require.True(t, m.Cells[15])
	require.InDelta(t, 1.0/16, m.Ratio(), 1e-12)
}

func TestClusterOutliers(t *testing.T) {
	g := gridOf(8, 8, 10)
	m := maskOf(8, 8,
		[2]int{4, 0}, [2]int{4, 1}, [2]int{4, 2}, [2]int{5, 2}, [2]int{6, 2}, // уголок
		[2]int{1, 1}, [2]int{2, 1}, // пара
		[2]int{6, 6}, // одиночка
	)

	clusters := clusterOutliers(m, g, 6.0)
	require.Len(t, clusters, 3)

	// построчный порядок по первой плитке
	require.Equal(t, image.Rect(40, 0, 70, 30), clusters[0].Bounds)
	require.Equal(t, 5, clusters[0].Tiles)
	require.InDelta(t, 1.8, clusters[0].Compactness, 1e-9)

	require.Equal(t, image.Rect(10, 10, 30, 20), clusters[1].Bounds)
	require.Equal(t, 2, clusters[1].Tiles)
	require.InDelta(t, 1.0, clusters[1].Compactness, 1e-9)

	require.Equal(t, 1, clusters[2].Tiles)
	for _, c := range clusters {
		require.True(t, c.Localized)
	}
}

func TestClusterOutliers_DiagonalIsNotConnected(t *testing.T) {
	clusters := clusterOutliers(maskOf(4, 4, [2]int{0, 0}, [2]int{1, 1}), gridOf(4, 4, 10), 6.0)
	require.Len(t, clusters, 2)
}

func TestClusterOutliers_SparseClusterIsNotLocalized(t *testing.T) {
	// две стороны сетки: большая рамка при малом числе плиток
	cells := [][2]int{}
	for x := 0; x < 8; x++ {
		cells = append(cells, [2]int{x, 0})
	}
	for y := 1; y < 8; y++ {
		cells = append(cells, [2]int{0, y})
	}
	clusters := clusterOutliers(maskOf(8, 8, cells...), gridOf(8, 8, 10), 4.0)
	require.Len(t, clusters, 1)
	require.Equal(t, 15, clusters[0].Tiles)
	require.InDelta(t, 64.0/15, clusters[0].Compactness, 1e-9)
	require.False(t, clusters[0].Localized)
}
