package vision

import (
	"image"
	"math"

	"docguard/internal/domain/entity"
)

// outlierMask отмечает плитку, если хотя бы один из робастных z-баллов
// (дисперсия лапласиана или плотность краёв) превышает порог.
func outlierMask(g entity.TileGrid, zThreshold float64) entity.OutlierMask {
	zLap := robustZ(g.LapVar)
	zEdge := robustZ(g.EdgeDensity)

	m := entity.OutlierMask{NX: g.NX, NY: g.NY, Cells: make([]bool, g.Len())}
	for i := range m.Cells {
		m.Cells[i] = math.Abs(zLap[i]) > zThreshold || math.Abs(zEdge[i]) > zThreshold
	}
	return m
}

// clusterOutliers собирает связные компоненты маски (4-соседство) обходом в ширину
// с явной очередью. Порядок кластеров построчный по первой плитке, поэтому детерминирован.
func clusterOutliers(m entity.OutlierMask, g entity.TileGrid, localizedBelow float64) []entity.Cluster {
	visited := make([]bool, len(m.Cells))
	queue := make([]int, 0, len(m.Cells))

	var clusters []entity.Cluster
	for start, on := range m.Cells {
		if !on || visited[start] {
			continue
		}

		queue = queue[:0]
		queue = append(queue, start)
		visited[start] = true
		bounds := image.Rectangle{}
		tiles := 0
		area := 0

		for head := 0; head < len(queue); head++ {
			i := queue[head]
			tiles++
			r := g.TileRect(i)
			bounds = bounds.Union(r)
			area += r.Dx() * r.Dy()

			x, y := i%m.NX, i/m.NX
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= m.NX || ny >= m.NY {
					continue
				}
				j := ny*m.NX + nx
				if m.Cells[j] && !visited[j] {
					visited[j] = true
					queue = append(queue, j)
				}
			}
		}

		compactness := float64(bounds.Dx()*bounds.Dy()) / float64(area)
		clusters = append(clusters, entity.Cluster{
			Bounds:      bounds,
			Tiles:       tiles,
			Compactness: compactness,
			Localized:   compactness < localizedBelow,
		})
	}
	return clusters
}
