package vision

import (
	"math/rand/v2"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// noisePlanes всё, что анализатору шума нужно от OpenCV.
type noisePlanes struct {
	w, h      int
	gray      []uint8
	lap       []float64
	edges     []uint8
	gx, gy    []float64
	segments  []segment
	cannyLow  float64
	cannyHigh float64
}

// analyzeNoise конвейер анализатора шума и краёв поверх готовых плоскостей.
func analyzeNoise(p noisePlanes, t policy.Thresholds) (entity.NoiseMetrics, error) {
	grid, err := buildTileGrid(p.lap, p.edges, p.w, p.h, t)
	if err != nil {
		return entity.NoiseMetrics{}, err
	}

	m := entity.NoiseMetrics{
		Grid:      grid,
		CannyLow:  p.cannyLow,
		CannyHigh: p.cannyHigh,
		Severity:  entity.SeverityNone,
	}

	// глобальные базовые уровни для калибровки
	_, lapStd := meanStd(p.lap)
	m.GlobalLapVar = lapStd * lapStd
	edgeCount := 0
	for _, e := range p.edges {
		if e != 0 {
			edgeCount++
		}
	}
	m.GlobalEdgeDensity = float64(edgeCount) / float64(len(p.edges))

	mask := outlierMask(grid, t.OutlierZ)
	m.OutlierRatio = mask.Ratio()

	m.Clusters = clusterOutliers(mask, grid, t.LocalizedCompactness)
	for _, c := range m.Clusters {
		if !c.Localized {
			continue
		}
		if m.LocalizedClusters == 0 || c.Compactness < m.MinCompactness {
			m.MinCompactness = c.Compactness
		}
		m.LocalizedClusters++
	}

	rng := rand.New(rand.NewPCG(t.Seed, 0x68616c6f))
	m.HaloRatio, m.HaloSampled = haloRatio(haloPlanes{
		w: p.w, h: p.h, gray: p.gray, edges: p.edges, gx: p.gx, gy: p.gy,
	}, t.HaloWalk, t.HaloDelta, t.HaloSampleCap, rng)

	m.Lines = lineStats(p.segments, m.Clusters, t.AngleBucketDeg, t.DominantShare)

	m.LocalEditSuspected = m.OutlierRatio > t.OutlierFloor && m.LocalizedClusters > 0
	if m.LocalEditSuspected {
		m.Severity = severity(m, t)
	}
	return m, nil
}

// severity повышается только накоплением баллов от разных сигналов.
func severity(m entity.NoiseMetrics, t policy.Thresholds) entity.Severity {
	points := 0
	if m.HaloRatio >= t.HaloHigh {
		points++
	}
	if m.Lines.InClusterRatio >= t.LineClusterHigh {
		points++
	}
	if m.OutlierRatio >= t.OutlierHigh {
		points++
	}
	switch {
	case points >= 2:
		return entity.SeverityHigh
	case points == 1:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}
