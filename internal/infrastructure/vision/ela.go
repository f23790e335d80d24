package vision

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// elaMap абсолютная разница между исходником и перекодированной копией,
// усреднённая по каналам.
func elaMap(orig, recoded []uint8, w, h, channels int) (*entity.ELAMap, error) {
	n := w * h
	if len(orig) != n*channels || len(recoded) != n*channels {
		return nil, fmt.Errorf("ela: buffer size mismatch: orig=%d recoded=%d want=%d", len(orig), len(recoded), n*channels)
	}
	m := &entity.ELAMap{Width: w, Height: h, Values: make([]float64, n)}
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			k := i*channels + c
			sum += math.Abs(float64(orig[k]) - float64(recoded[k]))
		}
		m.Values[i] = sum / float64(channels)
	}
	return m, nil
}

// elaStats глобальные статистики карты, отношение ошибки на краях к ошибке
// в гладких областях и фокальное отношение по плиткам.
func elaStats(m *entity.ELAMap, edges []uint8, quality int, t policy.Thresholds) entity.ELAMetrics {
	out := entity.ELAMetrics{Quality: quality, Map: m}
	if len(m.Values) == 0 {
		return out
	}

	out.Mean, out.Std = meanStd(m.Values)
	out.P95 = quantile(m.Values, 0.95)

	var edgeSum, smoothSum float64
	var edgeN, smoothN int
	for i, v := range m.Values {
		if edges[i] != 0 {
			edgeSum += v
			edgeN++
		} else {
			smoothSum += v
			smoothN++
		}
	}
	if edgeN > 0 {
		out.EdgeMean = edgeSum / float64(edgeN)
	}
	if smoothN > 0 {
		out.SmoothMean = smoothSum / float64(smoothN)
	}
	// пол защищает от деления на почти нулевую ошибку в пустых областях
	out.Ratio = out.EdgeMean / math.Max(out.SmoothMean, t.ELASmoothFloor)

	if l, err := layoutGrid(m.Width, m.Height, t); err == nil {
		g := entity.TileGrid{NX: l.nx, NY: l.ny, Width: m.Width, Height: m.Height, TileW: l.tileW, TileH: l.tileH}
		means := tileMeans(m.Values, m.Width, g)
		maxMean := 0.0
		for _, v := range means {
			maxMean = math.Max(maxMean, v)
		}
		out.FocalRatio = maxMean / math.Max(median(means), t.ELASmoothFloor)
	}
	return out
}

// qualitySlope наклон средней ошибки ELA от снижения качества.
// У первого поколения JPEG ошибка монотонно растёт при снижении качества;
// плоская, обратная или немонотонная кривая говорит о прошлом пережатии.
func qualitySlope(curve []entity.QualityPoint, minSlope, dipTolerance float64) (float64, bool) {
	if len(curve) < 2 {
		return 0, false
	}
	top := curve[0].Quality
	xs := make([]float64, len(curve))
	ys := make([]float64, len(curve))
	for i, p := range curve {
		xs[i] = float64(top - p.Quality)
		ys[i] = p.Mean
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)

	anomaly := beta < minSlope
	for i := 1; i < len(ys); i++ {
		if ys[i] < ys[i-1]*(1-dipTolerance) {
			anomaly = true
		}
	}
	return beta, anomaly
}
