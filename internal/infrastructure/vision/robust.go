package vision

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// madScale переводит MAD в оценку σ нормального распределения.
const madScale = 0.6745

// meanADScale запасной масштаб, когда MAD вырождается в ноль.
const meanADScale = 0.7979

// median медиана без изменения входного среза.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantile эмпирический квантиль p ∈ [0,1].
func quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// robustZ считает z = 0.6745·(x − median)/MAD для каждого значения.
// Если больше половины значений совпадают и MAD равен нулю, используется
// среднее абсолютное отклонение; если и оно нулевое, все z равны нулю.
func robustZ(values []float64) []float64 {
	z := make([]float64, len(values))
	if len(values) == 0 {
		return z
	}

	med := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - med)
	}
	mad := median(dev)

	if mad > 0 {
		for i, v := range values {
			z[i] = madScale * (v - med) / mad
		}
		return z
	}

	meanAD := stat.Mean(dev, nil)
	if meanAD == 0 {
		return z
	}
	for i, v := range values {
		z[i] = meanADScale * (v - med) / meanAD
	}
	return z
}

// meanStd среднее и стандартное отклонение генеральной совокупности.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}
