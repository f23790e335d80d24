package vision

import (
	"image"
	"math"
	"sort"

	"docguard/internal/domain/entity"
)

// keypoint координаты ключевой точки.
type keypoint struct {
	x, y float64
}

// candidate кандидат в пару из kNN-поиска дескрипторов.
type candidate struct {
	train    int
	distance float64
}

// sameSpot ближе этого расстояния точки считаются одной и той же точкой на другом масштабе.
const sameSpot = 2.0

// filterCopyMove отбирает пары: ближайший не-свой сосед должен пройти тест отношения
// к второму соседу, пространственное расстояние не меньше minDist,
// симметричные пары (a,b)/(b,a) схлопываются. Результат отсортирован.
func filterCopyMove(kps []keypoint, knn [][]candidate, ratio, minDist float64) []entity.CopyMoveMatch {
	seen := make(map[[2]int]bool)
	var out []entity.CopyMoveMatch

	for q, cands := range knn {
		if q >= len(kps) {
			break
		}
		sorted := append([]candidate(nil), cands...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].distance < sorted[j].distance })

		var best, second *candidate
		for i := range sorted {
			c := &sorted[i]
			if c.train == q || c.train < 0 || c.train >= len(kps) {
				continue
			}
			if pixelDist(kps[q], kps[c.train]) < sameSpot {
				continue
			}
			if best == nil {
				best = c
			} else {
				second = c
				break
			}
		}
		if best == nil || second == nil {
			continue
		}
		if best.distance >= ratio*second.distance {
			continue
		}

		d := pixelDist(kps[q], kps[best.train])
		if d < minDist {
			continue
		}

		a, b := q, best.train
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, entity.CopyMoveMatch{
			QueryIdx: a,
			TrainIdx: b,
			From:     image.Pt(int(math.Round(kps[a].x)), int(math.Round(kps[a].y))),
			To:       image.Pt(int(math.Round(kps[b].x)), int(math.Round(kps[b].y))),
			Distance: math.Round(d*100) / 100,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].QueryIdx != out[j].QueryIdx {
			return out[i].QueryIdx < out[j].QueryIdx
		}
		return out[i].TrainIdx < out[j].TrainIdx
	})
	return out
}

// copyMoveScore плотность пар на мегапиксель и балл в [0,1], насыщающийся на ceiling.
func copyMoveScore(matches int, megapixels, ceiling float64) (float64, float64) {
	if matches == 0 || megapixels <= 0 {
		return 0, 0
	}
	density := float64(matches) / megapixels
	if ceiling <= 0 {
		return density, 1
	}
	return density, math.Min(1, density/ceiling)
}

func pixelDist(a, b keypoint) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}
