package vision

import (
	"image"
	"math"
	"sort"

	"docguard/internal/domain/entity"
)

// segment отрезок из вероятностного преобразования Хафа.
type segment struct {
	x1, y1, x2, y2 int
}

// angle угол отрезка в градусах, [0,180).
func (s segment) angle() float64 {
	a := math.Atan2(float64(s.y2-s.y1), float64(s.x2-s.x1)) * 180 / math.Pi
	for a < 0 {
		a += 180
	}
	for a >= 180 {
		a -= 180
	}
	return a
}

// intersects проверяет пересечение отрезка с прямоугольником отсечением Лианга–Барски.
func (s segment) intersects(r image.Rectangle) bool {
	if r.Empty() {
		return false
	}
	x0, y0 := float64(s.x1), float64(s.y1)
	dx, dy := float64(s.x2-s.x1), float64(s.y2-s.y1)
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X), float64(r.Max.Y)

	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}
	return clip(-dx, x0-minX) && clip(dx, maxX-x0) && clip(-dy, y0-minY) && clip(dy, maxY-y0)
}

// lineStats раскладывает углы отрезков по корзинам bucketDeg градусов, отмечает
// доминирующие группы (не меньше share всех отрезков) и долю отрезков,
// пересекающих локализованные кластеры.
func lineStats(segs []segment, clusters []entity.Cluster, bucketDeg int, share float64) entity.LineStats {
	st := entity.LineStats{Total: len(segs)}
	if len(segs) == 0 {
		return st
	}
	if bucketDeg <= 0 {
		bucketDeg = 5
	}
	buckets := 180 / bucketDeg
	if 180%bucketDeg != 0 {
		buckets++
	}

	counts := make([]int, buckets)
	for _, s := range segs {
		b := int(s.angle()) / bucketDeg
		if b >= buckets {
			b = buckets - 1
		}
		counts[b]++
	}
	for b, c := range counts {
		if c > 0 && float64(c) >= share*float64(len(segs)) {
			st.DominantGroups = append(st.DominantGroups, entity.AngleGroup{AngleDeg: b * bucketDeg, Count: c})
		}
	}
	sort.SliceStable(st.DominantGroups, func(i, j int) bool {
		return st.DominantGroups[i].Count > st.DominantGroups[j].Count
	})
	st.ParallelDominant = len(st.DominantGroups) > 0

	for _, s := range segs {
		for _, c := range clusters {
			if c.Localized && s.intersects(c.Bounds) {
				st.InCluster++
				break
			}
		}
	}
	st.InClusterRatio = float64(st.InCluster) / float64(len(segs))
	return st
}
