package vision

import (
	"math"
	"math/rand/v2"
)

// haloPlanes входные плоскости для поиска ореолов.
type haloPlanes struct {
	w, h   int
	gray   []uint8
	edges  []uint8
	gx, gy []float64
}

// haloRatio доля краевых пикселей с двусторонним выбросом яркости вдоль нормали к краю:
// на светлой стороне пик выше дальнего плато, на тёмной провал ниже него.
// Если краевых пикселей больше cap, берётся равномерная выборка из rng.
// Возвращает долю и число проверенных пикселей.
func haloRatio(p haloPlanes, walk int, delta float64, sampleCap int, rng *rand.Rand) (float64, int) {
	if walk < 2 {
		walk = 2
	}
	margin := walk + 1

	candidates := make([]int, 0, 1024)
	for y := margin; y < p.h-margin; y++ {
		row := y * p.w
		for x := margin; x < p.w-margin; x++ {
			if p.edges[row+x] != 0 {
				candidates = append(candidates, row+x)
			}
		}
	}
	if len(candidates) == 0 {
		return 0, 0
	}

	if sampleCap > 0 && len(candidates) > sampleCap {
		// частичная перетасовка Фишера–Йетса
		for i := 0; i < sampleCap; i++ {
			j := i + rng.IntN(len(candidates)-i)
			candidates[i], candidates[j] = candidates[j], candidates[i]
		}
		candidates = candidates[:sampleCap]
	}

	halos, checked := 0, 0
	for _, idx := range candidates {
		gx, gy := p.gx[idx], p.gy[idx]
		mag := math.Hypot(gx, gy)
		if mag == 0 {
			continue
		}
		nx, ny := gx/mag, gy/mag
		x0, y0 := float64(idx%p.w), float64(idx/p.w)
		checked++

		// градиент направлен к светлой стороне
		brightPeak, brightFar := -1.0, 0.0
		darkDip, darkFar := 256.0, 0.0
		for k := 1; k <= walk; k++ {
			b := p.sample(x0+nx*float64(k), y0+ny*float64(k))
			d := p.sample(x0-nx*float64(k), y0-ny*float64(k))
			if k == walk {
				brightFar, darkFar = b, d
				continue
			}
			brightPeak = math.Max(brightPeak, b)
			darkDip = math.Min(darkDip, d)
		}

		if brightPeak-brightFar > delta && darkFar-darkDip > delta {
			halos++
		}
	}
	if checked == 0 {
		return 0, 0
	}
	return float64(halos) / float64(checked), checked
}

func (p haloPlanes) sample(x, y float64) float64 {
	xi := int(math.Round(x))
	yi := int(math.Round(y))
	if xi < 0 {
		xi = 0
	} else if xi >= p.w {
		xi = p.w - 1
	}
	if yi < 0 {
		yi = 0
	} else if yi >= p.h {
		yi = p.h - 1
	}
	return float64(p.gray[yi*p.w+xi])
}
