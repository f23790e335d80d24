package vision

import (
	"image"
	"math"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// minRidgePixels при меньшем числе гребневых пикселей ширину штриха не оцениваем.
const minRidgePixels = 8

// otsu порог Оцу по гистограмме значений.
func otsu(values []uint8) uint8 {
	var hist [256]int
	for _, v := range values {
		hist[v]++
	}
	total := len(values)
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumB float64
	wB := 0
	best, bestVar := 0, -1.0
	for i := 0; i < 256; i++ {
		wB += hist[i]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * hist[i])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = i
		}
	}
	return uint8(best)
}

// distanceTransform двухпроходная фаска (1, √2): расстояние от пикселя маски
// до ближайшего фона. Граница изображения считается фоном.
func distanceTransform(mask []bool, w, h int) []float64 {
	const diag = math.Sqrt2
	inf := float64(w + h)
	d := make([]float64, w*h)
	for i, on := range mask {
		if on {
			d[i] = inf
		}
	}
	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return d[y*w+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if d[i] == 0 {
				continue
			}
			v := d[i]
			v = math.Min(v, at(x-1, y)+1)
			v = math.Min(v, at(x, y-1)+1)
			v = math.Min(v, at(x-1, y-1)+diag)
			v = math.Min(v, at(x+1, y-1)+diag)
			d[i] = v
		}
	}
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			i := y*w + x
			if d[i] == 0 {
				continue
			}
			v := d[i]
			v = math.Min(v, at(x+1, y)+1)
			v = math.Min(v, at(x, y+1)+1)
			v = math.Min(v, at(x+1, y+1)+diag)
			v = math.Min(v, at(x-1, y+1)+diag)
			d[i] = v
		}
	}
	return d
}

// strokeWidths ширины штриха на гребне карты расстояний: 2·d − 1.
func strokeWidths(mask []bool, w, h int) []float64 {
	d := distanceTransform(mask, w, h)
	var widths []float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !mask[i] {
				continue
			}
			v := d[i]
			ridge := true
			for dy := -1; dy <= 1 && ridge; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					if d[ny*w+nx] > v {
						ridge = false
						break
					}
				}
			}
			if ridge {
				widths = append(widths, 2*v-1)
			}
		}
	}
	return widths
}

// inkMask бинаризует область по Оцу; чернилами считается меньший по площади класс.
func inkMask(gray []uint8) []bool {
	th := otsu(gray)
	dark := 0
	for _, v := range gray {
		if v <= th {
			dark++
		}
	}
	inkIsDark := dark <= len(gray)-dark
	mask := make([]bool, len(gray))
	for i, v := range gray {
		if inkIsDark {
			mask[i] = v <= th
		} else {
			mask[i] = v > th
		}
	}
	return mask
}

// analyzeTextBox оценивает равномерность штриха и чистоту цвета внутри текстовой области.
func analyzeTextBox(buf *entity.PixelBuffer, gray []uint8, box image.Rectangle, t policy.Thresholds) (entity.SyntheticTextCandidate, bool) {
	box = box.Intersect(image.Rect(0, 0, buf.Width, buf.Height))
	w, h := box.Dx(), box.Dy()
	if w*h < t.MinTextBoxArea || w < 3 || h < 3 {
		return entity.SyntheticTextCandidate{}, false
	}

	crop := make([]uint8, 0, w*h)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		crop = append(crop, gray[y*buf.Width+box.Min.X:y*buf.Width+box.Max.X]...)
	}
	mask := inkMask(crop)

	widths := strokeWidths(mask, w, h)
	if len(widths) < minRidgePixels {
		return entity.SyntheticTextCandidate{}, false
	}
	mean, std := meanStd(widths)
	if mean <= 0 {
		return entity.SyntheticTextCandidate{}, false
	}

	ink, pure := 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			ink++
			b, g, r := buf.BGR(box.Min.X+x, box.Min.Y+y)
			if nearExtreme(b, t.PureTolerance) && nearExtreme(g, t.PureTolerance) && nearExtreme(r, t.PureTolerance) {
				pure++
			}
		}
	}
	share := 0.0
	if ink > 0 {
		share = float64(pure) / float64(ink)
	}

	c := entity.SyntheticTextCandidate{
		Box:        box,
		StrokeMean: round3(mean),
		StrokeCV:   round3(std / mean),
		PureShare:  round3(share),
	}
	c.Uniform = c.StrokeCV < t.StrokeCVMax
	c.PureColor = t.PureColorEnabled && share >= t.PureShare
	return c, true
}

func nearExtreme(v uint8, tol float64) bool {
	return float64(v) <= tol || float64(v) >= 255-tol
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
