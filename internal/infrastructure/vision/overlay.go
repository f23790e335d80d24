package vision

import (
	"fmt"
	"image"
	"math"
	"sort"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// overlayPlanes цветовые плоскости для поиска цветных наложений.
// chroma из Lab, hue и sat из HSV в шкале OpenCV (hue 0..179).
type overlayPlanes struct {
	w, h   int
	chroma []float64
	hue    []uint8
	sat    []uint8
	edges  []uint8
}

// component связная компонента пикселей маски.
type component struct {
	pixels []int
	bounds image.Rectangle
}

// roiMask расширенные на dilate пикселей текстовые области без верхней полосы заголовка.
func roiMask(w, h int, boxes []image.Rectangle, dilate int, headerExclusion float64) ([]bool, int) {
	full := image.Rect(0, 0, w, h)
	top := int(math.Ceil(float64(h) * headerExclusion))
	mask := make([]bool, w*h)
	n := 0
	for _, b := range boxes {
		r := b.Inset(-dilate).Intersect(full)
		if r.Min.Y < top {
			r.Min.Y = top
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				i := y*w + x
				if !mask[i] {
					mask[i] = true
					n++
				}
			}
		}
	}
	return mask, n
}

// adaptiveThresholds пороги насыщенности по перцентилю распределения внутри ROI,
// не ниже заданных полов.
func adaptiveThresholds(p overlayPlanes, roi []bool, t policy.Thresholds) (float64, float64) {
	var chroma, sat []float64
	for i, on := range roi {
		if on {
			chroma = append(chroma, p.chroma[i])
			sat = append(sat, float64(p.sat[i]))
		}
	}
	if len(chroma) == 0 {
		return t.MinChroma, t.MinSaturation
	}
	return math.Max(t.MinChroma, quantile(chroma, t.ChromaPercentile)),
		math.Max(t.MinSaturation, quantile(sat, t.ChromaPercentile))
}

// components 8-связные компоненты маски в построчном порядке, не меньше minArea пикселей.
func components(mask []bool, w, h, minArea int) []component {
	visited := make([]bool, len(mask))
	queue := make([]int, 0, 64)
	var out []component
	for start, on := range mask {
		if !on || visited[start] {
			continue
		}
		queue = queue[:0]
		queue = append(queue, start)
		visited[start] = true
		sx, sy := start%w, start/w
		bounds := image.Rect(sx, sy, sx+1, sy+1)

		for head := 0; head < len(queue); head++ {
			i := queue[head]
			x, y := i%w, i/w
			bounds = bounds.Union(image.Rect(x, y, x+1, y+1))
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if mask[j] && !visited[j] {
						visited[j] = true
						queue = append(queue, j)
					}
				}
			}
		}
		if len(queue) >= minArea {
			out = append(out, component{pixels: append([]int(nil), queue...), bounds: bounds})
		}
	}
	return out
}

// convexHullArea площадь выпуклой оболочки центров пикселей (монотонная цепь Эндрю)
// с поправкой на половину периметра, чтобы сплошной прямоугольник давал ровно w·h.
func convexHullArea(pixels []int, w int) float64 {
	pts := make([]image.Point, len(pixels))
	for i, p := range pixels {
		pts[i] = image.Pt(p%w, p/w)
	}
	if len(pts) < 3 {
		return float64(len(pts))
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	hull := make([]image.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	var area2, perim float64
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		area2 += float64(a.X*b.Y - b.X*a.Y)
		perim += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return math.Abs(area2)/2 + perim/2 + 1
}

// hueStd круговое стандартное отклонение тона в единицах шкалы OpenCV.
func hueStd(hue []uint8, pixels []int) float64 {
	if len(pixels) == 0 {
		return 0
	}
	var sx, sy float64
	for _, p := range pixels {
		a := float64(hue[p]) * 2 * math.Pi / 180
		sx += math.Cos(a)
		sy += math.Sin(a)
	}
	r := math.Hypot(sx, sy) / float64(len(pixels))
	if r >= 1 {
		return 0
	}
	if r <= 0 {
		return 90
	}
	return math.Sqrt(-2*math.Log(r)) * 180 / math.Pi / 2
}

// measureComponent метрики компоненты-кандидата.
func measureComponent(c component, p overlayPlanes, textMask []bool) entity.OverlayCandidate {
	b := c.bounds
	short, long := b.Dx(), b.Dy()
	if short > long {
		short, long = long, short
	}

	// края Canny ложатся на границу, поэтому считаем их в рамке с запасом в пиксель
	edgeBox := b.Inset(-1).Intersect(image.Rect(0, 0, p.w, p.h))
	edges := 0
	for y := edgeBox.Min.Y; y < edgeBox.Max.Y; y++ {
		for x := edgeBox.Min.X; x < edgeBox.Max.X; x++ {
			if p.edges[y*p.w+x] != 0 {
				edges++
			}
		}
	}

	local := make([]bool, b.Dx()*b.Dy())
	overlap := 0
	var chroma float64
	for _, px := range c.pixels {
		x, y := px%p.w, px/p.w
		local[(y-b.Min.Y)*b.Dx()+(x-b.Min.X)] = true
		if textMask[px] {
			overlap++
		}
		chroma += p.chroma[px]
	}

	area := len(c.pixels)
	cand := entity.OverlayCandidate{
		Box:         b,
		Area:        area,
		AspectRatio: round3(float64(long) / float64(max(short, 1))),
		EdgeRatio:   round3(float64(edges) / float64(area)),
		Solidity:    round3(math.Min(1, float64(area)/convexHullArea(c.pixels, p.w))),
		HueVariance: round3(hueStd(p.hue, c.pixels)),
		TextOverlap: round3(float64(overlap) / float64(area)),
		MeanChroma:  round3(chroma / float64(area)),
	}
	if widths := strokeWidths(local, b.Dx(), b.Dy()); len(widths) >= minRidgePixels {
		if mean, std := meanStd(widths); mean > 0 {
			cand.StrokeCV = round3(std / mean)
		}
	}
	return cand
}

// rejectReason первая причина, по которой компонента не считается наложением.
func rejectReason(c entity.OverlayCandidate, t policy.Thresholds) string {
	switch {
	case c.AspectRatio < t.AspectMin || c.AspectRatio > t.AspectMax:
		return "aspect"
	case c.EdgeRatio < t.MinEdgeRatio:
		return "edge_ratio"
	case c.StrokeCV > t.OverlayStrokeCVMax:
		return "stroke_cv"
	case c.TextOverlap < t.MinTextOverlap:
		return "text_overlap"
	case c.Solidity < t.MinSolidity:
		return "solidity"
	case c.HueVariance > t.MaxHueStd:
		return "hue_variance"
	}
	return ""
}

// analyzeOverlay тест цветных наложений: ROI вокруг текста, адаптивные пороги,
// фильтрация компонент по форме и цвету.
func analyzeOverlay(p overlayPlanes, boxes []image.Rectangle, t policy.Thresholds) entity.OverlayMetrics {
	var m entity.OverlayMetrics
	roi, n := roiMask(p.w, p.h, boxes, t.ROIDilate, t.HeaderExclusion)
	if n == 0 {
		m.OverlayReason = "empty roi"
		return m
	}
	m.ChromaThreshold, m.SatThreshold = adaptiveThresholds(p, roi, t)
	m.ChromaThreshold = round3(m.ChromaThreshold)
	m.SatThreshold = round3(m.SatThreshold)

	candidates := make([]bool, len(roi))
	for i, on := range roi {
		candidates[i] = on && p.chroma[i] >= m.ChromaThreshold && float64(p.sat[i]) >= m.SatThreshold
	}
	comps := components(candidates, p.w, p.h, t.MinComponentArea)
	if len(comps) == 0 {
		m.OverlayReason = "no chromatic components"
		return m
	}

	// перекрытие считаем с текстом, расширенным на половину отступа ROI
	textMask, _ := roiMask(p.w, p.h, boxes, t.ROIDilate/2, 0)
	rejected := make(map[string]int)
	for _, c := range comps {
		cand := measureComponent(c, p, textMask)
		if reason := rejectReason(cand, t); reason != "" {
			rejected[reason]++
			continue
		}
		m.Overlays = append(m.Overlays, cand)
	}
	m.OverlayDetected = len(m.Overlays) > 0
	if m.OverlayDetected {
		m.OverlayReason = fmt.Sprintf("colored strokes near text: %d", len(m.Overlays))
	} else {
		m.OverlayReason = "rejected: " + formatCounts(rejected)
	}
	return m
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return s
}

// analyzeSynthetic тест равномерности штриха по всем текстовым областям.
func analyzeSynthetic(buf *entity.PixelBuffer, gray []uint8, boxes []image.Rectangle, t policy.Thresholds) ([]entity.SyntheticTextCandidate, bool) {
	var out []entity.SyntheticTextCandidate
	detected := false
	for _, b := range boxes {
		c, ok := analyzeTextBox(buf, gray, b, t)
		if !ok {
			continue
		}
		if c.Uniform || c.PureColor {
			detected = true
			out = append(out, c)
		}
	}
	return out, detected
}
