package vision

import (
	"image"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

// Детекторы без состояния: все пороги приходят в DetectRequest,
// поэтому один экземпляр безопасно делить между горутинами.

// ELADetector анализ уровня ошибок после перекодирования в JPEG.
type ELADetector struct{}

// NoiseDetector анализатор шума и краёв по сетке плиток.
type NoiseDetector struct{}

// CopyMoveDetector поиск клонированных областей по ключевым точкам ORB.
type CopyMoveDetector struct{}

// OverlayDetector синтетический текст и цветные наложения вокруг текста.
type OverlayDetector struct{}

// TextLocator встроенный поиск текстовых строк морфологией.
type TextLocator struct {
	// MinHeight и MaxHeight границы высоты строки в пикселях
	MinHeight int
	MaxHeight int
}

// Highlighter рисует рамки найденных областей.
type Highlighter struct {
	Quality int
}

func NewELADetector() *ELADetector           { return &ELADetector{} }
func NewNoiseDetector() *NoiseDetector       { return &NoiseDetector{} }
func NewCopyMoveDetector() *CopyMoveDetector { return &CopyMoveDetector{} }
func NewOverlayDetector() *OverlayDetector   { return &OverlayDetector{} }

// NewTextLocator создаёт локализатор строк высотой от 8 до 120 пикселей.
func NewTextLocator() *TextLocator {
	return &TextLocator{MinHeight: 8, MaxHeight: 120}
}

// NewHighlighter создаёт рисовальщик, отдающий JPEG заданного качества.
func NewHighlighter() *Highlighter {
	return &Highlighter{Quality: 90}
}

func (d *ELADetector) Name() string      { return entity.DetectorELA }
func (d *NoiseDetector) Name() string    { return entity.DetectorNoise }
func (d *CopyMoveDetector) Name() string { return entity.DetectorCopyMove }
func (d *OverlayDetector) Name() string  { return entity.DetectorOverlay }

// Source встроенный локализатор.
func (l *TextLocator) Source() string { return entity.RegionSourceInternal }

var (
	_ port.Detector[entity.ELAMetrics]      = (*ELADetector)(nil)
	_ port.Detector[entity.NoiseMetrics]    = (*NoiseDetector)(nil)
	_ port.Detector[entity.CopyMoveMetrics] = (*CopyMoveDetector)(nil)
	_ port.Detector[entity.OverlayMetrics]  = (*OverlayDetector)(nil)
	_ port.TextLocalizer                    = (*TextLocator)(nil)
	_ port.Highlighter                      = (*Highlighter)(nil)
)

// regionBoxes прямоугольники областей и их общий источник.
func regionBoxes(regions []entity.TextRegion) ([]image.Rectangle, string) {
	boxes := make([]image.Rectangle, 0, len(regions))
	source := ""
	for _, r := range regions {
		boxes = append(boxes, r.Box)
		if source == "" {
			source = r.Source
		}
	}
	return boxes, source
}

// highlightBoxes прямоугольники для подсветки: локализованные кластеры,
// наложения, синтетический текст и концы пар клонов.
func highlightBoxes(v *entity.Verdict) []image.Rectangle {
	var out []image.Rectangle
	if m, ok := v.Detectors.Noise.Metrics(); ok {
		for _, c := range m.Clusters {
			if c.Localized {
				out = append(out, c.Bounds)
			}
		}
	}
	if m, ok := v.Detectors.Overlay.Metrics(); ok {
		for _, c := range m.Overlays {
			out = append(out, c.Box)
		}
		for _, c := range m.Synthetic {
			out = append(out, c.Box)
		}
	}
	if m, ok := v.Detectors.CopyMove.Metrics(); ok {
		const r = 4
		for _, mt := range m.Matches {
			out = append(out,
				image.Rect(mt.From.X-r, mt.From.Y-r, mt.From.X+r, mt.From.Y+r),
				image.Rect(mt.To.X-r, mt.To.Y-r, mt.To.X+r, mt.To.Y+r))
		}
	}
	return out
}

// overlayFromRegions общая часть детектора наложений: синтетический текст
// считается по всем областям, цветные наложения по плоскостям ROI.
func overlayFromRegions(req port.DetectRequest, gray []uint8, planes overlayPlanes) entity.Result[entity.OverlayMetrics] {
	boxes, source := regionBoxes(req.TextRegions)
	if len(boxes) == 0 {
		return entity.Unavailable[entity.OverlayMetrics]("empty roi: no text regions")
	}
	m := analyzeOverlay(planes, boxes, req.Thresholds)
	m.TextRegions = len(boxes)
	m.RegionSource = source
	m.Synthetic, m.SyntheticDetected = analyzeSynthetic(req.Buffer, gray, boxes, req.Thresholds)
	return entity.Available(m)
}
