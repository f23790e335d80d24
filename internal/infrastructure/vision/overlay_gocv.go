//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"math"

	"gocv.io/x/gocv"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

// Detect проверяет текстовые области на синтетический текст и цветные наложения.
func (d *OverlayDetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.OverlayMetrics] {
	if len(req.TextRegions) == 0 {
		return entity.Unavailable[entity.OverlayMetrics]("empty roi: no text regions")
	}
	mat, err := toMat(req.Buffer)
	if err != nil {
		return entity.Unavailable[entity.OverlayMetrics](err.Error())
	}
	defer mat.Close()

	planes, err := extractOverlayPlanes(mat)
	if err != nil {
		return entity.Unavailable[entity.OverlayMetrics](err.Error())
	}
	if err := ctx.Err(); err != nil {
		return entity.Unavailable[entity.OverlayMetrics](err.Error())
	}
	return overlayFromRegions(req, req.Buffer.Gray(), planes)
}

// extractOverlayPlanes хрома из Lab, тон и насыщенность из HSV, края Canny.
func extractOverlayPlanes(mat gocv.Mat) (overlayPlanes, error) {
	p := overlayPlanes{w: mat.Cols(), h: mat.Rows()}
	n := p.w * p.h

	gray := grayMat(mat)
	defer gray.Close()
	edges, _, _ := autoCanny(gray)
	p.edges = edges.ToBytes()
	edges.Close()

	if mat.Channels() == 1 {
		// у серого изображения нет цвета: нулевые плоскости
		p.chroma = make([]float64, n)
		p.hue = make([]uint8, n)
		p.sat = make([]uint8, n)
		return p, nil
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(mat, &lab, gocv.ColorBGRToLab)
	labCh := gocv.Split(lab)
	for i := range labCh {
		defer labCh[i].Close()
	}
	if len(labCh) < 3 {
		return overlayPlanes{}, errors.New("invalid lab channels")
	}
	a, b := labCh[1].ToBytes(), labCh[2].ToBytes()
	p.chroma = make([]float64, n)
	for i := 0; i < n; i++ {
		p.chroma[i] = math.Hypot(float64(a[i])-128, float64(b[i])-128)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	hsvCh := gocv.Split(hsv)
	for i := range hsvCh {
		defer hsvCh[i].Close()
	}
	if len(hsvCh) < 3 {
		return overlayPlanes{}, errors.New("invalid hsv channels")
	}
	p.hue = hsvCh[0].ToBytes()
	p.sat = hsvCh[1].ToBytes()
	return p, nil
}
