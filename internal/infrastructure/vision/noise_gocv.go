//go:build gocv
// +build gocv

package vision

import (
	"context"
	"math"

	"gocv.io/x/gocv"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
	"docguard/internal/domain/port"
)

// Detect строит плоскости OpenCV и передаёт их анализатору шума.
func (d *NoiseDetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.NoiseMetrics] {
	mat, err := toMat(req.Buffer)
	if err != nil {
		return entity.Unavailable[entity.NoiseMetrics](err.Error())
	}
	defer mat.Close()

	gray := grayMat(mat)
	defer gray.Close()

	p, err := extractNoisePlanes(gray, req.Thresholds)
	if err != nil {
		return entity.Unavailable[entity.NoiseMetrics](err.Error())
	}
	if err := ctx.Err(); err != nil {
		return entity.Unavailable[entity.NoiseMetrics](err.Error())
	}

	m, err := analyzeNoise(p, req.Thresholds)
	if err != nil {
		return entity.Unavailable[entity.NoiseMetrics](err.Error())
	}
	return entity.Available(m)
}

func extractNoisePlanes(gray gocv.Mat, t policy.Thresholds) (noisePlanes, error) {
	p := noisePlanes{w: gray.Cols(), h: gray.Rows(), gray: gray.ToBytes()}

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 3, 1, 0, gocv.BorderDefault)
	var err error
	if p.lap, err = floats(lap); err != nil {
		return noisePlanes{}, err
	}

	edges, low, high := autoCanny(gray)
	defer edges.Close()
	p.edges = edges.ToBytes()
	p.cannyLow, p.cannyHigh = low, high

	gx := gocv.NewMat()
	defer gx.Close()
	gocv.Sobel(gray, &gx, gocv.MatTypeCV64F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	if p.gx, err = floats(gx); err != nil {
		return noisePlanes{}, err
	}

	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(gray, &gy, gocv.MatTypeCV64F, 0, 1, 3, 1, 0, gocv.BorderDefault)
	if p.gy, err = floats(gy); err != nil {
		return noisePlanes{}, err
	}

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, t.HoughThreshold,
		float32(t.HoughMinLength), float32(t.HoughMaxGap))
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		if len(v) < 4 {
			continue
		}
		p.segments = append(p.segments, segment{x1: int(v[0]), y1: int(v[1]), x2: int(v[2]), y2: int(v[3])})
	}
	return p, nil
}
