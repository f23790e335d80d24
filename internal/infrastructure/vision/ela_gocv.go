//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

// Detect перекодирует изображение в JPEG и сравнивает с исходником.
// При включённой проверке наклона повторяет ELA на нескольких уровнях качества.
func (d *ELADetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.ELAMetrics] {
	buf, t := req.Buffer, req.Thresholds
	mat, err := toMat(buf)
	if err != nil {
		return entity.Unavailable[entity.ELAMetrics](err.Error())
	}
	defer mat.Close()

	gray := grayMat(mat)
	defer gray.Close()
	edges, _, _ := autoCanny(gray)
	edgeMask := edges.ToBytes()
	edges.Close()

	recoded, err := recode(mat, t.ELAQuality)
	if err != nil {
		return entity.Unavailable[entity.ELAMetrics](fmt.Sprintf("re-encode at q=%d: %v", t.ELAQuality, err))
	}
	emap, err := elaMap(buf.Pix, recoded, buf.Width, buf.Height, buf.Channels)
	if err != nil {
		return entity.Unavailable[entity.ELAMetrics](err.Error())
	}
	m := elaStats(emap, edgeMask, t.ELAQuality, t)

	if !t.ELASlopeEnabled || len(t.ELASlopeQualities) < 2 {
		return entity.Available(m)
	}
	curve := make([]entity.QualityPoint, 0, len(t.ELASlopeQualities))
	for _, q := range t.ELASlopeQualities {
		if err := ctx.Err(); err != nil {
			return entity.Unavailable[entity.ELAMetrics](err.Error())
		}
		r, err := recode(mat, q)
		if err != nil {
			// без полной кривой наклон не считаем, основная метрика остаётся
			return entity.Available(m)
		}
		qm, err := elaMap(buf.Pix, r, buf.Width, buf.Height, buf.Channels)
		if err != nil {
			return entity.Available(m)
		}
		mean, _ := meanStd(qm.Values)
		curve = append(curve, entity.QualityPoint{Quality: q, Mean: round3(mean)})
	}
	slope, anomaly := qualitySlope(curve, t.ELAMinSlope, t.ELADipTolerance)
	m.Curve = curve
	m.Slope = round3(slope)
	m.SlopeChecked = true
	m.SlopeAnomaly = anomaly
	return entity.Available(m)
}

// recode JPEG с качеством quality и обратно, пиксели в раскладке исходной матрицы.
func recode(mat gocv.Mat, quality int) ([]uint8, error) {
	data, err := encodeJPEG(mat, quality)
	if err != nil {
		return nil, err
	}
	flag := gocv.IMReadColor
	if mat.Channels() == 1 {
		flag = gocv.IMReadGrayScale
	}
	back, err := gocv.IMDecode(data, flag)
	if err != nil {
		return nil, err
	}
	defer back.Close()
	if back.Empty() || back.Rows() != mat.Rows() || back.Cols() != mat.Cols() {
		return nil, fmt.Errorf("decoded %dx%d, want %dx%d", back.Cols(), back.Rows(), mat.Cols(), mat.Rows())
	}
	return back.ToBytes(), nil
}
