//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"docguard/internal/domain/entity"
)

// Locate ищет строки текста: морфологический градиент, порог Оцу
// и горизонтальное замыкание, чтобы буквы слились в строку.
func (l *TextLocator) Locate(ctx context.Context, buf *entity.PixelBuffer) ([]image.Rectangle, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	mat, err := toMat(buf)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := grayMat(mat)
	defer gray.Close()

	ellipse := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer ellipse.Close()
	grad := gocv.NewMat()
	defer grad.Close()
	gocv.MorphologyEx(gray, &grad, gocv.MorphGradient, ellipse)

	bw := gocv.NewMat()
	defer bw.Close()
	gocv.Threshold(grad, &bw, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	horiz := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(9, 1))
	defer horiz.Close()
	connected := gocv.NewMat()
	defer connected.Close()
	gocv.MorphologyEx(bw, &connected, gocv.MorphClose, horiz)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours := gocv.FindContours(connected, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if r.Dy() < l.MinHeight || r.Dy() > l.MaxHeight || r.Dx() < r.Dy() {
			continue
		}
		boxes = append(boxes, r)
	}
	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].Min.Y != boxes[j].Min.Y {
			return boxes[i].Min.Y < boxes[j].Min.Y
		}
		return boxes[i].Min.X < boxes[j].Min.X
	})
	return boxes, nil
}
