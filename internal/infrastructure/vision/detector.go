//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"docguard/internal/domain/entity"
)

// toMat копирует буфер в gocv.Mat (CV_8UC3 для BGR, CV_8UC1 для серого).
func toMat(buf *entity.PixelBuffer) (gocv.Mat, error) {
	mt := gocv.MatTypeCV8UC3
	if buf.Channels == 1 {
		mt = gocv.MatTypeCV8UC1
	}
	mat, err := gocv.NewMatFromBytes(buf.Height, buf.Width, mt, buf.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("build mat: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.New("empty image")
	}
	return mat, nil
}

// grayMat серый вариант изображения; для одноканального буфера копия.
func grayMat(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if src.Channels() == 1 {
		src.CopyTo(&gray)
		return gray
	}
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// autoCanny края Canny с порогами 0.66·median и 1.33·median по размытому серому,
// чтобы тёмные и светлые документы обрабатывались одинаково.
func autoCanny(gray gocv.Mat) (gocv.Mat, float64, float64) {
	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	med := medianByte(blur.ToBytes())
	low := maxFloat(0, 0.66*med)
	high := minFloat(255, 1.33*med)
	if high <= low {
		high = low + 1
	}

	edges := gocv.NewMat()
	gocv.Canny(blur, &edges, float32(low), float32(high))
	return edges, low, high
}

// floats копирует CV_64F плоскость в срез Go.
func floats(m gocv.Mat) ([]float64, error) {
	data, err := m.DataPtrFloat64()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(data))
	copy(out, data)
	return out, nil
}

// medianByte медиана 8-битной плоскости по гистограмме.
func medianByte(b []uint8) float64 {
	if len(b) == 0 {
		return 0
	}
	var hist [256]int
	for _, v := range b {
		hist[v]++
	}
	half := (len(b) + 1) / 2
	acc := 0
	for i, c := range hist {
		acc += c
		if acc >= half {
			return float64(i)
		}
	}
	return 255
}

// encodeJPEG кодирует матрицу в JPEG заданного качества.
func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	nb, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer nb.Close()
	out := make([]byte, nb.Len())
	copy(out, nb.GetBytes())
	return out, nil
}

// Highlight рисует рамки найденных областей и возвращает новую картинку.
func (h *Highlighter) Highlight(buf *entity.PixelBuffer, v *entity.Verdict) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	src, err := toMat(buf)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// src делит память с buf.Pix, рамки рисуются на копии
	canvas := gocv.NewMat()
	defer canvas.Close()
	if src.Channels() == 1 {
		gocv.CvtColor(src, &canvas, gocv.ColorGrayToBGR)
	} else {
		src.CopyTo(&canvas)
	}

	red := color.RGBA{R: 255, A: 255}
	for _, r := range highlightBoxes(v) {
		gocv.Rectangle(&canvas, r, red, 2)
	}
	return encodeJPEG(canvas, h.Quality)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
