// Package ocr внешний локализатор текста на Tesseract (сборка с тегом ocr).
package ocr

import (
	"bytes"
	"image"
	"image/png"

	"docguard/internal/domain/entity"
)

// Localizer ищет строки текста через Tesseract.
type Localizer struct {
	Languages     []string
	MinConfidence float64
}

// NewLocalizer создаёт локализатор для русского и английского текста.
func NewLocalizer() *Localizer {
	return &Localizer{Languages: []string{"rus", "eng"}, MinConfidence: 40}
}

// Source источник областей в отчёте.
func (l *Localizer) Source() string { return entity.RegionSourceOCR }

// encodePNG переводит буфер BGR в PNG для передачи в Tesseract.
func encodePNG(buf *entity.PixelBuffer) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			b, g, r := buf.BGR(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xff
		}
	}
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
