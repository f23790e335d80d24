// Package imagesource превращает байты файла в буфер пикселей BGR.
package imagesource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"docguard/internal/domain/entity"
)

// ErrDecode файл не является поддерживаемым изображением.
var ErrDecode = errors.New("cannot decode image")

// Decoder декодер с ограничением длинной стороны и числа пикселей.
type Decoder struct {
	// MaxSide больше этой стороны изображение уменьшается; 0 без ограничения.
	MaxSide int
	// MaxPixels предел Width*Height по заголовку; больше отклоняется до декодирования.
	// 0 без ограничения.
	MaxPixels int64
}

// NewDecoder создаёт декодер.
func NewDecoder(maxSide int, maxPixels int64) *Decoder {
	return &Decoder{MaxSide: maxSide, MaxPixels: maxPixels}
}

// Decode распознаёт формат, декодирует и при необходимости уменьшает изображение.
// Прозрачность накладывается на белый фон.
func (d *Decoder) Decode(data []byte) (*entity.PixelBuffer, string, error) {
	if len(data) == 0 {
		return nil, "", &entity.InputError{Reason: "no data", Err: entity.ErrEmptyImage}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", &entity.InputError{Reason: "header", Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, &entity.InputError{
			Reason: fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
			Err:    entity.ErrInvalidDimensions,
		}
	}
	if px := int64(cfg.Width) * int64(cfg.Height); d.MaxPixels > 0 && px > d.MaxPixels {
		return nil, format, &entity.InputError{
			Reason: fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, d.MaxPixels),
			Err:    entity.ErrImageTooLarge,
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, &entity.InputError{Reason: format, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}

	img = d.fit(img)
	buf, err := entity.NewPixelBuffer(img.Bounds().Dx(), img.Bounds().Dy(), 3, toBGR(img))
	if err != nil {
		return nil, format, err
	}
	return buf, format, nil
}

// fit уменьшает изображение по длинной стороне фильтром Ланцоша.
func (d *Decoder) fit(img image.Image) image.Image {
	b := img.Bounds()
	if d.MaxSide <= 0 || (b.Dx() <= d.MaxSide && b.Dy() <= d.MaxSide) {
		return img
	}
	if b.Dx() >= b.Dy() {
		return resize.Resize(uint(d.MaxSide), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(d.MaxSide), img, resize.Lanczos3)
}

// toBGR раскладывает пиксели построчно в BGR.
func toBGR(img image.Image) []uint8 {
	b := img.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			// альфа предумножена: добавляем белую подложку
			bg := 0xffff - a
			out = append(out, uint8((bl+bg)>>8), uint8((g+bg)>>8), uint8((r+bg)>>8))
		}
	}
	return out
}
