package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage буфер без пикселей.
	ErrEmptyImage = errors.New("empty image")
	// ErrInvalidDimensions размеры буфера не согласованы с данными.
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	// ErrUnsupportedChannels поддерживаются только 1 (серый) и 3 (BGR) канала.
	ErrUnsupportedChannels = errors.New("unsupported channel count")
	// ErrImageTooLarge заголовок объявляет больше пикселей, чем разрешено декодировать.
	ErrImageTooLarge = errors.New("image too large")
)

// InputError ошибка входных данных: оценка прерывается целиком, без частичного вердикта.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error: %s: %v", e.Reason, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// PixelBuffer неизменяемый 8-битный буфер изображения.
// Пиксели хранятся построчно, для цветных изображений в порядке BGR.
// Детекторы только читают буфер, владеет им вызывающий код.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPixelBuffer проверяет размеры и возвращает буфер.
func NewPixelBuffer(width, height, channels int, pix []uint8) (*PixelBuffer, error) {
	b := &PixelBuffer{Width: width, Height: height, Channels: channels, Pix: pix}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate проверяет согласованность буфера.
func (b *PixelBuffer) Validate() error {
	if b == nil || len(b.Pix) == 0 {
		return &InputError{Reason: "pixel buffer", Err: ErrEmptyImage}
	}
	if b.Width <= 0 || b.Height <= 0 {
		return &InputError{Reason: fmt.Sprintf("%dx%d", b.Width, b.Height), Err: ErrInvalidDimensions}
	}
	if b.Channels != 1 && b.Channels != 3 {
		return &InputError{Reason: fmt.Sprintf("channels=%d", b.Channels), Err: ErrUnsupportedChannels}
	}
	if len(b.Pix) != b.Width*b.Height*b.Channels {
		return &InputError{
			Reason: fmt.Sprintf("expected %d bytes, got %d", b.Width*b.Height*b.Channels, len(b.Pix)),
			Err:    ErrInvalidDimensions,
		}
	}
	return nil
}

// Gray возвращает яркостную плоскость (BT.601) в новом срезе.
func (b *PixelBuffer) Gray() []uint8 {
	n := b.Width * b.Height
	out := make([]uint8, n)
	if b.Channels == 1 {
		copy(out, b.Pix)
		return out
	}
	for i := 0; i < n; i++ {
		p := b.Pix[i*3 : i*3+3]
		// BGR
		y := 0.114*float64(p[0]) + 0.587*float64(p[1]) + 0.299*float64(p[2])
		out[i] = uint8(y + 0.5)
	}
	return out
}

// BGR возвращает цветные каналы пикселя (x, y).
func (b *PixelBuffer) BGR(x, y int) (uint8, uint8, uint8) {
	if b.Channels == 1 {
		v := b.Pix[y*b.Width+x]
		return v, v, v
	}
	i := (y*b.Width + x) * 3
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Megapixels площадь изображения в мегапикселях.
func (b *PixelBuffer) Megapixels() float64 {
	return float64(b.Width*b.Height) / 1e6
}
