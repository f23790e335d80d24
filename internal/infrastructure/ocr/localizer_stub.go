//go:build !ocr
// +build !ocr

package ocr

import (
	"context"
	"errors"
	"image"

	"docguard/internal/domain/entity"
)

// Enabled сборка без Tesseract.
const Enabled = false

// ErrDisabled сборка без тега ocr.
var ErrDisabled = errors.New("ocr build tag is not enabled")

// Locate возвращает ошибку, если сборка без тега ocr.
func (l *Localizer) Locate(ctx context.Context, buf *entity.PixelBuffer) ([]image.Rectangle, error) {
	return nil, ErrDisabled
}
