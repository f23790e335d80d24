//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

const noGoCV = "gocv build tag is not enabled"

var errNoGoCV = errors.New(noGoCV)

// Detect без OpenCV детектор недоступен.
func (d *ELADetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.ELAMetrics] {
	return entity.Unavailable[entity.ELAMetrics](noGoCV)
}

// Detect без OpenCV детектор недоступен.
func (d *NoiseDetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.NoiseMetrics] {
	return entity.Unavailable[entity.NoiseMetrics](noGoCV)
}

// Detect без OpenCV детектор недоступен.
func (d *CopyMoveDetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.CopyMoveMetrics] {
	return entity.Unavailable[entity.CopyMoveMetrics](noGoCV)
}

// Detect без OpenCV детектор недоступен.
func (d *OverlayDetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.OverlayMetrics] {
	return entity.Unavailable[entity.OverlayMetrics](noGoCV)
}

// Locate возвращает ошибку, если сборка без тега gocv.
func (l *TextLocator) Locate(ctx context.Context, buf *entity.PixelBuffer) ([]image.Rectangle, error) {
	return nil, errNoGoCV
}

// Highlight возвращает ошибку, если сборка без тега gocv.
func (h *Highlighter) Highlight(buf *entity.PixelBuffer, v *entity.Verdict) ([]byte, error) {
	return nil, errNoGoCV
}
