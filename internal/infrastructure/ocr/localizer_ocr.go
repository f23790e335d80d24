//go:build ocr
// +build ocr

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"docguard/internal/domain/entity"
)

// Enabled сборка с Tesseract.
const Enabled = true

// Locate возвращает рамки строк текста с достаточной уверенностью распознавания.
func (l *Localizer) Locate(ctx context.Context, buf *entity.PixelBuffer) ([]image.Rectangle, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	data, err := encodePNG(buf)
	if err != nil {
		return nil, fmt.Errorf("encode for ocr: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(l.Languages...); err != nil {
		return nil, fmt.Errorf("ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("ocr image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("ocr boxes: %w", err)
	}
	out := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < l.MinConfidence || b.Box.Empty() {
			continue
		}
		out = append(out, b.Box)
	}
	return out, nil
}
