package port

import (
	"context"
	"image"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// DetectRequest вход одного детектора. Буфер только читается.
type DetectRequest struct {
	Buffer     *entity.PixelBuffer
	Thresholds policy.Thresholds
	// TextRegions нужны только детектору текста и наложений.
	TextRegions []entity.TextRegion
}

// Detector независимый детектор подделки с типизированными метриками
type Detector[M any] interface {
	// Name имя детектора в отчёте
	Name() string

	// Detect никогда не паникует наружу: ошибка алгоритма превращается в Unavailable
	Detect(ctx context.Context, req DetectRequest) entity.Result[M]
}

// TextLocalizer поиск текстовых областей
type TextLocalizer interface {
	// Source источник областей: ocr или internal
	Source() string

	// Locate возвращает прямоугольники текста в координатах буфера
	Locate(ctx context.Context, buf *entity.PixelBuffer) ([]image.Rectangle, error)
}

// MetadataAnalyzer аномалии EXIF/XMP по исходным байтам файла
type MetadataAnalyzer interface {
	Analyze(ctx context.Context, raw []byte, format string) entity.Result[entity.MetadataMetrics]
}

// PixelSource декодирует файл в буфер пикселей
type PixelSource interface {
	// Decode возвращает буфер и имя формата контейнера
	Decode(data []byte) (*entity.PixelBuffer, string, error)
}

// Highlighter рисует найденные области поверх изображения
type Highlighter interface {
	// Highlight возвращает JPEG с рамками кластеров, наложений и клонов
	Highlight(buf *entity.PixelBuffer, verdict *entity.Verdict) ([]byte, error)
}
