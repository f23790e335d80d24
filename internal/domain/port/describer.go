package port

import (
	"context"

	"docguard/internal/domain/entity"
)

// VerdictDescriber интерфейс описателя вердикта
type VerdictDescriber interface {
	// Describe генерирует текстовое описание вердикта для человека
	Describe(ctx context.Context, verdict *entity.Verdict) (string, error)
}
