package port

import (
	"context"

	"docguard/internal/domain/entity"
)

// UserRepository хранилище настроек и состояния пользователей бота.
// Get отдаёт копию: изменения видны другим только после Save.
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового с политикой balanced если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет пользователя целиком
	Save(ctx context.Context, user *entity.User) error

	// UpdateState меняет только состояние диалога, не трогая настройки
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error

	// TryBeginProcessing атомарно переводит пользователя в StateProcessing.
	// false если проверка уже идёт; состояние тогда не меняется.
	TryBeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, bool, error)
}
