package app

import (
	"context"
	"errors"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
	"docguard/internal/domain/port"
)

var (
	// ErrUnknownPolicy имя политики не из списка strict, balanced, lenient.
	ErrUnknownPolicy = errors.New("unknown policy")
	// ErrBusy у пользователя уже идёт проверка.
	ErrBusy = errors.New("check already in progress")
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.SetState(state) })
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingDocument)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// BeginProcessing занимает пользователя под проверку или возвращает ErrBusy.
func (s *UserService) BeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, ok, err := s.repo.TryBeginProcessing(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	return user, nil
}

// Release возвращает пользователя в главное меню после проверки, не трогая настройки,
// которые он мог поменять за время проверки.
func (s *UserService) Release(ctx context.Context, userID int64) error {
	return s.repo.UpdateState(ctx, userID, entity.StateMainMenu)
}

// SetPolicy сохраняет политику пользователя.
func (s *UserService) SetPolicy(ctx context.Context, userID, chatID int64, name string) (*entity.User, error) {
	p, ok := policy.Parse(name)
	if !ok {
		return nil, ErrUnknownPolicy
	}
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.SetPolicy(string(p)) })
}

// ToggleScreenshot переключает режим скриншотов.
func (s *UserService) ToggleScreenshot(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.ToggleScreenshot() })
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(*entity.User)) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	fn(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
