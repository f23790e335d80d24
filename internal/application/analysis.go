package app

import (
	"context"
	"errors"
	"time"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
	"docguard/internal/logger"
)

// AnalysisService ведёт проверку присланного файла: декодирование, оценка,
// подсветка найденных областей и текстовое описание.
type AnalysisService struct {
	users       *UserService
	decoder     port.PixelSource
	engine      *Engine
	highlighter port.Highlighter
	describer   port.VerdictDescriber
	timeout     time.Duration
	log         *logger.Logger
}

// AnalysisOutput вердикт, его описание и картинка с подсветкой (если есть).
type AnalysisOutput struct {
	Verdict     *entity.Verdict
	Buffer      *entity.PixelBuffer
	Summary     string
	Highlighted []byte
}

// NewAnalysisService создаёт сервис проверки. highlighter и describer необязательны.
func NewAnalysisService(users *UserService, decoder port.PixelSource, engine *Engine, highlighter port.Highlighter, describer port.VerdictDescriber, timeout time.Duration, log *logger.Logger) *AnalysisService {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisService{
		users:       users,
		decoder:     decoder,
		engine:      engine,
		highlighter: highlighter,
		describer:   describer,
		timeout:     timeout,
		log:         log,
	}
}

// AnalyzeBytes декодирует файл и оценивает его. Исходные байты передаются
// в анализ метаданных.
func (s *AnalysisService) AnalyzeBytes(ctx context.Context, data []byte, ectx entity.EvaluationContext) (*AnalysisOutput, error) {
	if s.decoder == nil || s.engine == nil {
		return nil, errors.New("analysis is not configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	buf, format, err := s.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	ectx.Raw = data
	ectx.Format = format

	verdict, err := s.engine.Evaluate(ctx, buf, ectx)
	if err != nil {
		return nil, err
	}

	out := &AnalysisOutput{Verdict: verdict, Buffer: buf}
	if s.describer != nil {
		if out.Summary, err = s.describer.Describe(ctx, verdict); err != nil {
			s.log.Warn("describe verdict", "error", err)
		}
	}
	if s.highlighter != nil && verdict.Tier > entity.TierNormal {
		if out.Highlighted, err = s.highlighter.Highlight(buf, verdict); err != nil {
			s.log.Debug("highlight skipped", "error", err)
			out.Highlighted = nil
		}
	}
	return out, nil
}

// DocumentLoader получает байты файла, например скачивает их из Telegram.
type DocumentLoader func(ctx context.Context) ([]byte, error)

// ProcessDocument проверяет файл пользователя бота с его настройками.
// Пользователь занимается до вызова load, поэтому второй файл во время
// проверки получает ErrBusy и не скачивается.
// recompressed выставляется для фото, пережатых мессенджером.
// Пользователь возвращается в главное меню при любом исходе.
func (s *AnalysisService) ProcessDocument(ctx context.Context, userID, chatID int64, load DocumentLoader, recompressed bool) (*AnalysisOutput, error) {
	user, err := s.users.BeginProcessing(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.users.Release(ctx, userID); err != nil {
			s.log.Warn("reset user state", "user_id", userID, "error", err)
		}
	}()

	ctx = context.WithValue(ctx, logger.ContextKeyUserID, userID)
	data, err := load(ctx)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeBytes(ctx, data, user.EvaluationContext(recompressed))
}
