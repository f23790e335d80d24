package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "docguard/internal/application"
	"docguard/internal/container"
	"docguard/internal/domain/entity"
	"docguard/internal/logger"
)

const (
	msgStart = `👋 Привет! Я проверяю фото и сканы документов на признаки редактирования.

📄 Пришлите документ файлом (лучше всего) или фото, и я оценю, нужна ли ручная проверка.

📋 Команды:
/check — начать проверку документа
/policy — строгость проверки (strict, balanced, lenient)
/screenshot — режим скриншотов вкл/выкл
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте документ файлом или фото
2️⃣ Бот прогонит изображение через детекторы
3️⃣ Вы получите уровень приоритета, список признаков и фото с подсветкой

💡 Рекомендации:
• Файл без сжатия даёт более точный результат
• Фото из мессенджеров проверяются с ослабленными порогами
• Для скриншотов включите /screenshot

📋 Команды:
/check — начать проверку
/policy strict|balanced|lenient — выбрать политику
/screenshot — режим скриншотов
/cancel — отменить операцию`

	msgAwaitingDocument = "📄 Отправьте документ файлом или фото для проверки."
	msgCancelled        = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendDocument     = "📄 Пожалуйста, отправьте изображение документа для проверки."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Проверяю изображение..."
	msgBusy             = "⏳ Предыдущая проверка ещё идёт, подождите."
	msgNotImage         = "⚠️ Это не изображение. Пришлите JPEG, PNG, WebP, TIFF или BMP."
	msgTooLarge         = "⚠️ Файл слишком большой. Максимум 20 МБ."
	msgBadImage         = "⚠️ Не удалось прочитать изображение. Попробуйте другой файл."
	msgImageTooLarge    = "⚠️ Слишком большое разрешение. Уменьшите изображение и пришлите снова."
	msgProcessingError  = "⚠️ Не удалось обработать изображение. Попробуйте ещё раз позже."
	msgHighlightCaption = "🔍 Подозрительные области"
)

// maxFileSize предел Bot API на скачивание файлов.
const maxFileSize = 20 << 20

// Bot представляет Telegram-бота
type Bot struct {
	api    *tgbotapi.BotAPI
	app    *container.Container
	log    *logger.Logger
	client *http.Client
	wg     sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("authorized", "account", api.Self.UserName)

	return &Bot{
		api:    api,
		app:    c,
		log:    log,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Каждое сообщение обрабатывается в своей горутине; при остановке
// дожидаемся начатых проверок.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	ctx = context.WithValue(ctx, logger.ContextKeyUserID, msg.From.ID)

	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.WithContext(ctx).Error("get user", "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Фото пережаты Telegram, файлы приходят как есть
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, user, photo.FileID, photo.FileSize, true)
		return
	}
	if msg.Document != nil {
		if !strings.HasPrefix(msg.Document.MimeType, "image/") {
			b.sendMessage(msg.Chat.ID, msgNotImage)
			return
		}
		b.handleImage(ctx, msg, user, msg.Document.FileID, msg.Document.FileSize, false)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendDocument)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	users := b.app.UserService
	chatID := msg.Chat.ID
	log := b.log.WithContext(ctx)

	switch msg.Command() {
	case "start":
		if _, err := users.Cancel(ctx, user.ID, chatID); err != nil {
			log.Error("reset state", "error", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		if _, err := users.BeginCheck(ctx, user.ID, chatID); err != nil {
			log.Error("begin check", "error", err)
		}
		b.sendMessage(chatID, msgAwaitingDocument)

	case "policy":
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg == "" {
			b.sendMessage(chatID, fmt.Sprintf("⚙️ Текущая политика: %s\nИзменить: /policy strict|balanced|lenient", user.Policy))
			return
		}
		updated, err := users.SetPolicy(ctx, user.ID, chatID, arg)
		if errors.Is(err, app.ErrUnknownPolicy) {
			b.sendMessage(chatID, fmt.Sprintf("❓ Неизвестная политика %q. Доступны: strict, balanced, lenient.", arg))
			return
		}
		if err != nil {
			log.Error("set policy", "error", err)
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("⚙️ Политика: %s", updated.Policy))

	case "screenshot":
		updated, err := users.ToggleScreenshot(ctx, user.ID, chatID)
		if err != nil {
			log.Error("toggle screenshot", "error", err)
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		if updated.Screenshot {
			b.sendMessage(chatID, "🖥 Режим скриншотов включён.")
		} else {
			b.sendMessage(chatID, "📷 Режим скриншотов выключен.")
		}

	case "cancel":
		if _, err := users.Cancel(ctx, user.ID, chatID); err != nil {
			log.Error("cancel", "error", err)
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleImage скачивает изображение и отправляет результат проверки
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string, size int, recompressed bool) {
	chatID := msg.Chat.ID
	log := b.log.WithContext(ctx)

	if size > maxFileSize {
		b.sendMessage(chatID, msgTooLarge)
		return
	}

	load := func(ctx context.Context) ([]byte, error) {
		b.sendMessage(chatID, msgProcessing)
		data, err := b.downloadFile(ctx, fileID)
		if err != nil {
			return nil, fmt.Errorf("download file: %w", err)
		}
		return data, nil
	}

	out, err := b.app.AnalysisService.ProcessDocument(ctx, user.ID, chatID, load, recompressed)
	var inputErr *entity.InputError
	switch {
	case errors.Is(err, app.ErrBusy):
		b.sendMessage(chatID, msgBusy)
		return
	case errors.Is(err, entity.ErrImageTooLarge):
		log.Info("rejected input", "error", err)
		b.sendMessage(chatID, msgImageTooLarge)
		return
	case errors.As(err, &inputErr):
		log.Info("rejected input", "error", err)
		b.sendMessage(chatID, msgBadImage)
		return
	case err != nil:
		log.Error("analyze", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	b.sendMessage(chatID, out.Summary)
	if len(out.Highlighted) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "highlight.jpg", Bytes: out.Highlighted})
		photo.Caption = msgHighlightCaption
		if _, err := b.api.Send(photo); err != nil {
			log.Error("send highlight", "error", err)
		}
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxFileSize+1)); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if buf.Len() > maxFileSize {
		return nil, fmt.Errorf("read file: larger than %d bytes", maxFileSize)
	}

	return buf.Bytes(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}
