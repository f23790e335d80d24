package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu         UserState = "main_menu"         // В главном меню
	StateAwaitingDocument UserState = "awaiting_document" // Ожидание снимка документа
	StateProcessing       UserState = "processing"        // Идёт проверка
)

// User представляет пользователя бота
type User struct {
	ID         int64     // Telegram User ID
	ChatID     int64     // Telegram Chat ID
	State      UserState // Текущее состояние пользователя
	Policy     string    // Выбранная политика: strict, balanced, lenient
	Screenshot bool      // Присылает скриншоты, а не фото
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
		Policy: "balanced",
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetPolicy запоминает выбранную политику
func (u *User) SetPolicy(policy string) {
	u.Policy = policy
}

// ToggleScreenshot переключает режим скриншотов и возвращает новое значение
func (u *User) ToggleScreenshot() bool {
	u.Screenshot = !u.Screenshot
	return u.Screenshot
}

// EvaluationContext собирает контекст проверки из настроек пользователя.
// recompressed выставляется для фото, пережатых мессенджером.
func (u *User) EvaluationContext(recompressed bool) EvaluationContext {
	return EvaluationContext{
		Policy:         u.Policy,
		IsScreenshot:   u.Screenshot,
		IsWhatsAppLike: recompressed,
	}
}
