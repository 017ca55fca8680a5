// Пакет session — слой согласования сессий Web Module.
// Объединяет локальный вход и вход через Google в единую нормализованную
// запись сессии, персистирует её в cookies и восстанавливает на каждой
// навигационной границе. Единственный писатель token cookie, profile
// cookie и кэша профилей — Manager (и его teardown-путь).
package session

import (
	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
)

// Record — нормализованная запись сессии: кто вошёл и каким способом.
// Остальное приложение потребляет только её; способ входа (LoginType)
// значим лишь там, где различие доменно-существенно.
type Record struct {
	// UserID — стабильный идентификатор пользователя backend.
	UserID string `json:"user_id"`
	// Name — отображаемое имя.
	Name string `json:"name"`
	// Email — электронная почта.
	Email string `json:"email"`
	// Role — роль из закрытого перечисления; unknown до загрузки профиля.
	Role rbac.Role `json:"role"`
	// LoginType — способ входа; определяет путь обновления при refresh.
	LoginType model.LoginType `json:"login_type"`
	// BackendToken — opaque bearer-токен backend. Присутствует тогда и
	// только тогда, когда аутентификация завершилась успешно.
	// В profile cookie не сериализуется: токен живёт в token cookie.
	BackendToken string `json:"-"`
	// PasswordChanged — сменил ли пользователь стартовый пароль.
	PasswordChanged bool `json:"password_changed"`
	// Avatar — URL аватара (опционально).
	Avatar string `json:"avatar,omitempty"`
}

// Authenticated возвращает true, если запись содержит backend-токен.
// Отсутствие токена означает неаутентифицированного пользователя
// независимо от валидности каких-либо внешних сессий.
func (r Record) Authenticated() bool {
	return r.BackendToken != ""
}

// NeedsPasswordPrompt возвращает true, если пользователю нужно
// предложить смену пароля. Для внешних способов входа (google, outlook)
// локального пароля нет и подсказка подавляется.
func (r Record) NeedsPasswordPrompt() bool {
	return r.LoginType == model.LoginTypeLocal && !r.PasswordChanged
}

// recordFromProfile строит Record из канонического профиля и токена.
func recordFromProfile(p model.Profile, token string, loginType model.LoginType) Record {
	return Record{
		UserID:          p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Role:            p.Role,
		LoginType:       loginType,
		BackendToken:    token,
		PasswordChanged: p.PasswordChanged,
		Avatar:          p.Avatar,
	}
}
