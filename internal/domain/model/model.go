// Пакет model — доменные типы Web Module: профиль пользователя,
// AI-ассистенты, действия модальных окон.
package model

import "github.com/bigkaa/golms/web-module/internal/domain/rbac"

// LoginType — способ аутентификации пользователя (закрытое перечисление).
type LoginType string

const (
	LoginTypeLocal   LoginType = "local"
	LoginTypeGoogle  LoginType = "google"
	LoginTypeOutlook LoginType = "outlook"
)

// ParseLoginType преобразует значение login_type от backend.
// Нераспознанные значения считаются local.
func ParseLoginType(s string) LoginType {
	switch LoginType(s) {
	case LoginTypeGoogle, LoginTypeOutlook:
		return LoginType(s)
	default:
		return LoginTypeLocal
	}
}

// Profile — канонический профиль пользователя от GET /users/me.
type Profile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            rbac.Role `json:"role"`
	Avatar          string    `json:"avatar"`
	LoginType       LoginType `json:"login_type"`
	PasswordChanged bool      `json:"password_changed"`
}

// User — элемент списка пользователей на административном экране.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar"`
	CreatedAt int64  `json:"created_at"`
}

// UserPage — страница списка пользователей с общим количеством.
type UserPage struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// AssistantModel — AI-ассистент, управляемый на экране администратора.
type AssistantModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseModel   string `json:"base_model"`
	IsActive    bool   `json:"is_active"`
}

// NewAssistantModel — данные формы создания/редактирования ассистента.
type NewAssistantModel struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseModel   string `json:"base_model"`
}

// --- Действия модальных окон ---
//
// Каждое действие модального окна — отдельный вариант закрытого типа
// и несёт только свои поля.

// ModalAction — закрытый тип действий модальных окон.
// Реализации перечислены ниже; метод isModalAction не экспортируется,
// поэтому внешние пакеты не могут добавить новый вариант.
type ModalAction interface {
	isModalAction()
}

// CreateUserModal — модалка создания пользователя.
type CreateUserModal struct {
	Email string
	Name  string
	Role  rbac.Role
}

// CreateAssistantModal — модалка создания AI-ассистента.
type CreateAssistantModal struct {
	BaseModels []string
}

// EditAssistantModal — модалка редактирования AI-ассистента.
type EditAssistantModal struct {
	Assistant AssistantModel
}

// DeleteAssistantModal — модалка подтверждения удаления ассистента.
type DeleteAssistantModal struct {
	ID   string
	Name string
}

func (CreateUserModal) isModalAction()      {}
func (CreateAssistantModal) isModalAction() {}
func (EditAssistantModal) isModalAction()   {}
func (DeleteAssistantModal) isModalAction() {}
