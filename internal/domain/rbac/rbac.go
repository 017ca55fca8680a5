// Пакет rbac — роли пользователей LMS и маршрутизация по ролям.
// Каждой роли соответствует ровно один landing-маршрут; неизвестная
// роль оставляет пользователя на текущей странице вместо ошибки.
package rbac

import "strings"

// Role — роль пользователя в LMS (закрытое перечисление).
type Role string

// Роли в фиксированном порядке приоритета.
const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleDirector Role = "director"
	RoleTeacher  Role = "teacher"
	RoleStudent  Role = "student"
	// RoleUnknown — роль до завершения загрузки профиля или при
	// нераспознанном значении от backend.
	RoleUnknown Role = "unknown"
)

// LoginPath — точка входа для неаутентифицированных пользователей.
const LoginPath = "/auth/login"

// rolePriority — фиксированный порядок разрешения маршрутов.
var rolePriority = []Role{
	RoleAdmin,
	RoleManager,
	RoleDirector,
	RoleTeacher,
	RoleStudent,
}

// landingRoutes — маппинг роль → landing-маршрут.
// Ровно один маршрут на роль, сквозных переходов между ролями нет.
var landingRoutes = map[Role]string{
	RoleAdmin:    "/admin",
	RoleManager:  "/manager",
	RoleDirector: "/director",
	RoleTeacher:  "/teacher",
	RoleStudent:  "/student",
}

// ParseRole преобразует строку от backend в Role.
// Регистр не значим; нераспознанные значения дают RoleUnknown.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(s)); r {
	case RoleAdmin, RoleManager, RoleDirector, RoleTeacher, RoleStudent:
		return r
	default:
		return RoleUnknown
	}
}

// IsValid возвращает true для известных ролей (unknown не считается валидной).
func (r Role) IsValid() bool {
	_, ok := landingRoutes[r]
	return ok
}

// ResolveLandingRoute возвращает landing-маршрут для роли.
// Для неизвестной роли возвращает пустую строку — "остаться на месте".
func ResolveLandingRoute(role Role) string {
	for _, r := range rolePriority {
		if role == r {
			return landingRoutes[r]
		}
	}
	return ""
}

// Decision — результат проверки доступа.
type Decision struct {
	// Authorized — роль входит в разрешённый набор.
	Authorized bool
	// Redirect — маршрут перенаправления при отказе (пустой при Authorized).
	Redirect string
}

// RequireRole проверяет, входит ли роль в разрешённый набор.
// При отказе возвращает redirect на landing-маршрут собственной роли
// пользователя, а если роль неизвестна — на точку входа login.
func RequireRole(role Role, allowed ...Role) Decision {
	for _, a := range allowed {
		if role == a {
			return Decision{Authorized: true}
		}
	}

	fallback := ResolveLandingRoute(role)
	if fallback == "" {
		fallback = LoginPath
	}
	return Decision{Redirect: fallback}
}
