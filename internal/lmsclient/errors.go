// errors.go — таксономия ошибок исходящих запросов к LMS backend.
package lmsclient

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки клиента. Проверяются через errors.Is.
var (
	// ErrInvalidCredentials — backend отклонил пару email/пароль (401
	// на /auth/login). Восстановимая: пользователь повторяет ввод.
	ErrInvalidCredentials = errors.New("неверные учётные данные")

	// ErrIdentityRejected — backend отклонил внешний id_token (401 на
	// /auth/google/verify-id-token): просроченный, повреждённый или
	// поддельный assertion.
	ErrIdentityRejected = errors.New("внешний identity token отклонён")

	// ErrUnauthorized — 401 на авторизованном запросе: сессия
	// недействительна на стороне backend. Единственная ошибка,
	// вызывающая глобальный teardown сессии.
	ErrUnauthorized = errors.New("сессия недействительна")

	// ErrForbidden — 403: аутентифицирован, но роль не даёт доступа.
	// Teardown не выполняется, ошибка отдаётся вызывающему как есть.
	ErrForbidden = errors.New("доступ запрещён")

	// ErrServer — 5xx от backend. Транзиентная, состояние сессии не меняется.
	ErrServer = errors.New("ошибка сервера backend")

	// ErrNetwork — транспортная ошибка, ответ не получен.
	ErrNetwork = errors.New("сетевая ошибка")
)

// APIError — ошибка уровня API backend с деталью из тела ответа.
// Возвращается для прочих не-2xx статусов (400, 404, 409, 422...).
type APIError struct {
	// StatusCode — HTTP статус ответа.
	StatusCode int
	// Detail — поле detail/message из тела ответа backend.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend вернул статус %d", e.StatusCode)
	}
	return fmt.Sprintf("backend вернул статус %d: %s", e.StatusCode, e.Detail)
}
