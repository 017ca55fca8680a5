// errpage.go — страница ошибки.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// ErrorData — данные страницы ошибки.
type ErrorData struct {
	// Status — HTTP-статус (для показа пользователю).
	Status int
	// MessageKey — i18n-ключ описания ошибки.
	MessageKey string
	// HomePath — куда ведёт ссылка возврата.
	HomePath string
}

// Error — страница ошибки с возвратом на стартовую.
func Error(data ErrorData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		home := data.HomePath
		if home == "" {
			home = "/"
		}
		_, err := fmt.Fprintf(w, `<div class="card login-card"><h1>%s %d</h1><p>%s</p><a class="btn" href="%s">%s</a></div>
`,
			templ.EscapeString(i18n.T(ctx, "error.title")),
			data.Status,
			templ.EscapeString(i18n.T(ctx, data.MessageKey)),
			templ.EscapeString(home),
			templ.EscapeString(i18n.T(ctx, "error.back")))
		return err
	})

	return page(LayoutData{TitleKey: "error.title"}, content)
}
