// login.go — страница входа: форма email/пароль и кнопка Google Identity Services.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// LoginData — данные страницы входа.
type LoginData struct {
	// GoogleClientID — OAuth client ID для Google Identity Services.
	GoogleClientID string
	// GoogleLoginURI — абсолютный URL, куда GIS отправит credential.
	GoogleLoginURI string
	// ReturnURL — куда вернуть пользователя после входа (опционально).
	ReturnURL string
	// ErrorKey — i18n-ключ сообщения об ошибке входа (пусто если нет).
	ErrorKey string
	// Email — введённый email для повторного показа формы.
	Email string
}

// Login — страница входа.
func Login(data LoginData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="card login-card"><h1>%s</h1>`,
			templ.EscapeString(i18n.T(ctx, "login.title"))); err != nil {
			return err
		}

		if data.ErrorKey != "" {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-error">%s</div>`,
				templ.EscapeString(i18n.T(ctx, data.ErrorKey))); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<form method="post" action="/auth/login">
<input type="hidden" name="return_url" value="%s">
<div class="form-field"><label for="email">%s</label>
<input id="email" name="email" type="email" value="%s" required autofocus></div>
<div class="form-field"><label for="password">%s</label>
<input id="password" name="password" type="password" required></div>
<button class="btn" type="submit">%s</button>
</form>
<p class="muted">%s</p>
`,
			templ.EscapeString(data.ReturnURL),
			templ.EscapeString(i18n.T(ctx, "login.email")),
			templ.EscapeString(data.Email),
			templ.EscapeString(i18n.T(ctx, "login.password")),
			templ.EscapeString(i18n.T(ctx, "login.submit")),
			templ.EscapeString(i18n.T(ctx, "login.or"))); err != nil {
			return err
		}

		// Google Identity Services: библиотека отправит ID-токен
		// POST-ом на login_uri (режим redirect, без клиентского JS).
		if _, err := fmt.Fprintf(w, `<script src="https://accounts.google.com/gsi/client" async></script>
<div id="g_id_onload"
  data-client_id="%s"
  data-login_uri="%s"
  data-ux_mode="redirect"
  data-auto_prompt="false"></div>
<div class="g_id_signin" data-type="standard" data-text="signin_with"></div>
</div>
`,
			templ.EscapeString(data.GoogleClientID),
			templ.EscapeString(data.GoogleLoginURI)); err != nil {
			return err
		}
		return nil
	})

	return page(LayoutData{TitleKey: "login.title"}, content)
}
