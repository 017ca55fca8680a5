// landing.go — ролевая стартовая страница пользователя.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// LandingData — данные стартовой страницы.
type LandingData struct {
	UserName string
	Role     string
	Links    []NavLink
	// ShowPasswordPrompt — предложить смену стартового пароля.
	ShowPasswordPrompt bool
}

// Landing — стартовая страница ролевой области.
func Landing(data LandingData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.ShowPasswordPrompt {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-info"><strong>%s</strong> %s</div>`,
				templ.EscapeString(i18n.T(ctx, "password.prompt.title")),
				templ.EscapeString(i18n.T(ctx, "password.prompt.body"))); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<div class="card"><h1>%s</h1><p class="muted">%s</p></div>`,
			templ.EscapeString(i18n.Tf(ctx, "landing.welcome", data.UserName)),
			templ.EscapeString(i18n.Tf(ctx, "landing.role", data.Role))); err != nil {
			return err
		}
		return nil
	})

	return page(LayoutData{
		TitleKey: "nav.home",
		UserName: data.UserName,
		Links:    data.Links,
	}, content)
}
