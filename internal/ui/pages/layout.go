// Пакет pages — серверные компоненты страниц Web Module.
// Компоненты реализуют интерфейс templ.Component и собираются
// композицией через templ.WithChildren, как сгенерированные шаблоны.
// Все динамические значения экранируются через templ.EscapeString.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// NavLink — пункт верхней навигации.
type NavLink struct {
	Href     string
	LabelKey string
	Active   bool
}

// LayoutData — данные общего каркаса страницы.
type LayoutData struct {
	// TitleKey — i18n-ключ заголовка страницы.
	TitleKey string
	// UserName — имя вошедшего пользователя; пусто для анонимных страниц.
	UserName string
	// Links — пункты навигации, доступные текущей роли.
	Links []NavLink
}

// Layout — общий каркас: head, навигация, контент-слот.
// Контент передаётся как children через templ.WithChildren.
func Layout(data LayoutData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lang := i18n.LangFromContext(ctx)
		title := i18n.T(ctx, data.TitleKey)

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s — %s</title>
<link rel="stylesheet" href="/static/css/app.css">
</head>
<body>
`, templ.EscapeString(lang), templ.EscapeString(title), templ.EscapeString(i18n.T(ctx, "nav.portal_title"))); err != nil {
			return err
		}

		if err := renderNav(ctx, w, data); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<main class="container">`+"\n"); err != nil {
			return err
		}

		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, "\n</main>\n</body>\n</html>\n")
		return err
	})
}

// renderNav рисует верхнюю панель. Для анонимных страниц — только бренд.
func renderNav(ctx context.Context, w io.Writer, data LayoutData) error {
	if _, err := fmt.Fprintf(w, `<nav class="topnav"><span class="brand">%s</span>`,
		templ.EscapeString(i18n.T(ctx, "nav.portal_title"))); err != nil {
		return err
	}

	for _, link := range data.Links {
		class := ""
		if link.Active {
			class = ` class="active"`
		}
		if _, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a>`,
			templ.EscapeString(link.Href), class,
			templ.EscapeString(i18n.T(ctx, link.LabelKey))); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, `<span class="spacer"></span>`); err != nil {
		return err
	}

	if err := renderLangSwitch(ctx, w); err != nil {
		return err
	}

	if data.UserName != "" {
		if _, err := fmt.Fprintf(w,
			`<span class="muted">%s</span><form method="post" action="/auth/logout"><button class="btn btn-secondary" type="submit">%s</button></form>`,
			templ.EscapeString(data.UserName),
			templ.EscapeString(i18n.T(ctx, "nav.logout"))); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</nav>\n")
	return err
}

// renderLangSwitch — переключатель языка en/vi.
func renderLangSwitch(ctx context.Context, w io.Writer) error {
	current := i18n.LangFromContext(ctx)
	if _, err := io.WriteString(w, `<span class="lang-switch">`); err != nil {
		return err
	}
	for _, lang := range []string{"en", "vi"} {
		if lang == current {
			if _, err := fmt.Fprintf(w, `<strong>%s</strong> `, lang); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, `<a href="/lang?lang=%s">%s</a> `, lang, lang); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</span>`)
	return err
}

// page оборачивает контент в каркас. Хелпер для обработчиков.
func page(data LayoutData, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(data).Render(templ.WithChildren(ctx, content), w)
	})
}
