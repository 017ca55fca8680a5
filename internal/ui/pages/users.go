// users.go — административный экран управления пользователями.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// UsersData — данные экрана пользователей.
type UsersData struct {
	UserName string
	Links    []NavLink
	Page     model.UserPage
	Query    string
	SearchBy string
	// Roles — роли, доступные для назначения.
	Roles []rbac.Role
	// FlashKey — i18n-ключ флеш-сообщения (пусто если нет).
	FlashKey string
	// BasePath — путь экрана для ссылок пагинации и форм.
	BasePath string
}

// Users — экран списка пользователей с поиском, пагинацией и сменой роли.
func Users(data UsersData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="card"><h1>%s</h1>`,
			templ.EscapeString(i18n.T(ctx, "users.title"))); err != nil {
			return err
		}

		if data.FlashKey != "" {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-info">%s</div>`,
				templ.EscapeString(i18n.T(ctx, data.FlashKey))); err != nil {
				return err
			}
		}

		if err := renderUserSearch(ctx, w, data); err != nil {
			return err
		}
		if err := renderUserTable(ctx, w, data); err != nil {
			return err
		}
		if err := renderUserPagination(ctx, w, data); err != nil {
			return err
		}

		_, err := io.WriteString(w, "</div>\n")
		return err
	})

	return page(LayoutData{
		TitleKey: "users.title",
		UserName: data.UserName,
		Links:    data.Links,
	}, content)
}

func renderUserSearch(ctx context.Context, w io.Writer, data UsersData) error {
	selName, selEmail := "", ""
	if data.SearchBy == "email" {
		selEmail = " selected"
	} else {
		selName = " selected"
	}

	_, err := fmt.Fprintf(w, `<form method="get" action="%s" class="form-field">
<input name="query" value="%s" placeholder="%s">
<select name="search_by">
<option value="name"%s>%s</option>
<option value="email"%s>%s</option>
</select>
<button class="btn" type="submit">%s</button>
</form>
`,
		templ.EscapeString(data.BasePath),
		templ.EscapeString(data.Query),
		templ.EscapeString(i18n.T(ctx, "users.search")),
		selName, templ.EscapeString(i18n.T(ctx, "users.search_by.name")),
		selEmail, templ.EscapeString(i18n.T(ctx, "users.search_by.email")),
		templ.EscapeString(i18n.T(ctx, "users.search")))
	return err
}

func renderUserTable(ctx context.Context, w io.Writer, data UsersData) error {
	if _, err := fmt.Fprintf(w, `<table class="data"><thead><tr><th>%s</th><th>%s</th><th>%s</th><th>%s</th><th>%s</th></tr></thead><tbody>
`,
		templ.EscapeString(i18n.T(ctx, "users.name")),
		templ.EscapeString(i18n.T(ctx, "users.email")),
		templ.EscapeString(i18n.T(ctx, "users.role")),
		templ.EscapeString(i18n.T(ctx, "users.created")),
		templ.EscapeString(i18n.T(ctx, "users.actions"))); err != nil {
		return err
	}

	for _, user := range data.Page.Users {
		created := ""
		if user.CreatedAt > 0 {
			created = time.Unix(user.CreatedAt, 0).Format("2006-01-02")
		}

		if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
			templ.EscapeString(user.Name),
			templ.EscapeString(user.Email),
			templ.EscapeString(user.Role),
			created); err != nil {
			return err
		}

		// Inline-форма смены роли.
		if _, err := fmt.Fprintf(w, `<form method="post" action="%s/role"><input type="hidden" name="user_id" value="%s"><select name="new_role">`,
			templ.EscapeString(data.BasePath),
			templ.EscapeString(user.ID)); err != nil {
			return err
		}
		for _, role := range data.Roles {
			selected := ""
			if string(role) == user.Role {
				selected = " selected"
			}
			if _, err := fmt.Fprintf(w, `<option value="%s"%s>%s</option>`,
				templ.EscapeString(string(role)), selected,
				templ.EscapeString(string(role))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `</select><button class="btn btn-secondary" type="submit">%s</button></form></td></tr>
`,
			templ.EscapeString(i18n.T(ctx, "users.change_role"))); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</tbody></table>\n")
	return err
}

func renderUserPagination(ctx context.Context, w io.Writer, data UsersData) error {
	if _, err := fmt.Fprintf(w, `<div class="pagination"><span class="muted">%s</span>`,
		templ.EscapeString(i18n.Tf(ctx, "users.total", data.Page.Total))); err != nil {
		return err
	}

	if data.Page.Page > 1 {
		if _, err := fmt.Fprintf(w, `<a class="btn btn-secondary" href="%s">%s</a>`,
			pageURL(data, data.Page.Page-1),
			templ.EscapeString(i18n.T(ctx, "users.page_prev"))); err != nil {
			return err
		}
	}
	if data.Page.Limit > 0 && data.Page.Page*data.Page.Limit < data.Page.Total {
		if _, err := fmt.Fprintf(w, `<a class="btn btn-secondary" href="%s">%s</a>`,
			pageURL(data, data.Page.Page+1),
			templ.EscapeString(i18n.T(ctx, "users.page_next"))); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</div>\n")
	return err
}

// pageURL собирает ссылку пагинации с сохранением поискового запроса.
func pageURL(data UsersData, page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if data.Query != "" {
		q.Set("query", data.Query)
		q.Set("search_by", data.SearchBy)
	}
	return templ.EscapeString(data.BasePath + "?" + q.Encode())
}
