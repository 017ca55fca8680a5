// assistants.go — административный экран моделей AI-ассистентов.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// AssistantsData — данные экрана ассистентов.
type AssistantsData struct {
	UserName string
	Links    []NavLink
	Models   []model.AssistantModel
	// Modal — раскрытая форма (создание/редактирование/удаление), nil если нет.
	Modal model.ModalAction
	// BasePath — путь экрана для форм.
	BasePath string
	FlashKey string
}

// Assistants — экран списка AI-ассистентов с CRUD-действиями.
func Assistants(data AssistantsData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="card"><h1>%s</h1>`,
			templ.EscapeString(i18n.T(ctx, "assistants.title"))); err != nil {
			return err
		}

		if data.FlashKey != "" {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-info">%s</div>`,
				templ.EscapeString(i18n.T(ctx, data.FlashKey))); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<p><a class="btn" href="%s?modal=create">%s</a></p>`,
			templ.EscapeString(data.BasePath),
			templ.EscapeString(i18n.T(ctx, "assistants.create"))); err != nil {
			return err
		}

		if err := renderAssistantTable(ctx, w, data); err != nil {
			return err
		}

		if _, err := io.WriteString(w, "</div>\n"); err != nil {
			return err
		}

		return renderAssistantModal(ctx, w, data)
	})

	return page(LayoutData{
		TitleKey: "assistants.title",
		UserName: data.UserName,
		Links:    data.Links,
	}, content)
}

func renderAssistantTable(ctx context.Context, w io.Writer, data AssistantsData) error {
	if _, err := fmt.Fprintf(w, `<table class="data"><thead><tr><th>%s</th><th>%s</th><th>%s</th><th></th><th>%s</th></tr></thead><tbody>
`,
		templ.EscapeString(i18n.T(ctx, "assistants.name")),
		templ.EscapeString(i18n.T(ctx, "assistants.description")),
		templ.EscapeString(i18n.T(ctx, "assistants.base_model")),
		templ.EscapeString(i18n.T(ctx, "users.actions"))); err != nil {
		return err
	}

	for _, m := range data.Models {
		badge := `<span class="badge badge-inactive">` + templ.EscapeString(i18n.T(ctx, "assistants.inactive")) + `</span>`
		if m.IsActive {
			badge = `<span class="badge badge-active">` + templ.EscapeString(i18n.T(ctx, "assistants.active")) + `</span>`
		}

		if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>
<form method="post" action="%s/toggle"><input type="hidden" name="id" value="%s"><button class="btn btn-secondary" type="submit">%s</button></form>
<a class="btn btn-secondary" href="%s?modal=edit&amp;id=%s">%s</a>
<a class="btn btn-danger" href="%s?modal=delete&amp;id=%s">%s</a>
</td></tr>
`,
			templ.EscapeString(m.Name),
			templ.EscapeString(m.Description),
			templ.EscapeString(m.BaseModel),
			badge,
			templ.EscapeString(data.BasePath), templ.EscapeString(m.ID),
			templ.EscapeString(i18n.T(ctx, "assistants.toggle")),
			templ.EscapeString(data.BasePath), templ.EscapeString(m.ID),
			templ.EscapeString(i18n.T(ctx, "assistants.edit")),
			templ.EscapeString(data.BasePath), templ.EscapeString(m.ID),
			templ.EscapeString(i18n.T(ctx, "assistants.delete"))); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</tbody></table>\n")
	return err
}

// renderAssistantModal рисует раскрытую форму действия, если она есть.
func renderAssistantModal(ctx context.Context, w io.Writer, data AssistantsData) error {
	switch modal := data.Modal.(type) {
	case nil:
		return nil
	case model.CreateAssistantModal:
		return renderAssistantForm(ctx, w, data.BasePath+"/create", model.AssistantModel{}, modal.BaseModels)
	case model.EditAssistantModal:
		return renderAssistantForm(ctx, w, data.BasePath+"/update?id="+modal.Assistant.ID, modal.Assistant, nil)
	case model.DeleteAssistantModal:
		_, err := fmt.Fprintf(w, `<div class="card"><p>%s</p>
<form method="post" action="%s/delete"><input type="hidden" name="id" value="%s">
<button class="btn btn-danger" type="submit">%s</button>
<a class="btn btn-secondary" href="%s">%s</a>
</form></div>
`,
			templ.EscapeString(i18n.Tf(ctx, "assistants.confirm_delete", modal.Name)),
			templ.EscapeString(data.BasePath), templ.EscapeString(modal.ID),
			templ.EscapeString(i18n.T(ctx, "assistants.delete")),
			templ.EscapeString(data.BasePath),
			templ.EscapeString(i18n.T(ctx, "assistants.cancel")))
		return err
	default:
		return nil
	}
}

// renderAssistantForm — общая форма создания/редактирования.
// baseModels непустой только для создания: базовая модель фиксируется при создании.
func renderAssistantForm(ctx context.Context, w io.Writer, action string, m model.AssistantModel, baseModels []string) error {
	if _, err := fmt.Fprintf(w, `<div class="card"><form method="post" action="%s">
<div class="form-field"><label>%s</label><input name="name" value="%s" required></div>
<div class="form-field"><label>%s</label><textarea name="description">%s</textarea></div>
`,
		templ.EscapeString(action),
		templ.EscapeString(i18n.T(ctx, "assistants.name")),
		templ.EscapeString(m.Name),
		templ.EscapeString(i18n.T(ctx, "assistants.description")),
		templ.EscapeString(m.Description)); err != nil {
		return err
	}

	if len(baseModels) > 0 {
		if _, err := fmt.Fprintf(w, `<div class="form-field"><label>%s</label><select name="base_model">`,
			templ.EscapeString(i18n.T(ctx, "assistants.base_model"))); err != nil {
			return err
		}
		for _, base := range baseModels {
			if _, err := fmt.Fprintf(w, `<option value="%s">%s</option>`,
				templ.EscapeString(base), templ.EscapeString(base)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</select></div>`); err != nil {
			return err
		}
	} else if m.BaseModel != "" {
		if _, err := fmt.Fprintf(w, `<p class="muted">%s: %s</p><input type="hidden" name="base_model" value="%s">`,
			templ.EscapeString(i18n.T(ctx, "assistants.base_model")),
			templ.EscapeString(m.BaseModel),
			templ.EscapeString(m.BaseModel)); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, `<button class="btn" type="submit">%s</button></form></div>
`,
		templ.EscapeString(i18n.T(ctx, "assistants.save")))
	return err
}
