// assistants.go — административный экран моделей AI-ассистентов.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/session"
	"github.com/bigkaa/golms/web-module/internal/ui/pages"
)

// AssistantsHandler — обработчики экрана AI-ассистентов.
type AssistantsHandler struct {
	lms      *lmsclient.Client
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAssistantsHandler создаёт AssistantsHandler.
func NewAssistantsHandler(lms *lmsclient.Client, sessions *session.Manager, logger *slog.Logger) *AssistantsHandler {
	return &AssistantsHandler{
		lms:      lms,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui.assistants")),
	}
}

// basePath — путь экрана ассистентов для текущей роли.
func (h *AssistantsHandler) basePath(rec *session.Record) string {
	return rbac.ResolveLandingRoute(rec.Role) + "/assistants"
}

// HandleList обрабатывает GET /{area}/assistants.
// Query-параметр modal раскрывает форму: create, edit, delete (+id).
func (h *AssistantsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	models, err := h.lms.ListAssistants(r.Context(), rec.BackendToken)
	if err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	modal, err := h.resolveModal(r, rec, models)
	if err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	basePath := h.basePath(rec)
	renderPage(w, r, h.logger, pages.Assistants(pages.AssistantsData{
		UserName: rec.Name,
		Links:    navLinksFor(rec.Role, basePath),
		Models:   models,
		Modal:    modal,
		BasePath: basePath,
	}))
}

// resolveModal строит действие модального окна из query-параметров.
func (h *AssistantsHandler) resolveModal(r *http.Request, rec *session.Record, models []model.AssistantModel) (model.ModalAction, error) {
	id := r.URL.Query().Get("id")

	switch r.URL.Query().Get("modal") {
	case "create":
		baseModels, err := h.lms.ListBaseModels(r.Context(), rec.BackendToken)
		if err != nil {
			return nil, err
		}
		return model.CreateAssistantModal{BaseModels: baseModels}, nil
	case "edit":
		for _, m := range models {
			if m.ID == id {
				return model.EditAssistantModal{Assistant: m}, nil
			}
		}
		return nil, nil
	case "delete":
		for _, m := range models {
			if m.ID == id {
				return model.DeleteAssistantModal{ID: m.ID, Name: m.Name}, nil
			}
		}
		return nil, nil
	default:
		return nil, nil
	}
}

// HandleCreate обрабатывает POST /{area}/assistants/create.
func (h *AssistantsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	form := model.NewAssistantModel{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		BaseModel:   r.FormValue("base_model"),
	}
	if form.Name == "" || form.BaseModel == "" {
		http.Redirect(w, r, h.basePath(rec)+"?modal=create", http.StatusSeeOther)
		return
	}

	if err := h.lms.CreateAssistant(r.Context(), rec.BackendToken, form); err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	h.logger.Info("Модель ассистента создана", slog.String("name", form.Name), slog.String("by", rec.UserID))
	http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
}

// HandleUpdate обрабатывает POST /{area}/assistants/update?id=...
func (h *AssistantsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	id := r.URL.Query().Get("id")
	form := model.NewAssistantModel{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		BaseModel:   r.FormValue("base_model"),
	}
	if id == "" || form.Name == "" {
		http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
		return
	}

	if err := h.lms.UpdateAssistant(r.Context(), rec.BackendToken, id, form); err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
}

// HandleDelete обрабатывает POST /{area}/assistants/delete.
func (h *AssistantsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
		return
	}

	if err := h.lms.DeleteAssistant(r.Context(), rec.BackendToken, id); err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	h.logger.Info("Модель ассистента удалена", slog.String("id", id), slog.String("by", rec.UserID))
	http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
}

// HandleToggle обрабатывает POST /{area}/assistants/toggle.
func (h *AssistantsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
		return
	}

	if err := h.lms.ToggleAssistantActive(r.Context(), rec.BackendToken, id); err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	http.Redirect(w, r, h.basePath(rec), http.StatusSeeOther)
}
