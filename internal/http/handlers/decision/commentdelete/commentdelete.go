// Package commentdelete реализует HTTP-обработчик удаления комментария.
// Разрешено автору комментария и администратору; админское удаление
// фиксируется в журнале привилегированных действий.
package commentdelete

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zarverapp/zarver/internal/http/middlewarectx"
	"github.com/zarverapp/zarver/internal/http/response"
	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/services/errs"
)

// Service описывает интерфейс бизнес-логики удаления комментария.
type Service interface {
	DeleteComment(ctx context.Context, userUID string, isAdmin bool, commentUID string) error
}

// Auditor фиксирует удаление чужого комментария администратором.
type Auditor interface {
	RecordCommentRemoval(ctx context.Context, actorUID, commentUID string)
}

// Handler управляет HTTP-запросами на удаление комментария.
type Handler struct {
	log     *slog.Logger
	service Service
	audit   Auditor
}

// New создает новый Handler с переданными логгером, сервисом и журналом.
func New(log *slog.Logger, service Service, audit Auditor) *Handler {
	return &Handler{log: log, service: service, audit: audit}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.decision.commentdelete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	commentUID := chi.URLParam(r, "id")
	if err := h.service.DeleteComment(r.Context(), user.UID, user.IsAdmin, commentUID); err != nil {
		log.Error("failed to delete comment", sl.Err(err))
		w.WriteHeader(errs.HTTPStatus(err))
		render.JSON(w, r, response.Error(errs.UserMessage(err)))
		return
	}
	if user.IsAdmin {
		h.audit.RecordCommentRemoval(r.Context(), user.UID, commentUID)
	}

	log.Info("comment deleted", slog.String("comment_uid", commentUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "comment deleted",
	}))
}
