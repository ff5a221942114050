package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/configuration"
	"github.com/villagepulse/villagepulse/pkg/httpapi"
)

type ConflictsController struct {
	app             application.Application
	conflictService *services.ConflictService
	basePath        string
}

func NewConflictsController(app application.Application) application.Controller {
	return &ConflictsController{
		app:             app,
		conflictService: app.Service(services.ConflictService{}).(*services.ConflictService),
		basePath:        "/hris/api/conflicts",
	}
}

func (c *ConflictsController) Key() string {
	return c.basePath
}

func (c *ConflictsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9a-fA-F-]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9a-fA-F-]+}/resolve", c.Resolve).Methods(http.MethodPost)
}

func (c *ConflictsController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &conflict.FindParams{Limit: conf.PageSize}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		params.Limit = min(limit, conf.MaxPageSize)
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		params.Offset = offset
	}
	if runID, err := uuid.Parse(r.URL.Query().Get("run_id")); err == nil {
		params.RunID = &runID
	}
	if status := conflict.Status(r.URL.Query().Get("status")); status != "" {
		params.Status = &status
	}
	if kind := conflict.Kind(r.URL.Query().Get("kind")); kind != "" {
		params.Kind = &kind
	}

	conflicts, err := c.conflictService.GetPaginated(r.Context(), params)
	if err != nil {
		writeConflictError(w, r, err)
		return
	}
	total, err := c.conflictService.Count(r.Context(), params)
	if err != nil {
		writeConflictError(w, r, err)
		return
	}

	items := make([]conflictResponse, 0, len(conflicts))
	for _, item := range conflicts {
		items = append(items, toConflictResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"conflicts": items,
		"total":     total,
	})
}

func (c *ConflictsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid conflict id", nil)
		return
	}

	item, err := c.conflictService.GetByID(r.Context(), id)
	if err != nil {
		writeConflictError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toConflictResponse(item))
}

func (c *ConflictsController) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid conflict id", nil)
		return
	}

	var dto ResolveConflictDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return
	}
	if fieldErrors, ok := dto.Ok(r.Context()); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", fieldErrors)
		return
	}

	resolved, err := c.conflictService.ApplyResolution(r.Context(), services.ResolutionCommand{
		ConflictID: id,
		Choice:     conflict.Resolution(dto.Resolution),
		Merge:      dto.Merge.toDirective(),
		Notes:      dto.Notes,
	})
	if err != nil {
		writeConflictError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toConflictResponse(resolved))
}

func writeConflictError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, conflict.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "CONFLICT_NOT_FOUND", "conflict not found", nil)
	case errors.Is(err, conflict.ErrAlreadyResolved):
		_ = httpapi.WriteError(w, http.StatusConflict, "CONFLICT_ALREADY_RESOLVED", "conflict has already been resolved", nil)
	case errors.Is(err, conflict.ErrInvalidResolution):
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "INVALID_RESOLUTION", err.Error(), nil)
	case errors.Is(err, identity.ErrStaleVersion):
		_ = httpapi.WriteError(w, http.StatusConflict, "IDENTITY_MODIFIED", "identity was modified concurrently, retry", nil)
	case errors.Is(err, identity.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "IDENTITY_NOT_FOUND", "candidate identity no longer exists", nil)
	case authz.IsForbidden(err):
		_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", "permission denied", nil)
	default:
		if logger, ok := composables.UseLoggerOk(r.Context()); ok {
			logger.WithError(err).Error("conflicts request failed")
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}
