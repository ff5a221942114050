package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/syncrun"
	hrisdirectory "github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/modules/hris/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/configuration"
	"github.com/villagepulse/villagepulse/pkg/httpapi"
	"github.com/villagepulse/villagepulse/pkg/webhooks"
)

type SyncController struct {
	app         application.Application
	syncService *services.SyncService
	basePath    string
}

func NewSyncController(app application.Application) application.Controller {
	return &SyncController{
		app:         app,
		syncService: app.Service(services.SyncService{}).(*services.SyncService),
		basePath:    "/hris/api/sync",
	}
}

func (c *SyncController) Key() string {
	return c.basePath
}

func (c *SyncController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Trigger).Methods(http.MethodPost)
	router.HandleFunc("/status", c.Status).Methods(http.MethodGet)
	router.HandleFunc("/runs", c.ListRuns).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id:[0-9a-fA-F-]+}", c.GetRun).Methods(http.MethodGet)

	conf := configuration.Use()
	scheduled := r.PathPrefix(c.basePath + "/scheduled").Subrouter()
	scheduled.Use(webhooks.Middleware(webhooks.NewTokenVerifier("", conf.Directory.ScheduleSecret)))
	scheduled.HandleFunc("", c.Scheduled).Methods(http.MethodPost)

	directory := r.PathPrefix("/hris/api/directory").Subrouter()
	directory.HandleFunc("/test", c.TestDirectory).Methods(http.MethodPost)
	directory.HandleFunc("/records/{externalId}", c.GetDirectoryRecord).Methods(http.MethodGet)
}

func (c *SyncController) Trigger(w http.ResponseWriter, r *http.Request) {
	var dto SyncTriggerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return
	}
	if fieldErrors, ok := dto.Ok(r.Context()); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", fieldErrors)
		return
	}

	run, err := c.syncService.RunSync(r.Context(), dto.ToCommand())
	if err != nil && run == nil {
		writeSyncError(w, r, err)
		return
	}
	// A failed run is still a finished run with a persisted row; report it
	// rather than hiding it behind a 500.
	_ = httpapi.WriteJSON(w, http.StatusOK, toSyncRunResponse(run))
}

// Scheduled is the machine entry point for periodic syncs. It runs an
// incremental sync unless the caller asks for a full one.
func (c *SyncController) Scheduled(w http.ResponseWriter, r *http.Request) {
	mode := syncrun.ModeIncremental
	if r.URL.Query().Get("mode") == string(syncrun.ModeFull) {
		mode = syncrun.ModeFull
	}

	// The webhook middleware already verified the shared secret.
	ctx := composables.WithSystemActor(r.Context())
	run, err := c.syncService.RunSync(ctx, services.SyncCommand{Mode: mode})
	if err != nil && run == nil {
		writeSyncError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSyncRunResponse(run))
}

func (c *SyncController) Status(w http.ResponseWriter, r *http.Request) {
	status, err := c.syncService.Status(r.Context())
	if err != nil {
		writeSyncError(w, r, err)
		return
	}

	payload := map[string]any{
		"active": status.Active != nil,
	}
	if status.Active != nil {
		payload["current"] = toSyncRunResponse(status.Active)
	}
	if status.Latest != nil {
		payload["latest"] = toSyncRunResponse(status.Latest)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, payload)
}

func (c *SyncController) ListRuns(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &syncrun.FindParams{Limit: conf.PageSize}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		params.Limit = min(limit, conf.MaxPageSize)
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		params.Offset = offset
	}
	if status := syncrun.Status(r.URL.Query().Get("status")); status != "" {
		params.Status = &status
	}
	if mode := syncrun.Mode(r.URL.Query().Get("mode")); mode != "" {
		params.Mode = &mode
	}

	runs, total, err := c.syncService.GetRuns(r.Context(), params)
	if err != nil {
		writeSyncError(w, r, err)
		return
	}

	items := make([]syncRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, toSyncRunResponse(run))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"runs":  items,
		"total": total,
	})
}

func (c *SyncController) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid run id", nil)
		return
	}

	run, err := c.syncService.GetRun(r.Context(), id)
	if err != nil {
		writeSyncError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSyncRunResponse(run))
}

func (c *SyncController) TestDirectory(w http.ResponseWriter, r *http.Request) {
	if err := c.syncService.TestDirectory(r.Context()); err != nil {
		var authErr *hrisdirectory.AuthError
		if errors.As(err, &authErr) {
			_ = httpapi.WriteError(w, http.StatusBadGateway, "DIRECTORY_AUTH_FAILED", "directory rejected credentials", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusBadGateway, "DIRECTORY_UNAVAILABLE", "directory is not reachable", map[string]string{
			"error": err.Error(),
		})
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (c *SyncController) GetDirectoryRecord(w http.ResponseWriter, r *http.Request) {
	record, err := c.syncService.PreviewRecord(r.Context(), mux.Vars(r)["externalId"])
	if err != nil {
		if errors.Is(err, hrisdirectory.ErrRecordNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "RECORD_NOT_FOUND", "directory record not found", nil)
			return
		}
		writeSyncError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, record)
}

func writeSyncError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, syncrun.ErrAlreadyRunning):
		_ = httpapi.WriteError(w, http.StatusConflict, "SYNC_ALREADY_RUNNING", "a sync run is already in progress", nil)
	case errors.Is(err, syncrun.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "RUN_NOT_FOUND", "sync run not found", nil)
	case authz.IsForbidden(err):
		_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", "permission denied", nil)
	default:
		if logger, ok := composables.UseLoggerOk(r.Context()); ok {
			logger.WithError(err).Error("sync request failed")
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}
