package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	"github.com/villagepulse/villagepulse/modules/core/infrastructure/persistence"
	"github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/configuration"
	"github.com/villagepulse/villagepulse/pkg/httpapi"
)

type VillagesController struct {
	app            application.Application
	villageService *services.VillageService
	basePath       string
}

func NewVillagesController(app application.Application) application.Controller {
	return &VillagesController{
		app:            app,
		villageService: app.Service(services.VillageService{}).(*services.VillageService),
		basePath:       "/core/api/villages",
	}
}

func (c *VillagesController) Key() string {
	return c.basePath
}

func (c *VillagesController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9a-fA-F-]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9a-fA-F-]+}", c.Update).Methods(http.MethodPut)
}

func (c *VillagesController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &village.FindParams{
		Limit:      conf.PageSize,
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		params.Limit = min(limit, conf.MaxPageSize)
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		params.Offset = offset
	}

	villages, err := c.villageService.GetPaginated(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := c.villageService.Count(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items := make([]villageResponse, 0, len(villages))
	for _, v := range villages {
		items = append(items, toVillageResponse(v))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"villages": items,
		"total":    total,
	})
}

func (c *VillagesController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid village id", nil)
		return
	}

	v, err := c.villageService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toVillageResponse(v))
}

func (c *VillagesController) Create(w http.ResponseWriter, r *http.Request) {
	var dto VillageCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return
	}
	if fieldErrors, ok := dto.Ok(r.Context()); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", fieldErrors)
		return
	}

	entity, err := dto.ToEntity()
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	created, err := c.villageService.Create(r.Context(), entity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toVillageResponse(created))
}

func (c *VillagesController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid village id", nil)
		return
	}

	var dto VillageUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return
	}
	if fieldErrors, ok := dto.Ok(r.Context()); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", fieldErrors)
		return
	}

	entity, err := c.villageService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := entity.Rename(dto.Name); err != nil {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	entity.SetDistrict(dto.District)
	if dto.Active != nil {
		if *dto.Active {
			entity.Activate()
		} else {
			entity.Deactivate()
		}
	}

	updated, err := c.villageService.Update(r.Context(), entity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toVillageResponse(updated))
}

// writeServiceError maps domain and authorization errors onto the JSON error
// envelope with the right status code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, village.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "VILLAGE_NOT_FOUND", "village not found", nil)
	case errors.Is(err, persistence.ErrVillageCodeTaken):
		_ = httpapi.WriteError(w, http.StatusConflict, "VILLAGE_CODE_TAKEN", "village code is already in use", nil)
	case authz.IsForbidden(err):
		_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", "permission denied", nil)
	default:
		if logger, ok := composables.UseLoggerOk(r.Context()); ok {
			logger.WithError(err).Error("villages request failed")
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}
