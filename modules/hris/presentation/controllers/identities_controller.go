package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/configuration"
	"github.com/villagepulse/villagepulse/pkg/httpapi"
)

type IdentitiesController struct {
	app             application.Application
	identityService *services.IdentityService
	basePath        string
}

func NewIdentitiesController(app application.Application) application.Controller {
	return &IdentitiesController{
		app:             app,
		identityService: app.Service(services.IdentityService{}).(*services.IdentityService),
		basePath:        "/hris/api/identities",
	}
}

func (c *IdentitiesController) Key() string {
	return c.basePath
}

func (c *IdentitiesController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9a-fA-F-]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/by-external-id/{externalId}", c.GetByExternalID).Methods(http.MethodGet)
}

func (c *IdentitiesController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &identity.FindParams{
		Limit:      conf.PageSize,
		Search:     r.URL.Query().Get("search"),
		LinkedOnly: r.URL.Query().Get("linked") == "true",
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		params.Limit = min(limit, conf.MaxPageSize)
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		params.Offset = offset
	}
	if villageID, err := uuid.Parse(r.URL.Query().Get("village_id")); err == nil {
		params.VillageID = &villageID
	}

	identities, err := c.identityService.GetPaginated(r.Context(), params)
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}
	total, err := c.identityService.Count(r.Context())
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}

	items := make([]identityResponse, 0, len(identities))
	for _, entity := range identities {
		items = append(items, toIdentityResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"identities": items,
		"total":      total,
	})
}

func (c *IdentitiesController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid identity id", nil)
		return
	}

	entity, err := c.identityService.GetByID(r.Context(), id)
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toIdentityResponse(entity))
}

func (c *IdentitiesController) GetByExternalID(w http.ResponseWriter, r *http.Request) {
	entity, err := c.identityService.GetByExternalID(r.Context(), mux.Vars(r)["externalId"])
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toIdentityResponse(entity))
}

func writeIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "IDENTITY_NOT_FOUND", "identity not found", nil)
	case authz.IsForbidden(err):
		_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", "permission denied", nil)
	default:
		if logger, ok := composables.UseLoggerOk(r.Context()); ok {
			logger.WithError(err).Error("identities request failed")
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}
