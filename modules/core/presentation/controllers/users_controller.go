package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/modules/core/infrastructure/persistence"
	"github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/httpapi"
)

type UsersController struct {
	app         application.Application
	userService *services.UserService
	basePath    string
}

func NewUsersController(app application.Application) application.Controller {
	return &UsersController{
		app:         app,
		userService: app.Service(services.UserService{}).(*services.UserService),
		basePath:    "/core/api/users",
	}
}

func (c *UsersController) Key() string {
	return c.basePath
}

func (c *UsersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9a-fA-F-]+}", c.GetByID).Methods(http.MethodGet)
}

func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	users, err := c.userService.GetAll(r.Context())
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"users": items,
		"total": len(items),
	})
}

func (c *UsersController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id", nil)
		return
	}

	u, err := c.userService.GetByID(r.Context(), id)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto UserCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return
	}
	if fieldErrors, ok := dto.Ok(r.Context()); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", fieldErrors)
		return
	}

	created, err := c.userService.Create(r.Context(), dto.ToEntity())
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toUserResponse(created))
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
	case errors.Is(err, persistence.ErrUserEmailTaken):
		_ = httpapi.WriteError(w, http.StatusConflict, "USER_EMAIL_TAKEN", "a user with this email already exists", nil)
	case authz.IsForbidden(err):
		_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", "permission denied", nil)
	default:
		if logger, ok := composables.UseLoggerOk(r.Context()); ok {
			logger.WithError(err).Error("users request failed")
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}
