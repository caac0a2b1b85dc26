package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/calagora/server/internal/api/pagination"
	"github.com/calagora/server/internal/api/problem"
	"github.com/calagora/server/internal/domain/users"
	"github.com/calagora/server/internal/metrics"
	"github.com/calagora/server/internal/payload"
)

type UsersHandler struct {
	Service *users.Service
	Env     string
}

func NewUsersHandler(service *users.Service, env string) *UsersHandler {
	return &UsersHandler{Service: service, Env: env}
}

type userListResponse struct {
	Items  []users.User `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	filters := users.Filters{Email: strings.TrimSpace(r.URL.Query().Get("email"))}

	items, err := h.Service.List(r.Context(), filters, params.Limit, params.Offset)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, userListResponse{Items: items, Limit: params.Limit, Offset: params.Offset})
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	user, err := h.Service.Create(r.Context(), body)
	if err != nil {
		var errs payload.Errors
		switch {
		case errors.As(err, &errs):
			metrics.ValidationFailuresTotal.WithLabelValues("users").Inc()
			writeValidationProblem(w, r, errs, h.Env)
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problemConflict, "Email already taken", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	user, err := h.Service.Update(r.Context(), pathParam(r, "id"), body)
	if err != nil {
		var errs payload.Errors
		switch {
		case errors.As(err, &errs):
			metrics.ValidationFailuresTotal.WithLabelValues("users").Inc()
			writeValidationProblem(w, r, errs, h.Env)
		case errors.Is(err, users.ErrEmptyUpdate):
			problem.Write(w, r, http.StatusUnprocessableEntity, problemValidation, "Invalid request", err, h.Env,
				problem.WithDetail("Update contains no recognized fields."))
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problemConflict, "Email already taken", err, h.Env)
		case errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), pathParam(r, "id")); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
