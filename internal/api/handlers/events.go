package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/calagora/server/internal/api/pagination"
	"github.com/calagora/server/internal/api/problem"
	"github.com/calagora/server/internal/domain/events"
	"github.com/calagora/server/internal/metrics"
	"github.com/calagora/server/internal/payload"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventListResponse struct {
	Items  []events.Event `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	filters := events.Filters{
		OwnerID:    strings.TrimSpace(r.URL.Query().Get("owner_id")),
		Visibility: strings.TrimSpace(r.URL.Query().Get("visibility")),
	}

	items, err := h.Service.List(r.Context(), filters, params.Limit, params.Offset)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventListResponse{Items: items, Limit: params.Limit, Offset: params.Offset})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), body)
	if err != nil {
		var errs payload.Errors
		if errors.As(err, &errs) {
			metrics.ValidationFailuresTotal.WithLabelValues("events").Inc()
			writeValidationProblem(w, r, errs, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), pathParam(r, "id"), body)
	if err != nil {
		var errs payload.Errors
		switch {
		case errors.As(err, &errs):
			metrics.ValidationFailuresTotal.WithLabelValues("events").Inc()
			writeValidationProblem(w, r, errs, h.Env)
		case errors.Is(err, events.ErrEmptyUpdate):
			problem.Write(w, r, http.StatusUnprocessableEntity, problemValidation, "Invalid request", err, h.Env,
				problem.WithDetail("Update contains no recognized fields."))
		case errors.Is(err, events.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), pathParam(r, "id")); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
