package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/phonedeck/phonedeck/modules/directory/services"
	"github.com/phonedeck/phonedeck/pkg/httpapi"
)

type AnalyticsController struct {
	service *services.AnalyticsService
}

func NewAnalyticsController(service *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{service: service}
}

func (c *AnalyticsController) Register(r *mux.Router) {
	r.HandleFunc("/analytics/summary", c.Summary).Methods(http.MethodGet)
	r.HandleFunc("/visits", c.Track).Methods(http.MethodPost)
}

type trackRequest struct {
	Page string `json:"page"`
}

func (c *AnalyticsController) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := httpapi.ReadJSON(r.Body, &req); err != nil || req.Page == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must name a page", nil)
		return
	}
	if err := c.service.Track(r.Context(), req.Page); err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to record visit", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AnalyticsController) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.Summary(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to build analytics summary", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, summary)
}
