package controllers

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/phonedeck/phonedeck/modules/directory/domain/document"
	"github.com/phonedeck/phonedeck/modules/directory/infrastructure/persistence"
	"github.com/phonedeck/phonedeck/modules/directory/services"
	"github.com/phonedeck/phonedeck/pkg/httpapi"
)

type DocumentController struct {
	service      *services.DocumentService
	ingest       *services.DocumentIngestService
	maxFileBytes int64
}

func NewDocumentController(
	service *services.DocumentService,
	ingestService *services.DocumentIngestService,
	maxFileBytes int64,
) *DocumentController {
	return &DocumentController{
		service:      service,
		ingest:       ingestService,
		maxFileBytes: maxFileBytes,
	}
}

func (c *DocumentController) Register(r *mux.Router) {
	r.HandleFunc("/documents", c.List).Methods(http.MethodGet)
	r.HandleFunc("/documents", c.Create).Methods(http.MethodPost)
	r.HandleFunc("/documents/bulk", c.BulkCreate).Methods(http.MethodPost)
	r.HandleFunc("/documents/upload", c.Upload).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id}", c.Get).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}", c.Update).Methods(http.MethodPut)
	r.HandleFunc("/documents/{id}", c.Delete).Methods(http.MethodDelete)
}

type documentResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	UploadedBy *string   `json:"uploadedBy"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

func toDocumentResponse(e document.Document) documentResponse {
	return documentResponse{
		ID:         e.ID,
		Title:      e.Title,
		Link:       e.Link,
		UploadedBy: e.UploadedBy,
		CreatedAt:  e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  e.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (c *DocumentController) List(w http.ResponseWriter, r *http.Request) {
	params := document.FindParams{
		Search: r.URL.Query().Get("q"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	items, total, err := c.service.List(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to list documents", nil)
		return
	}
	out := make([]documentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toDocumentResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *DocumentController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_id", "document id must be a UUID", nil)
		return
	}
	entity, err := c.service.GetByID(r.Context(), id)
	if errors.Is(err, persistence.ErrDocumentNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to load document", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDocumentResponse(entity))
}

func (c *DocumentController) Create(w http.ResponseWriter, r *http.Request) {
	var dto document.CreateDTO
	if err := httpapi.ReadJSON(r.Body, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON document", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "validation_failed", "document failed validation", fieldErrors(errs, document.FieldName))
		return
	}
	entity, err := c.service.Create(r.Context(), &dto)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to create document", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toDocumentResponse(entity))
}

func (c *DocumentController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_id", "document id must be a UUID", nil)
		return
	}
	var dto document.CreateDTO
	if err := httpapi.ReadJSON(r.Body, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON document", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "validation_failed", "document failed validation", fieldErrors(errs, document.FieldName))
		return
	}
	entity, err := c.service.Update(r.Context(), id, &dto)
	if errors.Is(err, persistence.ErrDocumentNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to update document", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDocumentResponse(entity))
}

func (c *DocumentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_id", "document id must be a UUID", nil)
		return
	}
	err = c.service.Delete(r.Context(), id)
	if errors.Is(err, persistence.ErrDocumentNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to delete document", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DocumentController) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := httpapi.ReadJSON(r.Body, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must contain a rows array", nil)
		return
	}
	result, err := c.ingest.BulkCreate(r.Context(), req.Rows, req.ReplaceAll)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeIngestResult(w, result)
}

func (c *DocumentController) Upload(w http.ResponseWriter, r *http.Request) {
	filename, data, replaceAll, ok := readUpload(w, r, c.maxFileBytes)
	if !ok {
		return
	}
	result, err := c.ingest.UploadFile(r.Context(), filename, data, replaceAll)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeIngestResult(w, result)
}
