package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/phonedeck/phonedeck/modules/directory/domain/contact"
	"github.com/phonedeck/phonedeck/modules/directory/infrastructure/persistence"
	"github.com/phonedeck/phonedeck/modules/directory/services"
	"github.com/phonedeck/phonedeck/pkg/httpapi"
	"github.com/phonedeck/phonedeck/pkg/ingest"
)

type ContactController struct {
	service      *services.ContactService
	ingest       *services.ContactIngestService
	maxFileBytes int64
}

func NewContactController(
	service *services.ContactService,
	ingestService *services.ContactIngestService,
	maxFileBytes int64,
) *ContactController {
	return &ContactController{
		service:      service,
		ingest:       ingestService,
		maxFileBytes: maxFileBytes,
	}
}

func (c *ContactController) Register(r *mux.Router) {
	r.HandleFunc("/contacts", c.List).Methods(http.MethodGet)
	r.HandleFunc("/contacts", c.Create).Methods(http.MethodPost)
	r.HandleFunc("/contacts/bulk", c.BulkCreate).Methods(http.MethodPost)
	r.HandleFunc("/contacts/upload", c.Upload).Methods(http.MethodPost)
	r.HandleFunc("/contacts/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
	r.HandleFunc("/contacts/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
	r.HandleFunc("/contacts/{id:[0-9]+}", c.Delete).Methods(http.MethodDelete)
}

type contactResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	BloodGroup  *string `json:"bloodGroup"`
	Lobby       *string `json:"lobby"`
	Designation *string `json:"designation"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toContactResponse(e contact.Contact) contactResponse {
	return contactResponse{
		ID:          e.ID,
		Name:        e.Name,
		Phone:       e.Phone,
		BloodGroup:  e.BloodGroup,
		Lobby:       e.Lobby,
		Designation: e.Designation,
		CreatedAt:   e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   e.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (c *ContactController) List(w http.ResponseWriter, r *http.Request) {
	params := contact.FindParams{
		Search:     r.URL.Query().Get("q"),
		Lobby:      r.URL.Query().Get("lobby"),
		BloodGroup: r.URL.Query().Get("bloodGroup"),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	items, total, err := c.service.List(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to list contacts", nil)
		return
	}
	out := make([]contactResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toContactResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *ContactController) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	entity, err := c.service.GetByID(r.Context(), id)
	if errors.Is(err, persistence.ErrContactNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "contact not found", nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to load contact", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toContactResponse(entity))
}

func (c *ContactController) Create(w http.ResponseWriter, r *http.Request) {
	var dto contact.CreateDTO
	if err := httpapi.ReadJSON(r.Body, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON contact", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "validation_failed", "contact failed validation", fieldErrors(errs, contact.FieldName))
		return
	}
	entity, err := c.service.Create(r.Context(), &dto)
	if err != nil {
		if persistence.Classify(err).Kind == ingest.KindDuplicate {
			_ = httpapi.WriteError(w, http.StatusConflict, "duplicate_phone", "a contact with this phone already exists", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to create contact", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toContactResponse(entity))
}

func (c *ContactController) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var dto contact.CreateDTO
	if err := httpapi.ReadJSON(r.Body, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON contact", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "validation_failed", "contact failed validation", fieldErrors(errs, contact.FieldName))
		return
	}
	entity, err := c.service.Update(r.Context(), id, &dto)
	if errors.Is(err, persistence.ErrContactNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "contact not found", nil)
		return
	}
	if err != nil {
		if persistence.Classify(err).Kind == ingest.KindDuplicate {
			_ = httpapi.WriteError(w, http.StatusConflict, "duplicate_phone", "another contact already owns this phone", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to update contact", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toContactResponse(entity))
}

func (c *ContactController) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	err := c.service.Delete(r.Context(), id)
	if errors.Is(err, persistence.ErrContactNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "contact not found", nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to delete contact", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ContactController) BulkCreate(w http.ResponseWriter, r *http.Request) {
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

func (c *ContactController) Upload(w http.ResponseWriter, r *http.Request) {
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

// readUpload extracts the uploaded file and replaceAll flag from a
// multipart form, writing the error response itself on failure.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, []byte, bool, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_upload", "expected a multipart form with a file field", nil)
		return "", nil, false, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "missing_file", "no file was supplied", nil)
		return "", nil, false, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "unreadable_file", "could not read the uploaded file", nil)
		return "", nil, false, false
	}
	replaceAll := r.FormValue("replaceAll") == "true"
	return header.Filename, data, replaceAll, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
