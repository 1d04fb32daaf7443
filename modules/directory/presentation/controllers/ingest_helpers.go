package controllers

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/phonedeck/phonedeck/pkg/httpapi"
	"github.com/phonedeck/phonedeck/pkg/ingest"
	"github.com/phonedeck/phonedeck/pkg/tabular"
)

// bulkRequest is the non-file bulk-create payload: raw row objects plus
// the caller-confirmed replace-all flag.
type bulkRequest struct {
	Rows       []map[string]any `json:"rows"`
	ReplaceAll bool             `json:"replaceAll"`
}

// writeIngestResult maps a pipeline result onto the HTTP contract:
// 201 for full or partial success with a report, 206 when the batch was
// halted by a connection loss.
func writeIngestResult(w http.ResponseWriter, result *ingest.Result) {
	status := http.StatusCreated
	if result.Report.ConnectionLost {
		status = http.StatusPartialContent
	}
	_ = httpapi.WriteJSON(w, status, result)
}

// writeIngestError maps pipeline input-shape failures onto 400s;
// anything else is a 500.
func writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrNoRows):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "empty_batch", "no rows submitted", nil)
	case errors.Is(err, ingest.ErrTooManyRows):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "batch_too_large", ingest.Sanitize(err.Error()), nil)
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "unsupported_format", ingest.Sanitize(err.Error()), nil)
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "bulk ingestion failed", nil)
	}
}

// fieldErrors flattens validator issues into a wire-name keyed map for
// the error envelope's meta.
func fieldErrors(errs validator.ValidationErrors, name func(string) string) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := name(fe.StructField())
		out[field] = ingest.EntryForFieldError(0, field, fe).Message
	}
	return out
}
