// Package ingest implements a generic bulk ingestion pipeline: per-row
// validation, within-batch deduplication by natural key, chunked
// idempotent upserts with transient-failure halting, and a per-row error
// report. It is parameterized per entity type by a validator, a key
// extractor and a store.
package ingest

import (
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

// Kind is the report vocabulary for per-row failures.
type Kind string

const (
	KindTooSmall      Kind = "too_small"
	KindTooBig        Kind = "too_big"
	KindInvalidType   Kind = "invalid_type"
	KindInvalidFormat Kind = "invalid_format"
	KindInvalidString Kind = "invalid_string"
	KindValidation    Kind = "validation_error"
	KindDuplicate     Kind = "duplicate"
	KindInsert        Kind = "insert_error"
	KindConnection    Kind = "connection_error"
)

// SummaryRow is the sentinel row index for batch-level notices such as a
// connection-loss report entry.
const SummaryRow = -1

// Entry is one per-row failure attributed to its 1-based position in the
// submitted input.
type Entry struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
}

// Input-shape errors. These abort the call before any row is processed;
// everything else is collected per row.
var (
	ErrNoRows      = errors.New("no rows submitted")
	ErrTooManyRows = errors.New("batch exceeds the maximum accepted size")
)

// Class tags a store failure for the engine's policy decision.
type Class int

const (
	// ClassRowLevel failures are isolated per record by retrying the
	// chunk row by row.
	ClassRowLevel Class = iota
	// ClassTransient failures halt all further chunk processing.
	ClassTransient
	// ClassFatal marks error shapes the classifier does not recognize;
	// the engine falls back to per-record writes for everything left.
	ClassFatal
)

// Classified carries the policy class and, for row-level failures, the
// report kind the failure maps to.
type Classified struct {
	Class Class
	Kind  Kind
}

// Classifier maps a store error onto a Classified tag. Implementations
// live in the store layer and hold the closed set of recognized
// transient signatures, so the engine never inspects driver errors.
type Classifier func(error) Classified

var pathRx = regexp.MustCompile(`(?:[A-Za-z]:)?(?:/[\w.\-]+){2,}(?::\d+)?`)

// Sanitize strips filesystem paths and stack fragments out of an error
// message before it reaches the report.
func Sanitize(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = pathRx.ReplaceAllString(msg, "")
	return strings.TrimSpace(msg)
}
