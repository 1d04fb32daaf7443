package ingest

import "fmt"

// Report aggregates per-row outcomes for one ingestion call.
type Report struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
	// Dropped counts rows silently discarded during normalization for
	// missing required fields. They are not part of Total.
	Dropped       int            `json:"dropped,omitempty"`
	ErrorsByType  map[Kind]int   `json:"errorsByType"`
	ErrorsByField map[string]int `json:"errorsByField"`

	ConnectionLost bool   `json:"connectionLost,omitempty"`
	PartialUpload  bool   `json:"partialUpload,omitempty"`
	Processed      int    `json:"processed,omitempty"`
	NotProcessed   int    `json:"notProcessed,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Result is the full outcome returned to the caller.
type Result struct {
	Created int     `json:"created"`
	Errors  []Entry `json:"errors"`
	Report  Report  `json:"report"`
}

type halt struct {
	processed    int
	notProcessed int
}

// buildReport combines validation, dedup and write errors into one
// summary. Failed excludes the SummaryRow sentinel, so in a fully
// processed batch Total equals Created plus Failed; the histograms
// include every entry. A halted batch leaves its unprocessed rows in
// neither counter.
func buildReport(total, created, dropped int, entries []Entry, h *halt) Report {
	r := Report{
		Total:         total,
		Created:       created,
		Dropped:       dropped,
		ErrorsByType:  make(map[Kind]int),
		ErrorsByField: make(map[string]int),
	}
	for _, e := range entries {
		r.ErrorsByType[e.Kind]++
		if e.Field != "" {
			r.ErrorsByField[e.Field]++
		}
		if e.Row != SummaryRow {
			r.Failed++
		}
	}
	if h != nil {
		r.ConnectionLost = true
		r.PartialUpload = h.processed > 0
		r.Processed = h.processed
		r.NotProcessed = h.notProcessed
		r.Message = retryGuidance(h.processed, h.notProcessed)
	}
	return r
}

func retryGuidance(processed, notProcessed int) string {
	return fmt.Sprintf(
		"The database connection was lost during the upload. %d records were saved and %d were not processed. "+
			"Re-submitting the same file is safe: already saved records are updated in place, not duplicated.",
		processed, notProcessed,
	)
}
