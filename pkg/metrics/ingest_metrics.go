package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestedRows counts per-row ingestion outcomes.
	// outcome: created | failed | dropped.
	IngestedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phonedeck",
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Bulk ingestion rows by entity and outcome.",
	}, []string{"entity", "outcome"})

	// ConnectionLostBatches counts ingestion calls halted by a transient
	// store failure.
	ConnectionLostBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phonedeck",
		Subsystem: "ingest",
		Name:      "connection_lost_batches_total",
		Help:      "Ingestion batches halted mid-chunk by a connection loss.",
	}, []string{"entity"})
)
