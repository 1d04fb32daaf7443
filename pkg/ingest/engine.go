package ingest

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/phonedeck/phonedeck/pkg/tabular"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkTimeout = 30 * time.Second
	DefaultMaxBatchRows = 1000
)

// Store is the write surface the engine drives. All writes outside
// ReplaceAll's initial bulk insert must be upserts keyed on the entity's
// natural key, so re-submitting a file after a partial failure is safe.
type Store[T any] interface {
	// DeleteAll removes every record of the entity type.
	DeleteAll(ctx context.Context) error
	// InsertSkipConflicts bulk-inserts records, silently skipping
	// natural-key collisions.
	InsertSkipConflicts(ctx context.Context, records []T) error
	// UpsertBatch writes all records atomically; either every record
	// lands or none do.
	UpsertBatch(ctx context.Context, records []T) error
	// Upsert writes a single record.
	Upsert(ctx context.Context, record T) error
}

// Pipeline is one entity type's ingestion engine. Each stage is a pure
// function over (accepted, rejected) pairs; Run threads them together.
type Pipeline[T any] struct {
	Store    Store[T]
	Classify Classifier
	// Validate turns one normalized row into a record or a structured
	// error entry. It must never panic the batch: implementations wrap
	// unexpected failures into KindValidation entries.
	Validate func(row tabular.Row) (T, *Entry)
	// Key extracts the natural key used for within-batch deduplication.
	Key      func(T) string
	KeyField string

	ChunkSize    int
	ChunkTimeout time.Duration
	MaxBatchRows int
	Log          *logrus.Entry
}

type indexed[T any] struct {
	record T
	row    int
}

// Run executes the full pipeline over normalized rows. dropped is the
// normalizer's count of silently discarded rows, carried through to the
// report. Run only returns an error for input-shape problems; every
// per-row failure is collected into the result instead.
func (p *Pipeline[T]) Run(ctx context.Context, rows []tabular.Row, dropped int, replaceAll bool) (*Result, error) {
	// Shape checks run against the submitted size, dropped rows included:
	// a batch whose rows all fell to the survival rule is not an input
	// error, it is an empty-but-valid result.
	submitted := len(rows) + dropped
	if submitted == 0 {
		return nil, ErrNoRows
	}
	maxRows := p.MaxBatchRows
	if maxRows <= 0 {
		maxRows = DefaultMaxBatchRows
	}
	if submitted > maxRows {
		return nil, errors.Wrapf(ErrTooManyRows, "%d rows, maximum %d", submitted, maxRows)
	}

	valid, entries := p.validateAll(rows)
	unique, dupes := p.dedupe(valid)
	entries = append(entries, dupes...)

	var (
		created int
		halted  *halt
	)
	if replaceAll {
		var writeErrs []Entry
		created, writeErrs, halted = p.replaceAll(ctx, unique)
		entries = append(entries, writeErrs...)
	} else {
		var writeErrs []Entry
		created, writeErrs, halted = p.writeChunked(ctx, unique)
		entries = append(entries, writeErrs...)
	}

	if halted != nil {
		entries = append(entries, Entry{
			Row:     SummaryRow,
			Kind:    KindConnection,
			Message: retryGuidance(halted.processed, halted.notProcessed),
		})
	}

	return &Result{
		Created: created,
		Errors:  entries,
		Report:  buildReport(len(rows), created, dropped, entries, halted),
	}, nil
}

func (p *Pipeline[T]) validateAll(rows []tabular.Row) ([]indexed[T], []Entry) {
	valid := make([]indexed[T], 0, len(rows))
	var entries []Entry
	for _, row := range rows {
		record, entry := p.Validate(row)
		if entry != nil {
			entries = append(entries, *entry)
			continue
		}
		valid = append(valid, indexed[T]{record: record, row: row.Index})
	}
	return valid, entries
}

// dedupe keeps the first occurrence of each natural key and rejects
// every later one. Runs strictly after validation, so an invalid row
// never consumes a key.
func (p *Pipeline[T]) dedupe(records []indexed[T]) ([]indexed[T], []Entry) {
	seen := make(map[string]struct{}, len(records))
	unique := make([]indexed[T], 0, len(records))
	var entries []Entry
	for _, rec := range records {
		key := p.Key(rec.record)
		if _, ok := seen[key]; ok {
			entries = append(entries, Entry{
				Row:     rec.row,
				Field:   p.KeyField,
				Kind:    KindDuplicate,
				Message: "duplicate " + p.KeyField + " within the submitted batch",
			})
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rec)
	}
	return unique, entries
}

// replaceAll clears the store and bulk-inserts the batch. Cross-batch
// collisions cannot occur after the delete, and within-batch ones were
// removed by dedupe, so this path has no chunking.
func (p *Pipeline[T]) replaceAll(ctx context.Context, records []indexed[T]) (int, []Entry, *halt) {
	if err := p.Store.DeleteAll(ctx); err != nil {
		if p.Classify(err).Class == ClassTransient {
			return 0, nil, &halt{processed: 0, notProcessed: len(records)}
		}
		return 0, []Entry{{
			Row:     SummaryRow,
			Kind:    KindInsert,
			Message: Sanitize("failed to clear existing records: " + err.Error()),
		}}, nil
	}

	if len(records) == 0 {
		return 0, nil, nil
	}
	if err := p.Store.InsertSkipConflicts(ctx, extract(records)); err != nil {
		switch p.Classify(err).Class {
		case ClassTransient:
			return 0, nil, &halt{processed: 0, notProcessed: len(records)}
		default:
			// Store rejected the bulk insert; isolate failures per record.
			created, entries, halted := p.writeRows(ctx, records)
			return created, entries, halted
		}
	}
	return len(records), nil, nil
}

// writeChunked writes fixed-size chunks sequentially. Ordering is load
// bearing: the halt policy relies on knowing that no chunk after the
// failed one has started.
func (p *Pipeline[T]) writeChunked(ctx context.Context, records []indexed[T]) (int, []Entry, *halt) {
	size := p.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	timeout := p.ChunkTimeout
	if timeout <= 0 {
		timeout = DefaultChunkTimeout
	}

	var (
		created int
		entries []Entry
	)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunk := records[start:end]

		chunkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Store.UpsertBatch(chunkCtx, extract(chunk))
		cancel()

		if err == nil {
			created += len(chunk)
			continue
		}

		classified := p.Classify(err)
		switch classified.Class {
		case ClassTransient:
			p.logger().WithError(err).Warn("connection lost mid-batch, halting chunk processing")
			return created, entries, &halt{
				processed:    created,
				notProcessed: len(records) - created,
			}
		case ClassFatal:
			p.logger().WithError(err).Error("unclassified batch write failure, falling back to per-record writes")
			n, rowEntries, halted := p.writeRows(ctx, records[start:])
			created += n
			entries = append(entries, rowEntries...)
			if halted != nil {
				halted.processed = created
				halted.notProcessed = len(records) - created
			}
			return created, entries, halted
		default:
			// A single bad record poisoned the chunk transaction. Retry
			// the chunk row by row so failures are attributed precisely.
			n, rowEntries, halted := p.writeRows(ctx, chunk)
			created += n
			entries = append(entries, rowEntries...)
			if halted != nil {
				halted.processed = created
				halted.notProcessed = len(records) - created
				return created, entries, halted
			}
		}
	}
	return created, entries, nil
}

// writeRows upserts records one at a time, attributing each failure to
// its original row index. A transient failure still halts everything
// that remains.
func (p *Pipeline[T]) writeRows(ctx context.Context, records []indexed[T]) (int, []Entry, *halt) {
	var (
		created int
		entries []Entry
	)
	for _, rec := range records {
		err := p.Store.Upsert(ctx, rec.record)
		if err == nil {
			created++
			continue
		}
		classified := p.Classify(err)
		if classified.Class == ClassTransient {
			return created, entries, &halt{
				processed:    created,
				notProcessed: len(records) - created,
			}
		}
		kind := classified.Kind
		if kind == "" {
			kind = KindInsert
		}
		field := ""
		if kind == KindDuplicate {
			field = p.KeyField
		}
		entries = append(entries, Entry{
			Row:     rec.row,
			Field:   field,
			Kind:    kind,
			Message: Sanitize(err.Error()),
		})
	}
	return created, entries, nil
}

func (p *Pipeline[T]) logger() *logrus.Entry {
	if p.Log != nil {
		return p.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func extract[T any](records []indexed[T]) []T {
	out := make([]T, len(records))
	for i, rec := range records {
		out[i] = rec.record
	}
	return out
}
