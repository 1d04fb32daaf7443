package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"github.com/phonedeck/phonedeck/pkg/tabular"
)

type record struct {
	Key  string
	Name string
}

var (
	errTransient = errors.New("simulated connection loss")
	errRowLevel  = errors.New("simulated row failure")
	errDupe      = errors.New("simulated unique violation")
	errUnknown   = errors.New("simulated programming error")
)

func classify(err error) Classified {
	switch {
	case errors.Is(err, errTransient):
		return Classified{Class: ClassTransient, Kind: KindConnection}
	case errors.Is(err, errDupe):
		return Classified{Class: ClassRowLevel, Kind: KindDuplicate}
	case errors.Is(err, errRowLevel):
		return Classified{Class: ClassRowLevel, Kind: KindInsert}
	default:
		return Classified{Class: ClassFatal}
	}
}

// fakeStore keeps records keyed by natural key and can be scripted to
// fail specific batch calls or specific keys.
type fakeStore struct {
	mu          sync.Mutex
	records     map[string]record
	batchCalls  int
	failBatch   map[int]error // 1-based batch call number -> error
	failKeys    map[string]error
	singleCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   make(map[string]record),
		failBatch: make(map[int]error),
		failKeys:  make(map[string]error),
	}
}

func (s *fakeStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]record)
	return nil
}

func (s *fakeStore) InsertSkipConflicts(ctx context.Context, records []record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.records[r.Key]; !ok {
			s.records[r.Key] = r
		}
	}
	return nil
}

func (s *fakeStore) UpsertBatch(ctx context.Context, records []record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	if err, ok := s.failBatch[s.batchCalls]; ok {
		return err
	}
	for _, r := range records {
		s.records[r.Key] = r
	}
	return nil
}

func (s *fakeStore) Upsert(ctx context.Context, r record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.singleCalls++
	if err, ok := s.failKeys[r.Key]; ok {
		return err
	}
	s.records[r.Key] = r
	return nil
}

func validateRecord(row tabular.Row) (record, *Entry) {
	key := row.Values["key"]
	if key == "" {
		return record{}, &Entry{
			Row:     row.Index,
			Field:   "key",
			Kind:    KindInvalidType,
			Message: "key is required",
		}
	}
	return record{Key: key, Name: row.Values["name"]}, nil
}

func newPipeline(store *fakeStore) *Pipeline[record] {
	return &Pipeline[record]{
		Store:    store,
		Classify: classify,
		Validate: validateRecord,
		Key:      func(r record) string { return r.Key },
		KeyField: "key",
	}
}

func rowsN(n int) []tabular.Row {
	rows := make([]tabular.Row, n)
	for i := range rows {
		rows[i] = tabular.Row{
			Index:  i + 1,
			Values: map[string]string{"key": fmt.Sprintf("k%04d", i), "name": fmt.Sprintf("n%d", i)},
		}
	}
	return rows
}

func TestRun_HappyPath(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	result, err := p.Run(context.Background(), rowsN(3), 0, false)
	require.NoError(t, err)
	require.Equal(t, 3, result.Created)
	require.Empty(t, result.Errors)
	require.Equal(t, 3, result.Report.Total)
	require.Equal(t, 0, result.Report.Failed)
	require.Len(t, store.records, 3)
}

func TestRun_InputShape(t *testing.T) {
	p := newPipeline(newFakeStore())

	_, err := p.Run(context.Background(), nil, 0, false)
	require.ErrorIs(t, err, ErrNoRows)

	_, err = p.Run(context.Background(), rowsN(1001), 0, false)
	require.ErrorIs(t, err, ErrTooManyRows)

	// Exactly the maximum passes the shape check.
	result, err := p.Run(context.Background(), rowsN(1000), 0, false)
	require.NoError(t, err)
	require.Equal(t, 1000, result.Created)
}

func TestRun_DedupKeepsFirstOccurrence(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	rows := []tabular.Row{
		{Index: 1, Values: map[string]string{"key": "phoneA", "name": "first"}},
		{Index: 2, Values: map[string]string{"key": "phoneB", "name": "second"}},
		{Index: 3, Values: map[string]string{"key": "phoneA", "name": "third"}},
	}
	result, err := p.Run(context.Background(), rows, 0, false)
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 3, result.Errors[0].Row)
	require.Equal(t, KindDuplicate, result.Errors[0].Kind)
	require.Equal(t, "key", result.Errors[0].Field)
	require.Equal(t, "first", store.records["phoneA"].Name)
}

func TestRun_InvalidRowDoesNotConsumeKey(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	// Row 1 is invalid; row 2 reuses what would have been its key and
	// must not be reported as a duplicate.
	rows := []tabular.Row{
		{Index: 1, Values: map[string]string{"name": "no key"}},
		{Index: 2, Values: map[string]string{"key": "phoneA", "name": "ok"}},
	}
	result, err := p.Run(context.Background(), rows, 0, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 1, result.Errors[0].Row)
	require.Equal(t, KindInvalidType, result.Errors[0].Kind)
}

func TestRun_ChunkHaltOnConnectionLoss(t *testing.T) {
	store := newFakeStore()
	store.failBatch[2] = errTransient

	p := newPipeline(store)
	result, err := p.Run(context.Background(), rowsN(1000), 0, false)
	require.NoError(t, err)

	require.Equal(t, 500, result.Created)
	require.True(t, result.Report.ConnectionLost)
	require.True(t, result.Report.PartialUpload)
	require.Equal(t, 500, result.Report.Processed)
	require.Equal(t, 500, result.Report.NotProcessed)
	// Only chunks 1 and 2 were attempted.
	require.Equal(t, 2, store.batchCalls)
	require.Zero(t, store.singleCalls)

	// The summary entry uses the sentinel row and is not counted as a
	// failed row.
	require.Len(t, result.Errors, 1)
	require.Equal(t, SummaryRow, result.Errors[0].Row)
	require.Equal(t, KindConnection, result.Errors[0].Kind)
	require.Equal(t, 0, result.Report.Failed)
}

func TestRun_NoChunkAttemptedAfterHalt(t *testing.T) {
	store := newFakeStore()
	store.failBatch[2] = errTransient

	p := newPipeline(store)
	p.MaxBatchRows = 1200
	result, err := p.Run(context.Background(), rowsN(1200), 0, false)
	require.NoError(t, err)

	require.Equal(t, 500, result.Created)
	require.Equal(t, 500, result.Report.Processed)
	require.Equal(t, 700, result.Report.NotProcessed)
	// Chunk 3 was never started.
	require.Equal(t, 2, store.batchCalls)
}

func TestRun_RowLevelFallbackIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.failBatch[1] = errRowLevel
	store.failKeys["k0002"] = errDupe

	p := newPipeline(store)
	result, err := p.Run(context.Background(), rowsN(5), 0, false)
	require.NoError(t, err)

	require.Equal(t, 4, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 3, result.Errors[0].Row) // k0002 sits at row 3
	require.Equal(t, KindDuplicate, result.Errors[0].Kind)
	require.Equal(t, "key", result.Errors[0].Field)
	require.Equal(t, 1, result.Report.Failed)
	require.Equal(t, result.Report.Total, result.Report.Created+result.Report.Failed)
}

func TestRun_FatalErrorFallsBackToRowWrites(t *testing.T) {
	store := newFakeStore()
	store.failBatch[1] = errUnknown
	store.failKeys["k0001"] = errRowLevel

	p := newPipeline(store)
	result, err := p.Run(context.Background(), rowsN(4), 0, false)
	require.NoError(t, err)

	require.Equal(t, 3, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 2, result.Errors[0].Row)
	require.Equal(t, KindInsert, result.Errors[0].Kind)
}

func TestRun_TransientDuringRowFallbackHalts(t *testing.T) {
	store := newFakeStore()
	store.failBatch[1] = errRowLevel
	store.failKeys["k0002"] = errTransient

	p := newPipeline(store)
	result, err := p.Run(context.Background(), rowsN(5), 0, false)
	require.NoError(t, err)

	// k0000 and k0001 landed individually, then the connection died.
	require.Equal(t, 2, result.Created)
	require.True(t, result.Report.ConnectionLost)
	require.Equal(t, 2, result.Report.Processed)
	require.Equal(t, 3, result.Report.NotProcessed)
}

func TestRun_ReplaceAllClearsStore(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = record{Key: "old", Name: "stale"}

	p := newPipeline(store)
	rows := []tabular.Row{
		{Index: 1, Values: map[string]string{"key": "phoneA", "name": "first"}},
		{Index: 2, Values: map[string]string{"key": "phoneA", "name": "second"}},
	}
	result, err := p.Run(context.Background(), rows, 0, true)
	require.NoError(t, err)

	require.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, KindDuplicate, result.Errors[0].Kind)
	require.NotContains(t, store.records, "old")
	require.Len(t, store.records, 1)
	require.Equal(t, "first", store.records["phoneA"].Name)
}

func TestRun_IdempotentResubmission(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	first, err := p.Run(context.Background(), rowsN(10), 0, false)
	require.NoError(t, err)
	require.Equal(t, 10, first.Created)

	second, err := p.Run(context.Background(), rowsN(10), 0, false)
	require.NoError(t, err)
	require.Equal(t, 10, second.Created)
	require.Len(t, store.records, 10)
}

func TestRun_DroppedRowsCountTowardShapeChecks(t *testing.T) {
	p := newPipeline(newFakeStore())

	// All rows fell to the survival rule: not an input error, an empty
	// result carrying the dropped count.
	result, err := p.Run(context.Background(), nil, 4, false)
	require.NoError(t, err)
	require.Equal(t, 0, result.Created)
	require.Equal(t, 4, result.Report.Dropped)

	_, err = p.Run(context.Background(), rowsN(999), 2, false)
	require.ErrorIs(t, err, ErrTooManyRows)
}
