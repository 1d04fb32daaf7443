package services

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/phonedeck/phonedeck/modules/directory/domain/contact"
	"github.com/phonedeck/phonedeck/pkg/ingest"
)

type fakeContactStore struct {
	mu       sync.Mutex
	byPhone  map[string]contact.Contact
	failNext error
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{byPhone: make(map[string]contact.Contact)}
}

func (s *fakeContactStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPhone = make(map[string]contact.Contact)
	return nil
}

func (s *fakeContactStore) InsertSkipConflicts(ctx context.Context, records []contact.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range records {
		if _, ok := s.byPhone[c.Phone]; !ok {
			s.byPhone[c.Phone] = c
		}
	}
	return nil
}

func (s *fakeContactStore) UpsertBatch(ctx context.Context, records []contact.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	for _, c := range records {
		s.byPhone[c.Phone] = c
	}
	return nil
}

func (s *fakeContactStore) Upsert(ctx context.Context, c contact.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPhone[c.Phone] = c
	return nil
}

func alwaysRowLevel(err error) ingest.Classified {
	return ingest.Classified{Class: ingest.ClassRowLevel, Kind: ingest.KindInsert}
}

func newContactIngest(store *fakeContactStore) *ContactIngestService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewContactIngestService(store, alwaysRowLevel, IngestOptions{}, logger)
}

func TestContactBulkCreate_MapsHeadersAndNormalizes(t *testing.T) {
	store := newFakeContactStore()
	svc := newContactIngest(store)

	items := []map[string]any{
		{"Name": "Alice", "Contact Number": "8.98E+09", "Blood Group": "a+", "Dept": "Ops"},
		{"Full Name": "Bob", "Mobile": "+1 (234) 567-890", "Designation": "Manager"},
	}
	result, err := svc.BulkCreate(context.Background(), items, false)
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Empty(t, result.Errors)

	alice, ok := store.byPhone["8980000000"]
	require.True(t, ok, "scientific-notation phone must normalize to digits")
	require.Equal(t, "Alice", alice.Name)
	require.NotNil(t, alice.BloodGroup)
	require.Equal(t, "A+", *alice.BloodGroup)
	require.NotNil(t, alice.Lobby)
	require.Equal(t, "Ops", *alice.Lobby)

	bob, ok := store.byPhone["+1234567890"]
	require.True(t, ok)
	require.Equal(t, "Bob", bob.Name)
	require.Nil(t, bob.BloodGroup)
}

func TestContactBulkCreate_UnknownBloodGroupBecomesNoData(t *testing.T) {
	store := newFakeContactStore()
	svc := newContactIngest(store)

	items := []map[string]any{
		{"Name": "Cara", "Phone": "111", "Blood Group": "XYZ"},
	}
	result, err := svc.BulkCreate(context.Background(), items, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)

	cara := store.byPhone["111"]
	require.NotNil(t, cara.BloodGroup)
	require.Equal(t, contact.NoData, *cara.BloodGroup)
}

func TestContactBulkCreate_DropsRowsMissingRequiredFields(t *testing.T) {
	store := newFakeContactStore()
	svc := newContactIngest(store)

	items := []map[string]any{
		{"Sr.No": float64(1)},              // separator row
		{"Name": "Alice", "Phone": "111"},  // survives
		{"Name": "NoPhone"},                // dropped
		{"Phone": "222"},                   // dropped
	}
	result, err := svc.BulkCreate(context.Background(), items, false)
	require.NoError(t, err)

	// Dropped rows produce no error entries, only a count.
	require.Equal(t, 1, result.Created)
	require.Empty(t, result.Errors)
	require.Equal(t, 3, result.Report.Dropped)
	require.Equal(t, 1, result.Report.Total)
}

func TestContactBulkCreate_DedupesByCoercedPhone(t *testing.T) {
	store := newFakeContactStore()
	svc := newContactIngest(store)

	// Same number spelled three ways; only the first survives.
	items := []map[string]any{
		{"Name": "First", "Phone": "8980000000"},
		{"Name": "Other", "Phone": "111"},
		{"Name": "Third", "Phone": "8.98E+09"},
	}
	result, err := svc.BulkCreate(context.Background(), items, false)
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 3, result.Errors[0].Row)
	require.Equal(t, ingest.KindDuplicate, result.Errors[0].Kind)
	require.Equal(t, "phone", result.Errors[0].Field)
	require.Equal(t, "First", store.byPhone["8980000000"].Name)
}

func TestContactBulkCreate_ValidationErrorsCarryFieldAndKind(t *testing.T) {
	store := newFakeContactStore()
	svc := newContactIngest(store)

	longName := make([]byte, 201)
	for i := range longName {
		longName[i] = 'x'
	}
	items := []map[string]any{
		{"Name": string(longName), "Phone": "111"},
		{"Name": "Ok", "Phone": "222"},
	}
	result, err := svc.BulkCreate(context.Background(), items, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 1, result.Errors[0].Row)
	require.Equal(t, "name", result.Errors[0].Field)
	require.Equal(t, ingest.KindTooBig, result.Errors[0].Kind)
	require.Equal(t, result.Report.Total, result.Report.Created+result.Report.Failed)
}

func TestContactBulkCreate_ReplaceAllClearsExisting(t *testing.T) {
	store := newFakeContactStore()
	store.byPhone["999"] = contact.Contact{Name: "Stale", Phone: "999"}
	svc := newContactIngest(store)

	items := []map[string]any{
		{"Name": "Alice", "Phone": "111"},
	}
	result, err := svc.BulkCreate(context.Background(), items, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.NotContains(t, store.byPhone, "999")
	require.Len(t, store.byPhone, 1)
}

func TestContactBulkCreate_EmptyBatchRejected(t *testing.T) {
	svc := newContactIngest(newFakeContactStore())

	_, err := svc.BulkCreate(context.Background(), nil, false)
	require.ErrorIs(t, err, ingest.ErrNoRows)
}
