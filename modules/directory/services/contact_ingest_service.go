package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phonedeck/phonedeck/modules/directory/domain/contact"
	"github.com/phonedeck/phonedeck/pkg/ingest"
	"github.com/phonedeck/phonedeck/pkg/metrics"
	"github.com/phonedeck/phonedeck/pkg/tabular"
)

// IngestOptions bounds one entity's ingestion pipeline. Zero values fall
// back to the engine defaults.
type IngestOptions struct {
	ChunkSize    int
	ChunkTimeout time.Duration
	MaxBatchRows int
}

// contactMapping canonicalizes the many header spellings seen in real
// uploaded files. Keys are pre-normalized (lowercase, separators
// stripped); values are the wire field names of contact.CreateDTO.
var contactMapping = &tabular.Mapping{
	Synonyms: map[string]string{
		"name":         "name",
		"fullname":     "name",
		"contactname":  "name",
		"employeename": "name",

		"phone":         "phone",
		"phoneno":       "phone",
		"phonenumber":   "phone",
		"mobile":        "phone",
		"mobileno":      "phone",
		"mobilenumber":  "phone",
		"contactnumber": "phone",
		"tel":           "phone",
		"telephone":     "phone",
		"cell":          "phone",
		"cellno":        "phone",

		"bloodgroup": "bloodGroup",
		"bloodgrp":   "bloodGroup",
		"blood":      "bloodGroup",
		"bg":         "bloodGroup",

		"lobby":      "lobby",
		"dept":       "lobby",
		"department": "lobby",
		"division":   "lobby",

		"designation": "designation",
		"post":        "designation",
		"position":    "designation",
		"role":        "designation",

		"srno":     tabular.Ignored,
		"sno":      tabular.Ignored,
		"slno":     tabular.Ignored,
		"serialno": tabular.Ignored,
		"sr":       tabular.Ignored,
		"index":    tabular.Ignored,
	},
	Required: []string{"name", "phone"},
	Coerce: map[string]tabular.Coercer{
		"phone": contact.CoercePhone,
	},
}

type ContactIngestService struct {
	pipeline *ingest.Pipeline[contact.Contact]
}

func NewContactIngestService(
	store ingest.Store[contact.Contact],
	classify ingest.Classifier,
	opts IngestOptions,
	logger *logrus.Logger,
) *ContactIngestService {
	return &ContactIngestService{
		pipeline: &ingest.Pipeline[contact.Contact]{
			Store:        store,
			Classify:     classify,
			Validate:     validateContactRow,
			Key:          func(c contact.Contact) string { return c.Phone },
			KeyField:     "phone",
			ChunkSize:    opts.ChunkSize,
			ChunkTimeout: opts.ChunkTimeout,
			MaxBatchRows: opts.MaxBatchRows,
			Log:          logger.WithField("entity", "contact"),
		},
	}
}

// BulkCreate ingests an already-parsed JSON array of raw row objects.
func (s *ContactIngestService) BulkCreate(ctx context.Context, items []map[string]any, replaceAll bool) (*ingest.Result, error) {
	rows, dropped := tabular.FromJSON(items, contactMapping)
	return s.run(ctx, rows, dropped, replaceAll)
}

// UploadFile ingests raw CSV/spreadsheet bytes.
func (s *ContactIngestService) UploadFile(ctx context.Context, filename string, data []byte, replaceAll bool) (*ingest.Result, error) {
	rows, dropped, err := tabular.ReadFile(filename, data, contactMapping)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, rows, dropped, replaceAll)
}

func (s *ContactIngestService) run(ctx context.Context, rows []tabular.Row, dropped int, replaceAll bool) (*ingest.Result, error) {
	result, err := s.pipeline.Run(ctx, rows, dropped, replaceAll)
	if err != nil {
		return nil, err
	}
	observe("contact", result)
	return result, nil
}

func validateContactRow(row tabular.Row) (contact.Contact, *ingest.Entry) {
	var record contact.Contact
	entry := ingest.GuardValidation(row.Index, func() *ingest.Entry {
		dto := contact.CreateDTO{
			Name:        row.Values["name"],
			Phone:       row.Values["phone"],
			BloodGroup:  row.Values["bloodGroup"],
			Lobby:       row.Values["lobby"],
			Designation: row.Values["designation"],
		}
		errs, ok := dto.Ok()
		if !ok {
			e := ingest.EntryForFieldError(row.Index, contact.FieldName(errs[0].StructField()), errs[0])
			return &e
		}
		record = dto.ToEntity()
		return nil
	})
	if entry != nil {
		return contact.Contact{}, entry
	}
	return record, nil
}

func observe(entity string, result *ingest.Result) {
	metrics.IngestedRows.WithLabelValues(entity, "created").Add(float64(result.Created))
	metrics.IngestedRows.WithLabelValues(entity, "failed").Add(float64(result.Report.Failed))
	metrics.IngestedRows.WithLabelValues(entity, "dropped").Add(float64(result.Report.Dropped))
	if result.Report.ConnectionLost {
		metrics.ConnectionLostBatches.WithLabelValues(entity).Inc()
	}
}
