package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/phonedeck/phonedeck/modules/directory/domain/document"
	"github.com/phonedeck/phonedeck/pkg/ingest"
	"github.com/phonedeck/phonedeck/pkg/tabular"
)

var documentMapping = &tabular.Mapping{
	Synonyms: map[string]string{
		"title":         "title",
		"documenttitle": "title",
		"doctitle":      "title",
		"docname":       "title",
		"documentname":  "title",

		"link":         "link",
		"url":          "link",
		"documentlink": "link",
		"doclink":      "link",
		"fileurl":      "link",

		"uploadedby": "uploadedBy",
		"uploader":   "uploadedBy",
		"addedby":    "uploadedBy",
		"owner":      "uploadedBy",

		"srno":  tabular.Ignored,
		"sno":   tabular.Ignored,
		"slno":  tabular.Ignored,
		"index": tabular.Ignored,
	},
	Required: []string{"title", "link"},
}

type DocumentIngestService struct {
	pipeline *ingest.Pipeline[document.Document]
}

func NewDocumentIngestService(
	store ingest.Store[document.Document],
	classify ingest.Classifier,
	opts IngestOptions,
	logger *logrus.Logger,
) *DocumentIngestService {
	return &DocumentIngestService{
		pipeline: &ingest.Pipeline[document.Document]{
			Store:        store,
			Classify:     classify,
			Validate:     validateDocumentRow,
			Key:          document.Document.BatchKey,
			KeyField:     "title",
			ChunkSize:    opts.ChunkSize,
			ChunkTimeout: opts.ChunkTimeout,
			MaxBatchRows: opts.MaxBatchRows,
			Log:          logger.WithField("entity", "document"),
		},
	}
}

func (s *DocumentIngestService) BulkCreate(ctx context.Context, items []map[string]any, replaceAll bool) (*ingest.Result, error) {
	rows, dropped := tabular.FromJSON(items, documentMapping)
	return s.run(ctx, rows, dropped, replaceAll)
}

func (s *DocumentIngestService) UploadFile(ctx context.Context, filename string, data []byte, replaceAll bool) (*ingest.Result, error) {
	rows, dropped, err := tabular.ReadFile(filename, data, documentMapping)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, rows, dropped, replaceAll)
}

func (s *DocumentIngestService) run(ctx context.Context, rows []tabular.Row, dropped int, replaceAll bool) (*ingest.Result, error) {
	result, err := s.pipeline.Run(ctx, rows, dropped, replaceAll)
	if err != nil {
		return nil, err
	}
	observe("document", result)
	return result, nil
}

func validateDocumentRow(row tabular.Row) (document.Document, *ingest.Entry) {
	var record document.Document
	entry := ingest.GuardValidation(row.Index, func() *ingest.Entry {
		dto := document.CreateDTO{
			Title:      row.Values["title"],
			Link:       row.Values["link"],
			UploadedBy: row.Values["uploadedBy"],
		}
		errs, ok := dto.Ok()
		if !ok {
			e := ingest.EntryForFieldError(row.Index, document.FieldName(errs[0].StructField()), errs[0])
			return &e
		}
		record = dto.ToEntity()
		return nil
	})
	if entry != nil {
		return document.Document{}, entry
	}
	return record, nil
}
