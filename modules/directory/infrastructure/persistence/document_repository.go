package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/phonedeck/phonedeck/modules/directory/domain/document"
	"github.com/phonedeck/phonedeck/modules/directory/infrastructure/persistence/models"
	"github.com/phonedeck/phonedeck/pkg/composables"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
)

const (
	documentFindQuery = `
        SELECT
            d.id,
            d.title,
            d.link,
            d.uploaded_by,
            d.created_at,
            d.updated_at
        FROM documents d`

	documentCountQuery = `SELECT COUNT(d.id) FROM documents d`

	documentInsertQuery = `
        INSERT INTO documents (id, title, link, uploaded_by)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`

	documentUpdateQuery = `
        UPDATE documents
        SET title = $2, link = $3, uploaded_by = $4, updated_at = now()
        WHERE id = $1
        RETURNING created_at, updated_at`

	documentDeleteQuery    = `DELETE FROM documents WHERE id = $1`
	documentDeleteAllQuery = `DELETE FROM documents`
)

type PgDocumentRepository struct{}

func NewDocumentRepository() *PgDocumentRepository {
	return &PgDocumentRepository{}
}

func (r *PgDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (document.Document, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return document.Document{}, err
	}
	return scanDocument(tx.QueryRow(ctx, documentFindQuery+" WHERE d.id = $1", id))
}

func (r *PgDocumentRepository) Create(ctx context.Context, d document.Document) (document.Document, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return document.Document{}, err
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, documentInsertQuery, d.ID, d.Title, d.Link, d.UploadedBy).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "insert document")
	}
	return d, nil
}

func (r *PgDocumentRepository) Update(ctx context.Context, d document.Document) (document.Document, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return document.Document{}, err
	}
	err = tx.QueryRow(ctx, documentUpdateQuery, d.ID, d.Title, d.Link, d.UploadedBy).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return document.Document{}, errors.Wrap(err, "update document")
	}
	return d, nil
}

func (r *PgDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, documentDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, "delete document")
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PgDocumentRepository) List(ctx context.Context, params document.FindParams) ([]document.Document, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := documentFindQuery
	args := []interface{}{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		query += fmt.Sprintf(" WHERE d.title ILIKE $%d", len(args))
	}
	query += " ORDER BY d.created_at DESC"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	defer rows.Close()

	out := make([]document.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PgDocumentRepository) Count(ctx context.Context, params document.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	query := documentCountQuery
	args := []interface{}{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		query += fmt.Sprintf(" WHERE d.title ILIKE $%d", len(args))
	}
	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count documents")
	}
	return count, nil
}

// DeleteAll clears the table for the replace-all ingestion path.
func (r *PgDocumentRepository) DeleteAll(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, documentDeleteAllQuery)
	return err
}

// InsertSkipConflicts bulk-inserts documents. Documents have no natural
// key at the store level, so there is nothing to skip; the name keeps
// the ingestion store contract uniform.
func (r *PgDocumentRepository) InsertSkipConflicts(ctx context.Context, records []document.Document) error {
	return r.sendBatch(ctx, records)
}

// UpsertBatch writes all records in one transaction. With generated IDs
// every write is effectively an insert; idempotent retries for
// documents rely on the within-batch title+link dedup upstream.
func (r *PgDocumentRepository) UpsertBatch(ctx context.Context, records []document.Document) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return r.sendBatch(txCtx, records)
	})
}

func (r *PgDocumentRepository) Upsert(ctx context.Context, d document.Document) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO documents (id, title, link, uploaded_by) VALUES ($1, $2, $3, $4)`,
		id, d.Title, d.Link, d.UploadedBy)
	return err
}

func (r *PgDocumentRepository) sendBatch(ctx context.Context, records []document.Document) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, d := range records {
		id := d.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(
			`INSERT INTO documents (id, title, link, uploaded_by) VALUES ($1, $2, $3, $4)`,
			id, d.Title, d.Link, d.UploadedBy)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanDocument(row pgx.Row) (document.Document, error) {
	var m models.Document
	err := row.Scan(&m.ID, &m.Title, &m.Link, &m.UploadedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return document.Document{}, errors.Wrap(err, "scan document")
	}
	return document.Document(m), nil
}
