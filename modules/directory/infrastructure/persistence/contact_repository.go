package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/phonedeck/phonedeck/modules/directory/domain/contact"
	"github.com/phonedeck/phonedeck/modules/directory/infrastructure/persistence/models"
	"github.com/phonedeck/phonedeck/pkg/composables"
)

var (
	ErrContactNotFound = errors.New("contact not found")
)

const (
	contactFindQuery = `
        SELECT
            c.id,
            c.name,
            c.phone,
            c.blood_group,
            c.lobby,
            c.designation,
            c.created_at,
            c.updated_at
        FROM contacts c`

	contactCountQuery = `SELECT COUNT(c.id) FROM contacts c`

	contactInsertQuery = `
        INSERT INTO contacts (name, phone, blood_group, lobby, designation)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	contactUpdateQuery = `
        UPDATE contacts
        SET name = $2, phone = $3, blood_group = $4, lobby = $5, designation = $6, updated_at = now()
        WHERE id = $1
        RETURNING created_at, updated_at`

	contactDeleteQuery    = `DELETE FROM contacts WHERE id = $1`
	contactDeleteAllQuery = `DELETE FROM contacts`

	contactUpsertQuery = `
        INSERT INTO contacts (name, phone, blood_group, lobby, designation)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (phone) DO UPDATE SET
            name = excluded.name,
            blood_group = excluded.blood_group,
            lobby = excluded.lobby,
            designation = excluded.designation,
            updated_at = now()`

	contactInsertSkipQuery = `
        INSERT INTO contacts (name, phone, blood_group, lobby, designation)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (phone) DO NOTHING`
)

type PgContactRepository struct {
	fieldMap map[contact.Field]string
}

func NewContactRepository() *PgContactRepository {
	return &PgContactRepository{
		fieldMap: map[contact.Field]string{
			contact.NameField:       "c.name",
			contact.PhoneField:      "c.phone",
			contact.LobbyField:      "c.lobby",
			contact.BloodGroupField: "c.blood_group",
			contact.CreatedAtField:  "c.created_at",
		},
	}
}

func (r *PgContactRepository) buildFilters(params contact.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}
	if params.Lobby != "" {
		args = append(args, params.Lobby)
		where = append(where, fmt.Sprintf("c.lobby = $%d", len(args)))
	}
	if params.BloodGroup != "" {
		args = append(args, params.BloodGroup)
		where = append(where, fmt.Sprintf("c.blood_group = $%d", len(args)))
	}
	return where, args
}

func (r *PgContactRepository) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	row := tx.QueryRow(ctx, contactFindQuery+" WHERE c.id = $1", id)
	return scanContact(row)
}

func (r *PgContactRepository) GetByPhone(ctx context.Context, phone string) (contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	row := tx.QueryRow(ctx, contactFindQuery+" WHERE c.phone = $1", phone)
	return scanContact(row)
}

func (r *PgContactRepository) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	m := toContactModel(c)
	err = tx.QueryRow(ctx, contactInsertQuery, m.Name, m.Phone, m.BloodGroup, m.Lobby, m.Designation).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "insert contact")
	}
	return c, nil
}

func (r *PgContactRepository) Update(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	m := toContactModel(c)
	err = tx.QueryRow(ctx, contactUpdateQuery, m.ID, m.Name, m.Phone, m.BloodGroup, m.Lobby, m.Designation).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return contact.Contact{}, ErrContactNotFound
	}
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "update contact")
	}
	return c, nil
}

func (r *PgContactRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, contactDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, "delete contact")
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *PgContactRepository) List(ctx context.Context, params contact.FindParams) ([]contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := r.buildFilters(params)
	query := contactFindQuery + " WHERE " + strings.Join(where, " AND ")

	sortBy, ok := r.fieldMap[params.SortBy]
	if !ok {
		sortBy = "c.name"
	}
	direction := "ASC"
	if params.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

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
		return nil, errors.Wrap(err, "list contacts")
	}
	defer rows.Close()

	out := make([]contact.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PgContactRepository) Count(ctx context.Context, params contact.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := r.buildFilters(params)
	var count int64
	err = tx.QueryRow(ctx, contactCountQuery+" WHERE "+strings.Join(where, " AND "), args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "count contacts")
	}
	return count, nil
}

// DeleteAll clears the table. Only the replace-all ingestion path calls
// this, after explicit caller confirmation.
func (r *PgContactRepository) DeleteAll(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, contactDeleteAllQuery)
	return err
}

// InsertSkipConflicts bulk-inserts contacts, silently skipping phone
// collisions.
func (r *PgContactRepository) InsertSkipConflicts(ctx context.Context, records []contact.Contact) error {
	return r.sendBatch(ctx, records, contactInsertSkipQuery)
}

// UpsertBatch writes all records in one transaction; either every
// record lands or none do.
func (r *PgContactRepository) UpsertBatch(ctx context.Context, records []contact.Contact) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return r.sendBatch(txCtx, records, contactUpsertQuery)
	})
}

// Upsert writes one record keyed on phone.
func (r *PgContactRepository) Upsert(ctx context.Context, c contact.Contact) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	m := toContactModel(c)
	_, err = tx.Exec(ctx, contactUpsertQuery, m.Name, m.Phone, m.BloodGroup, m.Lobby, m.Designation)
	return err
}

func (r *PgContactRepository) sendBatch(ctx context.Context, records []contact.Contact, query string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, c := range records {
		m := toContactModel(c)
		batch.Queue(query, m.Name, m.Phone, m.BloodGroup, m.Lobby, m.Designation)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func toContactModel(c contact.Contact) models.Contact {
	return models.Contact{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		BloodGroup:  c.BloodGroup,
		Lobby:       c.Lobby,
		Designation: c.Designation,
	}
}

func scanContact(row pgx.Row) (contact.Contact, error) {
	var m models.Contact
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.BloodGroup, &m.Lobby, &m.Designation, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return contact.Contact{}, ErrContactNotFound
	}
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "scan contact")
	}
	return contact.Contact(m), nil
}
