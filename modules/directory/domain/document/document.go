package document

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phonedeck/phonedeck/pkg/constants"
)

// Document is a stored link to an external file. Identity is a generated
// ID; title/link carry no store-level uniqueness, but bulk ingestion
// still deduplicates identical title+link pairs within one submitted
// file since those are almost certainly accidental repeats.
type Document struct {
	ID         uuid.UUID
	Title      string
	Link       string
	UploadedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BatchKey is the within-batch dedup key.
func (d Document) BatchKey() string {
	return d.Title + "\x00" + d.Link
}

type FindParams struct {
	Search string // case-insensitive substring match on title
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Document, error)
	Create(ctx context.Context, d Document) (Document, error)
	Update(ctx context.Context, d Document) (Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params FindParams) ([]Document, error)
	Count(ctx context.Context, params FindParams) (int64, error)
}

type CreateDTO struct {
	Title      string `json:"title" validate:"required,max=500"`
	Link       string `json:"link" validate:"required,url"`
	UploadedBy string `json:"uploadedBy" validate:"omitempty,max=255"`
}

var fieldNames = map[string]string{
	"Title":      "title",
	"Link":       "link",
	"UploadedBy": "uploadedBy",
}

func FieldName(structField string) string {
	if name, ok := fieldNames[structField]; ok {
		return name
	}
	return structField
}

func (d *CreateDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Link = strings.TrimSpace(d.Link)
	d.UploadedBy = strings.TrimSpace(d.UploadedBy)
}

func (d *CreateDTO) Ok() (validator.ValidationErrors, bool) {
	d.Normalize()
	err := constants.Validate.Struct(d)
	if err == nil {
		return nil, true
	}
	return err.(validator.ValidationErrors), false
}

func (d *CreateDTO) ToEntity() Document {
	var uploadedBy *string
	if d.UploadedBy != "" {
		uploadedBy = &d.UploadedBy
	}
	return Document{
		ID:         uuid.New(),
		Title:      d.Title,
		Link:       d.Link,
		UploadedBy: uploadedBy,
	}
}
