package contact

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// Contact is a directory entry. Phone is the natural key: it is globally
// unique in the store and drives upsert semantics during bulk ingestion.
type Contact struct {
	ID          int64
	Name        string
	Phone       string
	BloodGroup  *string
	Lobby       *string
	Designation *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Field identifies a sortable/filterable column.
type Field int

const (
	NameField Field = iota
	PhoneField
	LobbyField
	BloodGroupField
	CreatedAtField
)

type FindParams struct {
	Search     string // case-insensitive substring match on name
	Lobby      string
	BloodGroup string
	Limit      int
	Offset     int
	SortBy     Field
	SortDesc   bool
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (Contact, error)
	GetByPhone(ctx context.Context, phone string) (Contact, error)
	Create(ctx context.Context, c Contact) (Contact, error)
	Update(ctx context.Context, c Contact) (Contact, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params FindParams) ([]Contact, error)
	Count(ctx context.Context, params FindParams) (int64, error)
}

// CoercePhone turns any phone spelling into a clean digit string.
// Scientific notation (a spreadsheet storing the number as a float) is
// rounded and expanded first; a leading "+" survives, every other
// non-digit is stripped. Exact up to 15 digits, which is the domain's
// length bound anyway.
func CoercePhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "eE.") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			s = strconv.FormatInt(int64(math.Round(f)), 10)
		}
	}
	var b strings.Builder
	for i, r := range s {
		if i == 0 && r == '+' {
			b.WriteRune('+')
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
