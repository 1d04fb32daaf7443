package models

import (
	"time"

	"github.com/google/uuid"
)

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

type Document struct {
	ID         uuid.UUID
	Title      string
	Link       string
	UploadedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Visit struct {
	Page  string
	Day   time.Time
	Count int64
}
