package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/phonedeck/phonedeck/modules/directory/domain/document"
)

type DocumentService struct {
	repo document.Repository
}

func NewDocumentService(repo document.Repository) *DocumentService {
	return &DocumentService{repo: repo}
}

func (s *DocumentService) GetByID(ctx context.Context, id uuid.UUID) (document.Document, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DocumentService) Create(ctx context.Context, dto *document.CreateDTO) (document.Document, error) {
	return s.repo.Create(ctx, dto.ToEntity())
}

func (s *DocumentService) Update(ctx context.Context, id uuid.UUID, dto *document.CreateDTO) (document.Document, error) {
	entity := dto.ToEntity()
	entity.ID = id
	return s.repo.Update(ctx, entity)
}

func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *DocumentService) List(ctx context.Context, params document.FindParams) ([]document.Document, int64, error) {
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
