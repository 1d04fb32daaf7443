package services

import (
	"context"

	"github.com/phonedeck/phonedeck/modules/directory/domain/contact"
)

type ContactService struct {
	repo contact.Repository
}

func NewContactService(repo contact.Repository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) GetByPhone(ctx context.Context, phone string) (contact.Contact, error) {
	return s.repo.GetByPhone(ctx, contact.CoercePhone(phone))
}

func (s *ContactService) Create(ctx context.Context, dto *contact.CreateDTO) (contact.Contact, error) {
	return s.repo.Create(ctx, dto.ToEntity())
}

func (s *ContactService) Update(ctx context.Context, id int64, dto *contact.CreateDTO) (contact.Contact, error) {
	entity := dto.ToEntity()
	entity.ID = id
	return s.repo.Update(ctx, entity)
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *ContactService) List(ctx context.Context, params contact.FindParams) ([]contact.Contact, int64, error) {
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
