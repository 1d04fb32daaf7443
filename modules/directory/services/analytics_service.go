package services

import (
	"context"
	"time"

	"github.com/phonedeck/phonedeck/modules/directory/domain/contact"
	"github.com/phonedeck/phonedeck/modules/directory/domain/document"
	"github.com/phonedeck/phonedeck/modules/directory/domain/visit"
)

// VisitSummary is the analytics payload: overall visit totals plus
// entity counts.
type VisitSummary struct {
	TotalVisits    int64        `json:"totalVisits"`
	ContactCount   int64        `json:"contactCount"`
	DocumentCount  int64        `json:"documentCount"`
	VisitsByPage   []PageVisits `json:"visitsByPage"`
	VisitsLastWeek []DayVisits  `json:"visitsLastWeek"`
}

type PageVisits struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

type DayVisits struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

type AnalyticsService struct {
	visits    visit.Repository
	contacts  contact.Repository
	documents document.Repository
}

func NewAnalyticsService(visits visit.Repository, contacts contact.Repository, documents document.Repository) *AnalyticsService {
	return &AnalyticsService{visits: visits, contacts: contacts, documents: documents}
}

// Track records one visit for the page. The store-side atomic increment
// keeps concurrent trackers correct without locks.
func (s *AnalyticsService) Track(ctx context.Context, page string) error {
	return s.visits.Record(ctx, page, time.Now())
}

func (s *AnalyticsService) Summary(ctx context.Context) (*VisitSummary, error) {
	total, err := s.visits.Total(ctx)
	if err != nil {
		return nil, err
	}
	contactCount, err := s.contacts.Count(ctx, contact.FindParams{})
	if err != nil {
		return nil, err
	}
	documentCount, err := s.documents.Count(ctx, document.FindParams{})
	if err != nil {
		return nil, err
	}
	byPage, err := s.visits.ByPage(ctx)
	if err != nil {
		return nil, err
	}
	byDay, err := s.visits.ByDay(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	summary := &VisitSummary{
		TotalVisits:   total,
		ContactCount:  contactCount,
		DocumentCount: documentCount,
	}
	for _, dc := range byPage {
		summary.VisitsByPage = append(summary.VisitsByPage, PageVisits{Page: dc.Page, Count: dc.Count})
	}
	for _, dc := range byDay {
		summary.VisitsLastWeek = append(summary.VisitsLastWeek, DayVisits{Day: dc.Day, Count: dc.Count})
	}
	return summary, nil
}
