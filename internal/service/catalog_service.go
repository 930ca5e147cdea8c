package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/concierge_slots/internal/model"
	"go.uber.org/zap"
)

// ExperienceInput запись каталога, которую синхронизирует сервис каталога
type ExperienceInput struct {
	Name                    string `json:"name" validate:"required,max=200"`
	DurationMinutes         int    `json:"duration_minutes" validate:"required,min=1,max=1440"`
	IsActive                bool   `json:"is_active"`
	RequiresBookingApproval bool   `json:"requires_booking_approval"`
}

// CatalogService локальное зеркало каталога впечатлений: длительность и флаг продажи
type CatalogService struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewCatalogService(catalog Catalog, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger}
}

// SyncExperience создаёт или обновляет впечатление в зеркале
func (s *CatalogService) SyncExperience(ctx context.Context, id string, in ExperienceInput) (*model.Experience, error) {
	if id == "" {
		return nil, validationf("experience id is required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	experience := &model.Experience{
		ID:                      id,
		Name:                    in.Name,
		DurationMinutes:         in.DurationMinutes,
		IsActive:                in.IsActive,
		RequiresBookingApproval: in.RequiresBookingApproval,
	}
	if err := s.catalog.UpsertExperience(ctx, experience); err != nil {
		return nil, fmt.Errorf("sync experience: %w", err)
	}

	s.logger.Info("Experience synced",
		zap.String("experience_id", id),
		zap.Int("duration_minutes", in.DurationMinutes),
		zap.Bool("active", in.IsActive),
	)
	return experience, nil
}

func (s *CatalogService) GetExperience(ctx context.Context, id string) (*model.Experience, error) {
	experience, err := s.catalog.GetExperience(ctx, id)
	if err != nil {
		return nil, err
	}
	if experience == nil {
		return nil, notFound("experience", id)
	}
	return experience, nil
}

func (s *CatalogService) ListExperiences(ctx context.Context) ([]*model.Experience, error) {
	return s.catalog.ListExperiences(ctx)
}
