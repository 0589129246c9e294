package service

import (
	"context"
	"fmt"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/models"
	"writerid-portal/internal/repository"

	"github.com/google/uuid"
)

// DashboardService aggregates per-user counts.
type DashboardService struct {
	uow *repository.UnitOfWork
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(uow *repository.UnitOfWork) *DashboardService {
	return &DashboardService{uow: uow}
}

// Stats counts the owner's active tasks, datasets and models.
func (s *DashboardService) Stats(ctx context.Context, owner uuid.UUID) (*dto.DashboardStats, error) {
	var (
		stats dto.DashboardStats
		err   error
	)
	if stats.TotalTasks, err = s.uow.Tasks.Count(ctx, repository.OwnedBy(owner)); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	if stats.CompletedTasks, err = s.uow.Tasks.Count(ctx, repository.OwnedBy(owner), repository.WithStatus(models.StatusCompleted)); err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}
	if stats.TotalDatasets, err = s.uow.Datasets.Count(ctx, repository.OwnedBy(owner)); err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}
	if stats.TotalModels, err = s.uow.Models.Count(ctx, repository.OwnedBy(owner)); err != nil {
		return nil, fmt.Errorf("count models: %w", err)
	}
	return &stats, nil
}
