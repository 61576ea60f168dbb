package service

import (
	"context"
	"log/slog"

	"github.com/Drakz0n/CommFlow/internal/model"
	"github.com/Drakz0n/CommFlow/internal/repository"
	"github.com/Drakz0n/CommFlow/internal/validation"
)

// CommissionService validates and persists commissions.
type CommissionService struct {
	repo   *repository.CommissionRepository
	logger *slog.Logger
}

// NewCommissionService creates a CommissionService.
func NewCommissionService(repo *repository.CommissionRepository, logger *slog.Logger) *CommissionService {
	return &CommissionService{repo: repo, logger: logger}
}

// Create saves c at the location derived from its status and client name.
// Empty image entries are dropped before validation.
func (s *CommissionService) Create(ctx context.Context, c *model.Commission) error {
	images := make([]string, 0, len(c.Images))
	for _, img := range c.Images {
		if img != "" {
			images = append(images, img)
		}
	}
	c.Images = images
	if err := validation.Commission(c); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}
	s.logger.Info("commission saved",
		"id", c.ID,
		"client_id", c.ClientID,
		"status", c.Status,
		"images", len(c.Images),
	)
	return nil
}

// ListByStatus returns every commission filed under status's folder.
func (s *CommissionService) ListByStatus(ctx context.Context, status model.Status) ([]model.Commission, error) {
	if err := validation.Status(status); err != nil {
		return nil, err
	}
	return s.repo.FindByStatus(ctx, status)
}

// Move changes the status of commission id from one status to another.
func (s *CommissionService) Move(ctx context.Context, id string, from, to model.Status) error {
	if err := validation.ID(id); err != nil {
		return err
	}
	if err := validation.Status(from); err != nil {
		return err
	}
	if err := validation.Status(to); err != nil {
		return err
	}
	if err := s.repo.Move(ctx, id, from, to); err != nil {
		return err
	}
	s.logger.Info("commission moved", "id", id, "from", from, "to", to)
	return nil
}

// Delete removes commission id from status's folder.
func (s *CommissionService) Delete(ctx context.Context, id string, status model.Status) error {
	if err := validation.ID(id); err != nil {
		return err
	}
	if err := validation.Status(status); err != nil {
		return err
	}
	if err := s.repo.DeleteByIDAndStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("commission deleted", "id", id, "status", status)
	return nil
}

// Duplicates reports ids stored in more than one file.
func (s *CommissionService) Duplicates(ctx context.Context) ([]repository.Duplicate, error) {
	return s.repo.FindDuplicates(ctx)
}
