// Package service is the layer every caller goes through: it validates each
// externally supplied field and only then hands the record to a repository.
package service

import (
	"context"
	"log/slog"

	"github.com/Drakz0n/CommFlow/internal/model"
	"github.com/Drakz0n/CommFlow/internal/repository"
	"github.com/Drakz0n/CommFlow/internal/validation"
)

// ClientService validates and persists clients.
type ClientService struct {
	repo   *repository.ClientRepository
	logger *slog.Logger
}

// NewClientService creates a ClientService.
func NewClientService(repo *repository.ClientRepository, logger *slog.Logger) *ClientService {
	return &ClientService{repo: repo, logger: logger}
}

// Create saves c, replacing any client with the same id.
func (s *ClientService) Create(ctx context.Context, c *model.Client) error {
	if err := validation.Client(c); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}
	s.logger.Info("client saved", "id", c.ID)
	return nil
}

// Get returns the client or nil when no client has that id.
func (s *ClientService) Get(ctx context.Context, id string) (*model.Client, error) {
	if err := validation.ID(id); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// List returns every readable client.
func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	return s.repo.FindAll(ctx)
}

// Delete removes the client. Unknown ids are not an error.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := validation.ID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", "id", id)
	return nil
}
