package storage

import (
	"context"

	"github.com/greedhall/rules-engine/internal/models"
	"github.com/greedhall/rules-engine/internal/rules"
)

// Repository defines the interface for save and catalog persistence
type Repository interface {
	// Saves
	CreateSave(ctx context.Context, s *models.Save) error
	GetSave(ctx context.Context, id string) (*models.Save, error)
	UpdateSave(ctx context.Context, s *models.Save) error
	DeleteSave(ctx context.Context, id string) error
	ListSaves(ctx context.Context, limit, offset int) ([]*models.Save, error)

	// Catalog snapshots
	StoreCatalogSnapshot(ctx context.Context, catalog *rules.Catalog) error
	LatestCatalogSnapshot(ctx context.Context) (*rules.Catalog, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error
	UpsertBootstrapClient(ctx context.Context, name, apiKey string, permissions []string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
