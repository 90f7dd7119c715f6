package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greedhall/rules-engine/internal/models"
	"github.com/greedhall/rules-engine/internal/rules"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSave creates a new save record
func (r *PostgresRepository) CreateSave(ctx context.Context, s *models.Save) error {
	characterJSON, err := json.Marshal(s.Character)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	specialsJSON, err := json.Marshal(s.UsedSpecials)
	if err != nil {
		return fmt.Errorf("failed to marshal used specials: %w", err)
	}

	query := `
		INSERT INTO saves (id, campaign_name, battle_number, round_number, character, used_specials, battle_power, battle_defense, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.CampaignName,
		s.BattleNumber,
		s.RoundNumber,
		characterJSON,
		specialsJSON,
		s.BattlePower,
		s.BattleDefense,
		nullString(s.Notes),
		s.CreatedAt,
		s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create save: %w", err)
	}

	return nil
}

// GetSave retrieves a save by ID
func (r *PostgresRepository) GetSave(ctx context.Context, id string) (*models.Save, error) {
	query := `
		SELECT id, campaign_name, battle_number, round_number, character, used_specials, battle_power, battle_defense, notes, created_at, updated_at
		FROM saves
		WHERE id = $1
	`

	s, err := scanSave(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get save: %w", err)
	}

	return s, nil
}

// UpdateSave updates an existing save
func (r *PostgresRepository) UpdateSave(ctx context.Context, s *models.Save) error {
	characterJSON, err := json.Marshal(s.Character)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	specialsJSON, err := json.Marshal(s.UsedSpecials)
	if err != nil {
		return fmt.Errorf("failed to marshal used specials: %w", err)
	}

	query := `
		UPDATE saves
		SET campaign_name = $2, battle_number = $3, round_number = $4, character = $5, used_specials = $6, battle_power = $7, battle_defense = $8, notes = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.CampaignName,
		s.BattleNumber,
		s.RoundNumber,
		characterJSON,
		specialsJSON,
		s.BattlePower,
		s.BattleDefense,
		nullString(s.Notes),
		s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update save: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("save not found: %s", s.ID)
	}

	return nil
}

// DeleteSave deletes a save by ID
func (r *PostgresRepository) DeleteSave(ctx context.Context, id string) error {
	query := `DELETE FROM saves WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("save not found: %s", id)
	}

	return nil
}

// ListSaves returns saves ordered by most recently updated
func (r *PostgresRepository) ListSaves(ctx context.Context, limit, offset int) ([]*models.Save, error) {
	query := `
		SELECT id, campaign_name, battle_number, round_number, character, used_specials, battle_power, battle_defense, notes, created_at, updated_at
		FROM saves
		ORDER BY updated_at DESC
	`
	args := make([]interface{}, 0)
	argNum := 1

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
		argNum++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var saves []*models.Save

	for rows.Next() {
		s, err := scanSave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		saves = append(saves, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saves: %w", err)
	}

	return saves, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSave(row rowScanner) (*models.Save, error) {
	var s models.Save
	var notes sql.NullString
	var characterJSON, specialsJSON []byte

	err := row.Scan(
		&s.ID,
		&s.CampaignName,
		&s.BattleNumber,
		&s.RoundNumber,
		&characterJSON,
		&specialsJSON,
		&s.BattlePower,
		&s.BattleDefense,
		&notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Notes = notes.String

	if err := json.Unmarshal(characterJSON, &s.Character); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}

	if specialsJSON != nil {
		if err := json.Unmarshal(specialsJSON, &s.UsedSpecials); err != nil {
			return nil, fmt.Errorf("failed to unmarshal used specials: %w", err)
		}
	}

	return &s, nil
}

// StoreCatalogSnapshot persists the catalog as the newest snapshot.
// Snapshots are append-only; restore reads the latest one.
func (r *PostgresRepository) StoreCatalogSnapshot(ctx context.Context, catalog *rules.Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	query := `
		INSERT INTO catalog_snapshots (last_modified, data, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := r.pool.Exec(ctx, query, catalog.LastModified, data); err != nil {
		return fmt.Errorf("failed to store catalog snapshot: %w", err)
	}

	return nil
}

// LatestCatalogSnapshot returns the most recent catalog snapshot, or
// nil when none has been stored yet.
func (r *PostgresRepository) LatestCatalogSnapshot(ctx context.Context) (*rules.Catalog, error) {
	query := `
		SELECT data
		FROM catalog_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`

	var data []byte
	err := r.pool.QueryRow(ctx, query).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No snapshot yet
		}
		return nil, fmt.Errorf("failed to get catalog snapshot: %w", err)
	}

	var catalog rules.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog snapshot: %w", err)
	}

	return &catalog, nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// UpsertBootstrapClient creates or reactivates the bootstrap API client
// so a fresh deployment can authenticate without manual SQL.
func (r *PostgresRepository) UpsertBootstrapClient(ctx context.Context, name, apiKey string, permissions []string) error {
	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO api_clients (name, api_key, is_active, permissions, created_at)
		VALUES ($1, $2, TRUE, $3, NOW())
		ON CONFLICT (api_key) DO UPDATE
		SET name = EXCLUDED.name, is_active = TRUE, permissions = EXCLUDED.permissions
	`

	if _, err := r.pool.Exec(ctx, query, name, apiKey, permissionsJSON); err != nil {
		return fmt.Errorf("failed to upsert bootstrap client: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
