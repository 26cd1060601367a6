package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mrpdigital/office-portal/internal/remote"
)

// Settings keys for the remote endpoint overrides.
const (
	keyRemoteScriptURL = "remote_script_url"
	keyRemoteStoreID   = "remote_store_id"
	keyRemoteArchiveID = "remote_archive_id"
)

// SettingsRepository persists runtime configuration overrides and
// implements remote.ConfigSource with per-key precedence: stored
// override first, compiled-in fallback otherwise. Clearing an override
// (empty value) falls back.
type SettingsRepository struct {
	db       *DB
	fallback remote.Config
}

// NewSettingsRepository creates a SettingsRepository over the given
// compiled defaults.
func NewSettingsRepository(db *DB, fallback remote.Config) *SettingsRepository {
	return &SettingsRepository{db: db, fallback: fallback}
}

// Remote resolves the effective remote configuration.
func (r *SettingsRepository) Remote(ctx context.Context) (remote.Config, error) {
	cfg := r.fallback

	overrides := map[string]*string{
		keyRemoteScriptURL: &cfg.ScriptURL,
		keyRemoteStoreID:   &cfg.StoreID,
		keyRemoteArchiveID: &cfg.ArchiveID,
	}
	for key, dst := range overrides {
		value, err := r.get(ctx, key)
		if err != nil {
			return remote.Config{}, err
		}
		if value != "" {
			*dst = value
		}
	}
	return cfg, nil
}

// SetRemote stores endpoint overrides. An empty field clears the
// override so the compiled default applies again.
func (r *SettingsRepository) SetRemote(ctx context.Context, overrides remote.Config) error {
	values := map[string]string{
		keyRemoteScriptURL: overrides.ScriptURL,
		keyRemoteStoreID:   overrides.StoreID,
		keyRemoteArchiveID: overrides.ArchiveID,
	}
	for key, value := range values {
		if value == "" {
			if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to clear setting %s: %w", key, err)
			}
			continue
		}
		query := `INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`
		if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to store setting %s: %w", key, err)
		}
	}
	return nil
}

// Overrides returns only the stored overrides, without fallbacks.
// The admin screen shows these next to the compiled defaults.
func (r *SettingsRepository) Overrides(ctx context.Context) (remote.Config, error) {
	var cfg remote.Config
	var err error
	if cfg.ScriptURL, err = r.get(ctx, keyRemoteScriptURL); err != nil {
		return remote.Config{}, err
	}
	if cfg.StoreID, err = r.get(ctx, keyRemoteStoreID); err != nil {
		return remote.Config{}, err
	}
	if cfg.ArchiveID, err = r.get(ctx, keyRemoteArchiveID); err != nil {
		return remote.Config{}, err
	}
	return cfg, nil
}

func (r *SettingsRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}
