package sqlite

import (
	"context"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
)

// SettingsRepository stores the school_settings singleton (id = 1).
type SettingsRepository struct {
	pool *ConnectionPool
}

// NewSettingsRepository creates a new SQLite settings repository.
func NewSettingsRepository(pool *ConnectionPool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetSettings returns the settings row, or ErrNotFound before the defaults
// migration has run.
func (r *SettingsRepository) GetSettings(ctx context.Context) (persistence.Settings, error) {
	var (
		settings                                       persistence.Settings
		operatingDays, classBlocks, breaks, tags, when string
	)
	err := r.pool.DB().QueryRowContext(ctx, `
		SELECT start_time, end_time, class_block_minutes, operating_days, class_blocks, breaks, resource_tags, updated_at
		FROM school_settings WHERE id = 1`,
	).Scan(
		&settings.StartTime,
		&settings.EndTime,
		&settings.ClassBlockMinutes,
		&operatingDays,
		&classBlocks,
		&breaks,
		&tags,
		&when,
	)
	if err != nil {
		return persistence.Settings{}, mapError(err)
	}

	if settings.OperatingDays, err = decodeList[int]("operating_days", operatingDays); err != nil {
		return persistence.Settings{}, err
	}
	if settings.ClassBlocks, err = decodeList[persistence.TimeBlock]("class_blocks", classBlocks); err != nil {
		return persistence.Settings{}, err
	}
	if settings.Breaks, err = decodeList[persistence.TimeBlock]("breaks", breaks); err != nil {
		return persistence.Settings{}, err
	}
	if settings.ResourceTags, err = decodeList[string]("resource_tags", tags); err != nil {
		return persistence.Settings{}, err
	}
	if settings.UpdatedAt, err = parseTime("updated_at", when); err != nil {
		return persistence.Settings{}, err
	}
	return settings, nil
}

// SaveSettings inserts or replaces the singleton row.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings persistence.Settings) error {
	if settings.ClassBlockMinutes <= 0 {
		return persistence.ErrConstraintViolation
	}

	operatingDays, err := encodeList(settings.OperatingDays)
	if err != nil {
		return err
	}
	classBlocks, err := encodeList(settings.ClassBlocks)
	if err != nil {
		return err
	}
	breaks, err := encodeList(settings.Breaks)
	if err != nil {
		return err
	}
	tags, err := encodeList(settings.ResourceTags)
	if err != nil {
		return err
	}

	_, err = r.pool.DB().ExecContext(ctx, `
		INSERT INTO school_settings (id, start_time, end_time, class_block_minutes, operating_days, class_blocks, breaks, resource_tags, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			class_block_minutes = excluded.class_block_minutes,
			operating_days = excluded.operating_days,
			class_blocks = excluded.class_blocks,
			breaks = excluded.breaks,
			resource_tags = excluded.resource_tags,
			updated_at = excluded.updated_at`,
		settings.StartTime,
		settings.EndTime,
		settings.ClassBlockMinutes,
		operatingDays,
		classBlocks,
		breaks,
		tags,
		formatTime(settings.UpdatedAt),
	)
	return mapError(err)
}
