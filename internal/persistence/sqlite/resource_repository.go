package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository using SQLite.
type ResourceRepository struct {
	pool *ConnectionPool
}

// NewResourceRepository creates a new SQLite resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

const resourceColumns = `id, name, type, location, capacity, equipment, tags, image_url, created_at, updated_at`

// CreateResource inserts a new resource.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" || resource.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	equipment, tags, err := encodeResourceLists(resource)
	if err != nil {
		return err
	}

	_, err = r.pool.DB().ExecContext(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resource.ID,
		resource.Name,
		resource.Type,
		resource.Location,
		resource.Capacity,
		equipment,
		tags,
		nullableString(resource.ImageURL),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	return mapError(err)
}

// UpdateResource replaces every mutable column of an existing resource.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrNotFound
	}
	if resource.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	equipment, tags, err := encodeResourceLists(resource)
	if err != nil {
		return err
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE resources
		SET name = ?, type = ?, location = ?, capacity = ?, equipment = ?, tags = ?, image_url = ?, updated_at = ?
		WHERE id = ?`,
		resource.Name,
		resource.Type,
		resource.Location,
		resource.Capacity,
		equipment,
		tags,
		nullableString(resource.ImageURL),
		formatTime(resource.UpdatedAt),
		resource.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetResource retrieves a resource by ID.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	return scanResource(row)
}

// ListResources returns resources ordered by name then ID.
func (r *ResourceRepository) ListResources(ctx context.Context, filter persistence.ResourceFilter) ([]persistence.Resource, error) {
	var (
		clauses []string
		args    []any
	)
	if t := strings.TrimSpace(filter.Type); t != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, t)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(resources.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}

	query := `SELECT ` + resourceColumns + ` FROM resources`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resources, nil
}

// DeleteResource removes a resource; its reservations go with it through
// ON DELETE CASCADE.
func (r *ResourceRepository) DeleteResource(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// CountResources returns the number of resources.
func (r *ResourceRepository) CountResources(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func encodeResourceLists(resource persistence.Resource) (string, string, error) {
	equipment, err := encodeList(resource.Equipment)
	if err != nil {
		return "", "", err
	}
	tags, err := encodeList(resource.Tags)
	if err != nil {
		return "", "", err
	}
	return equipment, tags, nil
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var (
		resource             persistence.Resource
		equipment, tags      string
		imageURL             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Type,
		&resource.Location,
		&resource.Capacity,
		&equipment,
		&tags,
		&imageURL,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Resource{}, mapError(err)
	}

	var err error
	if resource.Equipment, err = decodeList[string]("equipment", equipment); err != nil {
		return persistence.Resource{}, err
	}
	if resource.Tags, err = decodeList[string]("tags", tags); err != nil {
		return persistence.Resource{}, err
	}
	resource.ImageURL = stringPtr(imageURL)
	if resource.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}
