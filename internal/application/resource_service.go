package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
)

// ResourceRepository captures the persistence operations needed by the resource service.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id string) (Resource, error)
	UpdateResource(ctx context.Context, resource Resource) (Resource, error)
	DeleteResource(ctx context.Context, id string) error
	ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, error)
	CountResources(ctx context.Context) (int, error)
}

// ImageStore keeps resource pictures and returns the URL they are served from.
type ImageStore interface {
	PutResourceImage(ctx context.Context, resourceID, contentType string, body io.Reader, size int64) (string, error)
}

// MaxResourceImageBytes bounds uploaded resource pictures.
const MaxResourceImageBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// UploadResourceImageParams wraps an image upload for a resource.
type UploadResourceImageParams struct {
	Principal   Principal
	ResourceID  string
	ContentType string
	Body        io.Reader
	Size        int64
}

// ResourceService orchestrates validation, authorization, and persistence for resources.
type ResourceService struct {
	resources   ResourceRepository
	settings    SettingsReader
	images      ImageStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResourceService constructs a resource service. settings supplies the tag
// vocabulary and images may be nil when uploads are disabled.
func NewResourceService(resources ResourceRepository, settings SettingsReader, images ImageStore, idGenerator func() string, now func() time.Time) *ResourceService {
	return NewResourceServiceWithLogger(resources, settings, images, idGenerator, now, nil)
}

// NewResourceServiceWithLogger constructs a resource service with a specified logger.
func NewResourceServiceWithLogger(resources ResourceRepository, settings SettingsReader, images ImageStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceService{
		resources:   resources,
		settings:    settings,
		images:      images,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// CreateResource validates input and persists a new resource for administrators.
func (s *ResourceService) CreateResource(ctx context.Context, params CreateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !CanMutateResource(params.Principal) {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	var input ResourceInput
	input, err = s.normalizeResourceInput(ctx, params.Input)
	if err != nil {
		return
	}

	now := s.now()
	resource, err = s.resources.CreateResource(ctx, Resource{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Type:      input.Type,
		Location:  input.Location,
		Capacity:  input.Capacity,
		Equipment: input.Equipment,
		Tags:      input.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}
	return
}

// UpdateResource validates input and updates an existing resource for administrators.
func (s *ResourceService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if !CanMutateResource(params.Principal) {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource updated")
	}()

	var existing Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	var input ResourceInput
	input, err = s.normalizeResourceInput(ctx, params.Input)
	if err != nil {
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Type = input.Type
	updated.Location = input.Location
	updated.Capacity = input.Capacity
	updated.Equipment = input.Equipment
	updated.Tags = input.Tags
	updated.UpdatedAt = s.now()

	resource, err = s.resources.UpdateResource(ctx, updated)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}
	return
}

// DeleteResource removes a resource and, with it, every reservation of it.
func (s *ResourceService) DeleteResource(ctx context.Context, principal Principal, resourceID string) error {
	if s == nil {
		return fmt.Errorf("ResourceService is nil")
	}
	if !CanMutateResource(principal) {
		return ErrUnauthorized
	}
	if s.resources == nil {
		return fmt.Errorf("resource repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteResource",
		"principal_id", principal.UserID,
		"resource_id", resourceID,
	)

	if err := s.resources.DeleteResource(ctx, resourceID); err != nil {
		err = mapResourceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete resource", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "resource deleted")
	return nil
}

// GetResource returns one resource to any authenticated user.
func (s *ResourceService) GetResource(ctx context.Context, resourceID string) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}
	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return Resource{}, mapResourceRepoError(err)
	}
	return resource, nil
}

// ListResources returns the catalog, optionally narrowed by type or tag.
func (s *ResourceService) ListResources(ctx context.Context, filter ResourceFilter) (resources []Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if s.resources == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListResources")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list resources", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(resources)).DebugContext(ctx, "resources listed")
	}()

	filter.Type = strings.TrimSpace(filter.Type)
	filter.Tag = NormalizeTag(filter.Tag)
	resources, err = s.resources.ListResources(ctx, filter)
	return
}

// UploadImage stores a picture for a resource and records its URL.
func (s *ResourceService) UploadImage(ctx context.Context, params UploadResourceImageParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UploadImage",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
		"content_type", params.ContentType,
		"size", params.Size,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upload resource image", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource image uploaded")
	}()

	if !CanMutateResource(params.Principal) {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}
	if s.images == nil {
		err = fieldError("image", "O envio de imagens não está habilitado.")
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(params.ContentType))
	vErr := &ValidationError{}
	if !allowedImageTypes[contentType] {
		vErr.add("image", "Formato de imagem não suportado. Use PNG, JPEG ou WebP.")
	}
	if params.Size <= 0 || params.Size > MaxResourceImageBytes {
		vErr.add("image", "A imagem deve ter até 5 MB.")
	}
	if params.Body == nil {
		vErr.add("image", "Envie uma imagem.")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	var imageURL string
	imageURL, err = s.images.PutResourceImage(ctx, existing.ID, contentType, params.Body, params.Size)
	if err != nil {
		err = fmt.Errorf("store image: %w", err)
		return
	}

	existing.ImageURL = &imageURL
	existing.UpdatedAt = s.now()
	resource, err = s.resources.UpdateResource(ctx, existing)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}
	return
}

func (s *ResourceService) normalizeResourceInput(ctx context.Context, input ResourceInput) (ResourceInput, error) {
	out := ResourceInput{
		Name:      strings.Join(strings.Fields(input.Name), " "),
		Type:      strings.TrimSpace(input.Type),
		Location:  strings.TrimSpace(input.Location),
		Capacity:  input.Capacity,
		Equipment: normalizeEquipment(input.Equipment),
		Tags:      NormalizeTags(input.Tags),
	}

	vErr := &ValidationError{}
	if out.Name == "" {
		vErr.add("name", "Informe o nome do recurso.")
	}
	if out.Type == "" {
		vErr.add("type", "Informe o tipo do recurso.")
	}
	if out.Location == "" {
		vErr.add("location", "Informe a localização.")
	}
	if out.Capacity < 1 {
		vErr.add("capacity", "A capacidade deve ser de pelo menos 1.")
	}

	if len(out.Tags) > 0 && s.settings != nil {
		settings, err := s.settings.GetSettings(ctx)
		if err != nil && !isNotFound(err) {
			return ResourceInput{}, err
		}
		if len(settings.ResourceTags) > 0 {
			matched, unknown := matchVocabulary(out.Tags, settings.ResourceTags)
			if len(unknown) > 0 {
				vErr.add("tags", "Etiquetas não cadastradas: "+strings.Join(unknown, ", "))
			}
			out.Tags = matched
		}
	}

	if vErr.HasErrors() {
		return ResourceInput{}, vErr
	}
	return out, nil
}

// normalizeEquipment trims entries and drops blanks, keeping order.
func normalizeEquipment(items []string) []string {
	var out []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mapResourceRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isNotFound(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("capacity", "A capacidade deve ser de pelo menos 1.")
	}
	return err
}
