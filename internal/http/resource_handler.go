package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
)

type resourceService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error)
	DeleteResource(ctx context.Context, principal application.Principal, resourceID string) error
	GetResource(ctx context.Context, resourceID string) (application.Resource, error)
	ListResources(ctx context.Context, filter application.ResourceFilter) ([]application.Resource, error)
	UploadImage(ctx context.Context, params application.UploadResourceImageParams) (application.Resource, error)
}

// ResourceHandler serves the resource catalog.
type ResourceHandler struct {
	service   resourceService
	responder responder
	logger    *slog.Logger
}

func NewResourceHandler(service resourceService, logger *slog.Logger) *ResourceHandler {
	base := defaultLogger(logger)
	return &ResourceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ResourceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ResourceHandler", operation, attrs...)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode resource request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")
	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "resource creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resource_id", resource.ID).InfoContext(r.Context(), "resource created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, "Recurso criado com sucesso.", toResourceDTO(resource))
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "resource_id", resourceID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode resource update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "resource_id", resourceID)
	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "resource update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, "Recurso atualizado com sucesso.", toResourceDTO(resource))
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "resource_id", resourceID)
	if err := h.service.DeleteResource(r.Context(), principal, resourceID); err != nil {
		logger.WarnContext(r.Context(), "resource delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource deleted")
	h.responder.writeData(r.Context(), w, http.StatusOK, "Recurso excluído com sucesso.", nil)
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resource, err := h.service.GetResource(r.Context(), r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", toResourceDTO(resource))
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	resources, err := h.service.ListResources(r.Context(), application.ResourceFilter{
		Type: query.Get("type"),
		Tag:  query.Get("tag"),
	})
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "resource list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", out)
}

// UploadImage stores the request body as the resource picture. The body is
// the raw image and Content-Type names its format.
func (h *ResourceHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UploadImage", "resource_id", resourceID)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, application.MaxResourceImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: map[string]string{
				"image": "A imagem deve ter até 5 MB.",
			}})
			return
		}
		logger.WarnContext(r.Context(), "failed to read image body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	resource, err := h.service.UploadImage(r.Context(), application.UploadResourceImageParams{
		Principal:   principal,
		ResourceID:  resourceID,
		ContentType: r.Header.Get("Content-Type"),
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "image upload failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource image stored", "size", len(data))
	h.responder.writeData(r.Context(), w, http.StatusOK, "Imagem enviada com sucesso.", toResourceDTO(resource))
}

type resourceRequest struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Location  string   `json:"location"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
	Tags      []string `json:"tags"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Name:      r.Name,
		Type:      r.Type,
		Location:  r.Location,
		Capacity:  r.Capacity,
		Equipment: r.Equipment,
		Tags:      r.Tags,
	}
}

type resourceDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Location  string   `json:"location"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
	Tags      []string `json:"tags"`
	ImageURL  *string  `json:"imageUrl,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func toResourceDTO(resource application.Resource) resourceDTO {
	dto := resourceDTO{
		ID:        resource.ID,
		Name:      resource.Name,
		Type:      resource.Type,
		Location:  resource.Location,
		Capacity:  resource.Capacity,
		Equipment: resource.Equipment,
		Tags:      resource.Tags,
		ImageURL:  resource.ImageURL,
		CreatedAt: formatTimestamp(resource.CreatedAt),
		UpdatedAt: formatTimestamp(resource.UpdatedAt),
	}
	if dto.Equipment == nil {
		dto.Equipment = []string{}
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	return dto
}
