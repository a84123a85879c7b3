package catalog

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/model"
	"github.com/sahilchouksey/campus-timeline/services/storage"
	"github.com/sahilchouksey/campus-timeline/services/timeline"
	"github.com/sahilchouksey/campus-timeline/utils/response"
	"github.com/sahilchouksey/campus-timeline/utils/validation"
)

// FileLinker turns a material's stored file reference into a download URL.
type FileLinker interface {
	MaterialURL(m model.Material, ttl time.Duration) (string, error)
}

// CatalogHandler serves module and material browsing. It does not depend
// on the caller's enrollments.
type CatalogHandler struct {
	service     *timeline.Service
	linker      FileLinker
	downloadTTL time.Duration
	validator   *validation.Validator
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *timeline.Service, linker FileLinker, downloadTTL time.Duration) *CatalogHandler {
	return &CatalogHandler{
		service:     service,
		linker:      linker,
		downloadTTL: downloadTTL,
		validator:   validation.NewValidator(),
	}
}

// idParam is a path id as sent by clients.
type idParam struct {
	ID string `validate:"required,max=191"`
}

func (h *CatalogHandler) pathID(c *fiber.Ctx, name string) (string, error) {
	p := idParam{ID: c.Params(name)}
	if err := h.validator.ValidateStruct(p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// ListModules handles GET /api/v1/courses/:course_id/modules
func (h *CatalogHandler) ListModules(c *fiber.Ctx) error {
	courseID, err := h.pathID(c, "course_id")
	if err != nil {
		return response.ValidationError(c, err)
	}
	listing := h.service.ModulesForCourse(c.UserContext(), courseID)
	if listing.UsedFallback {
		return response.SuccessWithMessage(c, "No modules are linked to this course; showing all modules", listing)
	}
	return response.Degraded(c, listing, len(listing.Notices) > 0)
}

// ListMaterials handles GET /api/v1/modules/:module_id/materials
func (h *CatalogHandler) ListMaterials(c *fiber.Ctx) error {
	moduleID, err := h.pathID(c, "module_id")
	if err != nil {
		return response.ValidationError(c, err)
	}
	listing := h.service.MaterialsForModule(c.UserContext(), moduleID)
	return response.Degraded(c, listing, len(listing.Notices) > 0)
}

// DownloadResponse is the body of a successful download link request
type DownloadResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// GetDownloadURL handles GET /api/v1/materials/:id/download
func (h *CatalogHandler) GetDownloadURL(c *fiber.Ctx) error {
	id, err := h.pathID(c, "id")
	if err != nil {
		return response.ValidationError(c, err)
	}

	material, err := h.service.Material(c.UserContext(), id)
	if errors.Is(err, database.ErrNotFound) {
		return response.NotFound(c, "Material not found")
	}
	if err != nil {
		return response.ServiceUnavailable(c, "Could not load material")
	}

	url, err := h.linker.MaterialURL(material, h.downloadTTL)
	if errors.Is(err, storage.ErrNoStorage) {
		return response.ServiceUnavailable(c, "File storage is not configured")
	}
	if err != nil {
		return response.NotFound(c, "Material has no downloadable file")
	}

	return response.Success(c, DownloadResponse{
		URL:       url,
		FileName:  material.FileName,
		FileType:  material.FileType,
		ExpiresIn: int(h.downloadTTL.Seconds()),
	})
}
