package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// MediaHandler handles standalone media uploads
type MediaHandler struct {
	BaseHandler
	mediaService *appproc.MediaService
	uploads      UploadReader
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaService *appproc.MediaService, uploads UploadReader) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, uploads: uploads}
}

// UploadEvidence godoc
// @ID           uploadDamageEvidence
// @Summary      Upload damage evidence
// @Description  Stores a photo or video of damaged stock. The returned reference goes into a restock item's evidence field.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image or video"
// @Success      201 {object} APIResponse[shared.MediaRef]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /media/evidence [post]
func (h *MediaHandler) UploadEvidence(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	file, err := h.uploads.File(c, "file")
	if errors.Is(err, errNoFile) {
		h.Error(c, shared.CodeValidation, "file is required")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ref, err := h.mediaService.UploadEvidence(c.Request.Context(), actor, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Evidence uploaded", ref)
}
