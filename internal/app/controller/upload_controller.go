package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
	"github.com/tapreview/tapreview-backend/internal/storage"
)

type UploadController struct {
	storage *storage.S3Storage
}

func NewUploadController(storage *storage.S3Storage) *UploadController {
	return &UploadController{storage: storage}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"`
}

// GeneratePresignedURL returns a presigned PUT URL for uploading tag artwork
// or a business logo directly to S3
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename and content_type are required")
		return
	}

	allowedTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/svg+xml",
		"image/webp",
		"application/pdf",
	}
	if err := ctrl.storage.ValidateContentType(req.ContentType, allowedTypes); err != nil {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "only images and PDF artwork are allowed")
		return
	}

	folder := req.Folder
	switch folder {
	case storage.FolderTagArtwork, storage.FolderLogos:
	case "":
		folder = storage.FolderLogos
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "unknown upload folder")
		return
	}

	response, err := ctrl.storage.GeneratePresignedURL(req.Filename, req.ContentType, folder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
			"folder":       folder,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, response)
}
