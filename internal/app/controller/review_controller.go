package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type ReviewController struct {
	reviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

type CreateReviewRequest struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating" binding:"required"`
	Content    string `json:"content"`
	Source     string `json:"source"`
}

// Create records a review from a tag scan. This is the public endpoint a
// customer's phone hits, no authentication.
// POST /api/v1/public/businesses/:id/reviews
func (ctrl *ReviewController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "rating is required")
		return
	}

	source := req.Source
	if source == "" {
		source = "qr"
	}

	review, err := ctrl.reviewService.CreateReview(&model.Review{
		BusinessID: id,
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Content:    req.Content,
		Source:     source,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "rating must be between 1 and 5")
		case errors.Is(err, service.ErrBusinessNotFound):
			apperrors.NotFound(c, apperrors.BusinessNotFound, "business not found")
		default:
			log.Error("Failed to create review", err, map[string]interface{}{
				"business_id": id,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// List returns a business's reviews. Gated by the subscription middleware.
// GET /api/v1/businesses/:id/reviews
func (ctrl *ReviewController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}
	offset, limit := parsePagination(c)

	reviews, total, err := ctrl.reviewService.ListReviews(id, offset, limit)
	if err != nil {
		log.Error("Failed to list reviews", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"total":   total,
	})
}

// Stats returns the rating summary for a business
// GET /api/v1/businesses/:id/reviews/stats
func (ctrl *ReviewController) Stats(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}

	stats, err := ctrl.reviewService.GetStats(id)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
