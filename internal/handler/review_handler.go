package handler

import (
	"github.com/gin-gonic/gin"

	"reviewhub/internal/service"
)

// ReviewHandler serves stored reviews and their source files.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// List handles GET /api/v1/products/:id/reviews
// @Summary List reviews of a product
// @Tags reviews
// @Produce json
// @Param id path int true "Product ID"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Review,meta=PagMeta}
// @Failure 404 {object} ErrorResponseBody "Product not found"
// @Security BearerAuth
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	reviews, total, err := h.reviewService.List(c.Request.Context(), userID, productID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, reviews, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ListFiles handles GET /api/v1/products/:id/reviews/files
// @Summary List uploaded review files
// @Tags reviews
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} Response{data=[]service.ReviewFileView}
// @Failure 404 {object} ErrorResponseBody "Product not found"
// @Security BearerAuth
// @Router /products/{id}/reviews/files [get]
func (h *ReviewHandler) ListFiles(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	files, err := h.reviewService.ListFiles(c.Request.Context(), userID, productID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, files)
}
