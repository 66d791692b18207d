package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/store"
)

// GetReceipts returns a user's receipts, decrypted, newest first, with
// durable storage keys exchanged for fresh signed URLs.
func (h *Handlers) GetReceipts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_user_id",
			Message: "user_id query parameter is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	id := c.Query("id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	items, total, err := h.store.List(c.Request.Context(), userID, id, page, limit)
	if err != nil {
		logrus.Errorf("Failed to list receipts for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch receipts",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipts": items,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// updateReceiptRequest wraps the partial field set with its owner.
type updateReceiptRequest struct {
	UserID string `json:"user_id" binding:"required"`
	store.UpdateRequest
}

// UpdateReceipt applies a partial field set to one receipt by (id, user_id).
func (h *Handlers) UpdateReceipt(c *gin.Context) {
	id := c.Param("id")

	var req updateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	status, err := h.store.Update(c.Request.Context(), id, req.UserID, req.UpdateRequest)
	if err != nil {
		logrus.Errorf("Failed to update receipt %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update receipt",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "id": id})
}

// deleteReceiptsRequest names the rows to remove by public identifier.
type deleteReceiptsRequest struct {
	UserID  string   `json:"user_id" binding:"required"`
	HashIDs []string `json:"hash_ids" binding:"required"`
}

// DeleteReceipts removes receipts and their provenance rows as pairs and
// reports per-table counts plus identifiers that matched nothing.
func (h *Handlers) DeleteReceipts(c *gin.Context) {
	var req deleteReceiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.store.Delete(c.Request.Context(), req.UserID, req.HashIDs)
	if err != nil {
		logrus.Errorf("Failed to delete receipts for %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete receipts",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
