package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"lazy-receipt-go/internal/metrics"
	"lazy-receipt-go/internal/pipeline"
	"lazy-receipt-go/internal/store"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db       *gorm.DB
	pipeline *pipeline.Pipeline
	store    *store.Store
	metrics  *metrics.Metrics
	httpGet  func(url string) (*http.Response, error)
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, p *pipeline.Pipeline, s *store.Store, m *metrics.Metrics) *Handlers {
	confirmClient := &http.Client{Timeout: 10 * time.Second}
	return &Handlers{
		db:       db,
		pipeline: p,
		store:    s,
		metrics:  m,
		httpGet:  confirmClient.Get,
	}
}

// SetupRoutes registers all routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/webhook/ses-email-transfer", h.EmailTransferWebhook)

	api := router.Group("/api/v1")
	{
		api.GET("/receipts", h.GetReceipts)
		api.PUT("/receipts/:id", h.UpdateReceipt)
		api.DELETE("/receipts", h.DeleteReceipts)
	}
}

// ErrorResponse is the uniform error reply shape
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
