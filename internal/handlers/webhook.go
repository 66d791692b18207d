package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// webhookEnvelope is the inbound SNS-style notification wrapper.
type webhookEnvelope struct {
	Type         string `json:"Type"`
	SubscribeURL string `json:"SubscribeURL"`
	Message      string `json:"Message"`
}

// notificationMessage is the inner payload of a Notification envelope.
type notificationMessage struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	UserID string `json:"user_id"`
}

// EmailTransferWebhook accepts storage-event notifications and drives the
// receipt pipeline. Unknown envelope types are acknowledged and ignored.
func (h *Handlers) EmailTransferWebhook(c *gin.Context) {
	logrus.Info("Received webhook request")
	h.metrics.WebhooksReceived.Inc()

	var envelope webhookEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		logrus.Errorf("Failed to parse webhook JSON: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "Invalid JSON payload",
			Code:    http.StatusBadRequest,
		})
		return
	}
	logrus.Infof("Webhook payload type: %s", envelope.Type)

	switch envelope.Type {
	case "SubscriptionConfirmation":
		h.confirmSubscription(c, envelope.SubscribeURL)
	case "Notification":
		h.handleNotification(c, envelope.Message)
	default:
		logrus.Warnf("Unhandled payload type: %s", envelope.Type)
		c.JSON(http.StatusOK, gin.H{"message": "No action taken", "status": "ignored"})
	}
}

// confirmSubscription performs the one-time confirmation fetch.
func (h *Handlers) confirmSubscription(c *gin.Context, subscribeURL string) {
	if subscribeURL == "" {
		c.JSON(http.StatusOK, gin.H{"message": "No action taken", "status": "ignored"})
		return
	}

	logrus.Infof("Confirming subscription: %s", subscribeURL)
	resp, err := h.httpGet(subscribeURL)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			err = fmt.Errorf("confirmation fetch returned status %d", resp.StatusCode)
		}
	}
	if err != nil {
		logrus.Errorf("Subscription confirmation failed: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"error":  fmt.Sprintf("Subscription failed: %s", err.Error()),
			"status": "error",
		})
		return
	}

	logrus.Info("Subscription confirmed successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Subscription confirmed", "status": "success"})
}

// handleNotification parses the inner message and runs the pipeline.
func (h *Handlers) handleNotification(c *gin.Context, rawMessage string) {
	var msg notificationMessage
	if err := json.Unmarshal([]byte(rawMessage), &msg); err != nil {
		logrus.Errorf("Failed to parse notification message: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_message",
			Message: "Invalid notification message format",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if msg.Bucket == "" || msg.Key == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Notification message requires bucket and key",
			Code:    http.StatusBadRequest,
		})
		return
	}

	logrus.Infof("Processing notification - Bucket: %s, Key: %s", msg.Bucket, msg.Key)
	result, err := h.pipeline.Process(c.Request.Context(), msg.Bucket, msg.Key, msg.UserID)
	if err != nil {
		logrus.Errorf("Pipeline failed for %s/%s: %v", msg.Bucket, msg.Key, err)
		c.JSON(http.StatusOK, gin.H{
			"error":  "Upload process failed",
			"status": "error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email processed successfully",
		"result":  result,
		"status":  "success",
	})
}
