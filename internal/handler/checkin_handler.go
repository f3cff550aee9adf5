package handler

import (
	"errors"
	"net/http"
	"wichty-checkin/internal/model"
	"wichty-checkin/internal/service"
	apperrors "wichty-checkin/pkg/app_errors"
	"wichty-checkin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckinHandler struct {
	service     service.CheckinService
	defaultLang string
}

func NewCheckinHandler(service service.CheckinService, defaultLang string) *CheckinHandler {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &CheckinHandler{service: service, defaultLang: defaultLang}
}

func (h *CheckinHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("offline/events/:eventID/download", h.DownloadSnapshot)
		router.POST("offline/checkin", h.CheckIn)
		router.POST("offline/sync", h.SyncCheckins)
		router.DELETE("offline/events/:eventID", h.ClearOfflineData)
		router.GET("offline/status", h.GetStatus)
	}
}

func (h *CheckinHandler) DownloadSnapshot(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		h.handleCheckinError(c, apperrors.ErrInvalidInput, "DownloadSnapshot")
		return
	}

	lang := c.DefaultQuery("lang", h.defaultLang)

	result, err := h.service.DownloadSnapshot(c, eventID, lang)
	if err != nil {
		h.handleCheckinError(c, err, "DownloadSnapshot")
		return
	}

	h.handleCheckinSuccess(c, result, http.StatusOK)
}

func (h *CheckinHandler) CheckIn(c *gin.Context) {
	var req model.CheckinRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	receipt, err := h.service.CheckIn(req.Code)
	if err != nil {
		h.handleCheckinError(c, err, "CheckIn")
		return
	}

	h.handleCheckinSuccess(c, receipt, http.StatusOK)
}

func (h *CheckinHandler) SyncCheckins(c *gin.Context) {
	summary, err := h.service.Sync(c)
	if err != nil {
		h.handleCheckinError(c, err, "SyncCheckins")
		return
	}

	h.handleCheckinSuccess(c, summary, http.StatusOK)
}

func (h *CheckinHandler) ClearOfflineData(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		h.handleCheckinError(c, apperrors.ErrInvalidInput, "ClearOfflineData")
		return
	}

	if err := h.service.Clear(eventID); err != nil {
		h.handleCheckinError(c, err, "ClearOfflineData")
		return
	}

	h.handleCheckinSuccess(c, nil, http.StatusNoContent)
}

func (h *CheckinHandler) GetStatus(c *gin.Context) {
	h.handleCheckinSuccess(c, h.service.Status(), http.StatusOK)
}

// Helper functions

func (h *CheckinHandler) handleCheckinError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFoundOffline):
		log.Warn("Ticket not in offline snapshot")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Ticket not found in offline snapshot",
		})
	case errors.Is(err, apperrors.ErrTicketAlreadyUsed):
		log.Warn("Ticket already used")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Ticket already used",
		})
	case errors.Is(err, apperrors.ErrTicketCancelled):
		log.Warn("Ticket cancelled")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Ticket cancelled",
		})
	case errors.Is(err, apperrors.ErrNoSnapshot):
		log.Warn("No offline snapshot")
		c.JSON(http.StatusConflict, gin.H{
			"error": "No offline snapshot downloaded",
		})
	case errors.Is(err, apperrors.ErrSnapshotDownloadFailed):
		log.Warn("Snapshot download failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Snapshot download failed",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *CheckinHandler) handleCheckinSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
