package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/aismartspeaker9-cloud/zenheart-erp/internal/application/sync"
	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

type SyncHandler struct {
	svc      *app.Service
	defaults app.Filter
}

func NewSyncHandler(svc *app.Service, defaults app.Filter) *SyncHandler {
	return &SyncHandler{svc: svc, defaults: defaults}
}

type syncRequest struct {
	Limit  int    `json:"limit"`
	Status string `json:"status"`
}

// TriggerSync runs one synchronous sync pass and returns its report.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	req := syncRequest{Limit: h.defaults.Limit, Status: h.defaults.Status}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := h.svc.RunSync(c.Request.Context(), app.Filter{
		Limit:  req.Limit,
		Status: req.Status,
	})
	if err != nil {
		var ferr *domain.FetchError
		if errors.As(err, &ferr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
