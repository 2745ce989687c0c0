package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
)

func (h *handlerImpl) HandleDailyReport(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	err := h.reports.Trigger(userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to queue daily report")
		switch {
		case errors.Is(err, services.ErrReportQueueFull):
			abort(c, newAPIError(http.StatusServiceUnavailable, services.ErrReportQueueFull.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "daily report queued"})
}
