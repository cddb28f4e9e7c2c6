package handlers

import (
	"net/http"
	"time"

	alertRepo "bookline/database/repository/alert"
	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
	"bookline/services/booking"
	"bookline/services/governor"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the tenant operator console: alerts, the agenda,
// and manual conversation controls.
type AdminHandler struct {
	Engine   booking.Engine
	Governor governor.Governor
	Alerts   alertRepo.Repository
	Contacts contactRepo.Repository
	Tenants  tenantRepo.Repository
}

// ListAlerts returns the tenant's open attention alerts, newest first.
func (h *AdminHandler) ListAlerts(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	alerts, err := h.Alerts.ListOpenAlerts(c.Request.Context(), tenantID)
	if err != nil {
		utils.GetLogger().Error("alert list failed", zap.String("tenant", tenantID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Could not load alerts", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// ResolveAlert marks one alert as handled.
func (h *AdminHandler) ResolveAlert(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	alertID := c.Param("id")

	if err := h.Alerts.ResolveAlert(c.Request.Context(), tenantID, alertID); err != nil {
		utils.JSONError(c, http.StatusNotFound, "Alert not found", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

// Agenda returns the tenant's appointments for one day. The day comes from
// the "date" query (2006-01-02, tenant-local); default is today.
func (h *AdminHandler) Agenda(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	tenant, err := h.Tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Tenant not found", "")
		return
	}
	loc := tenant.Location()

	day := time.Now().In(loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid date", "expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	appts, err := h.Engine.Agenda(c.Request.Context(), tenantID, day)
	if err != nil {
		utils.GetLogger().Error("agenda load failed", zap.String("tenant", tenantID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Could not load agenda", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "appointments": appts})
}

// CompleteAppointment transitions a confirmed appointment to completed.
func (h *AdminHandler) CompleteAppointment(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	apptID := c.Param("id")

	if err := h.Engine.Complete(c.Request.Context(), tenantID, apptID); err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusCompleted})
}

// DeleteAppointment removes an appointment outright. Cancellation is the
// normal path; deletion exists for operator cleanup.
func (h *AdminHandler) DeleteAppointment(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	apptID := c.Param("id")

	if err := h.Engine.Delete(c.Request.Context(), tenantID, apptID); err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type resumeRequest struct {
	Contact string `json:"contact" binding:"required"`
}

// ResumeConversation reactivates a paused contact and clears their
// interaction budget so the assistant picks the thread back up.
func (h *AdminHandler) ResumeConversation(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.Contacts.SetStatus(ctx, req.Contact, tenantID, models.ContactActive, ""); err != nil {
		utils.GetLogger().Error("resume failed", zap.String("tenant", tenantID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Could not resume conversation", "")
		return
	}
	if err := h.Governor.Reset(ctx, req.Contact, tenantID); err != nil {
		utils.GetLogger().Error("governor reset failed", zap.String("tenant", tenantID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "resumed"})
}

func (h *AdminHandler) bookingError(c *gin.Context, err error) {
	switch booking.CodeOf(err) {
	case booking.CodeNotFound:
		utils.JSONError(c, http.StatusNotFound, "Appointment not found", "")
	case booking.CodeForbiddenTransition:
		utils.JSONError(c, http.StatusConflict, "Invalid status transition", err.Error())
	default:
		utils.GetLogger().Error("booking operation failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Operation failed", "")
	}
}
