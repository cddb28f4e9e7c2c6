package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	tenantRepo "bookline/database/repository/tenant"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves the operator console login and device registration.
type AuthHandler struct {
	Tenants tenantRepo.Repository
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
}

// Login authenticates a tenant operator and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid login payload", err.Error())
		return
	}

	tenant, err := h.Tenants.GetByOperatorEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, tenantRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		utils.GetLogger().Error("operator lookup failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Login failed", "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(req.Password)); err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	token, err := utils.GenerateToken(tenant.ID, tenant.OperatorEmail, 24*time.Hour)
	if err != nil {
		utils.GetLogger().Error("token generation failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Login failed", "")
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, TenantID: tenant.ID, Name: tenant.Name})
}

type fcmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDevice stores the operator app's FCM token for alert pushes.
func (h *AuthHandler) RegisterDevice(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	if err := h.Tenants.UpdateFCMToken(c.Request.Context(), tenantID, req.Token); err != nil {
		utils.GetLogger().Error("fcm token update failed", zap.String("tenant", tenantID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Could not register device", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "registered"})
}
