package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madadental/clinic-api/internal/handler"
	"github.com/madadental/clinic-api/internal/middleware"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/service/auth"
)

type Handler struct {
	service       auth.AuthService
	secureCookies bool
}

func NewHandler(service auth.AuthService, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.POST("/signup", h.AdminSignUp)
		admin.POST("/signin", h.AdminSignIn)
		admin.POST("/logout", h.AdminSignOut)
	}
	patient := r.Group("/auth/patient")
	{
		patient.POST("/login", h.PatientLogin)
		patient.POST("/logout", h.PatientLogout)
	}
}

func (h *Handler) AdminSignUp(c *gin.Context) {
	var req model.AdminSignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	admin, err := h.service.AdminSignUp(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"id":    admin.ID,
		"email": admin.Email,
	}))
}

func (h *Handler) AdminSignIn(c *gin.Context) {
	var req model.AdminSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	token, admin, err := h.service.AdminSignIn(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.setSessionCookie(c, middleware.AdminCookie, token)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"id":    admin.ID,
		"email": admin.Email,
	}))
}

func (h *Handler) AdminSignOut(c *gin.Context) {
	h.clearSessionCookie(c, middleware.AdminCookie)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) PatientLogin(c *gin.Context) {
	var req model.PatientLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	token, patient, err := h.service.PatientLogin(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.setSessionCookie(c, middleware.PatientCookie, token)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patientId": patient.ID,
		"code":      patient.Code,
		"name":      patient.Name,
	}))
}

func (h *Handler) PatientLogout(c *gin.Context) {
	h.clearSessionCookie(c, middleware.PatientCookie)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) setSessionCookie(c *gin.Context, name, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(h.service.TokenExpiry().Seconds()), "/", "", h.secureCookies, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.secureCookies, true)
}
