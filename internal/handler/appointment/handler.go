package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/madadental/clinic-api/internal/handler"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/service/appointment"
)

type Handler struct {
	service appointment.AppointmentService
	emitter *handler.Emitter
}

func NewHandler(service appointment.AppointmentService, emitter *handler.Emitter) *Handler {
	return &Handler{service: service, emitter: emitter}
}

// CreateAppointment records a booking request taken over the phone or at the
// front desk. The clinic inbox is notified by email.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	a, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), handler.EventAppointmentCreate, gin.H{"id": a.ID})
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(a))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appointments, err := h.service.ListAppointments(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	a, err := h.service.UpdateAppointment(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), handler.EventAppointmentUpdate, gin.H{"id": a.ID})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}
